package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Second

var tracer = otel.Tracer("history")

// Log is the bounded, most-recent-first list of calculation records for the
// running session. It is the source of truth; the Store is a best-effort
// mirror written asynchronously and read once by Hydrate.
type Log struct {
	mu      sync.Mutex
	records []Record

	store   Store
	logger  *zap.Logger
	limit   int
	timeout time.Duration
	now     func() time.Time

	inflight sync.WaitGroup
}

type Option func(*Log)

// WithLimit overrides DefaultLimit.
func WithLimit(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithTimeout bounds each store operation.
func WithTimeout(d time.Duration) Option {
	return func(l *Log) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithClock sets the timestamp source for new records.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// New returns an empty log mirrored to store. A nil store behaves as NopStore.
func New(store Store, logger *zap.Logger, opts ...Option) *Log {
	if store == nil {
		store = NopStore{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Log{
		store:   store,
		logger:  logger,
		limit:   DefaultLimit,
		timeout: defaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records a calculation text stamped with the current time.
func (l *Log) Append(text string) {
	l.Add(Record{Text: text, Timestamp: l.now().UTC()})
}

// Add inserts rec at the front, evicting the oldest record past the limit,
// then mirrors it to the store in the background.
func (l *Log) Add(rec Record) {
	l.mu.Lock()
	l.records = append([]Record{rec}, l.records...)
	if len(l.records) > l.limit {
		l.records = l.records[:l.limit]
	}
	n := len(l.records)
	l.mu.Unlock()

	ctx := context.Background()
	appendCounter.Add(ctx, 1)
	entriesGauge.Record(ctx, int64(n))

	l.dispatch("insert", func(ctx context.Context) error {
		return l.store.Insert(ctx, rec)
	})
}

// Clear empties the log and deletes the store's records in the background.
func (l *Log) Clear() {
	l.mu.Lock()
	l.records = nil
	l.mu.Unlock()

	entriesGauge.Record(context.Background(), 0)

	l.dispatch("delete_all", func(ctx context.Context) error {
		return l.store.DeleteAll(ctx)
	})
}

// Hydrate replaces the log with the store's newest records. A failing or
// unconfigured store leaves the log as it is.
func (l *Log) Hydrate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "history.list",
		trace.WithAttributes(attribute.Int("history.limit", l.limit)),
	)
	defer span.End()

	start := time.Now()
	records, err := l.store.List(ctx, l.limit)
	l.observe(ctx, span, "list", start, err)
	if err != nil {
		return
	}

	if len(records) > l.limit {
		records = records[:l.limit]
	}

	l.mu.Lock()
	l.records = append([]Record(nil), records...)
	l.mu.Unlock()

	entriesGauge.Record(ctx, int64(len(records)))
	l.logger.Info("history hydrated", zap.Int("records", len(records)))
}

// Records returns a copy of the log, newest first.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Texts returns the record texts, newest first.
func (l *Log) Texts() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.records))
	for i, rec := range l.records {
		out[i] = rec.Text
	}
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Wait blocks until every dispatched store operation has finished.
func (l *Log) Wait() {
	l.inflight.Wait()
}

// dispatch runs op against the store without blocking the caller. Operations
// are started in call order but may finish in any order.
func (l *Log) dispatch(op string, fn func(ctx context.Context) error) {
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()

		ctx, span := tracer.Start(ctx, "history."+op)
		defer span.End()

		start := time.Now()
		err := fn(ctx)
		l.observe(ctx, span, op, start, err)
	}()
}

// observe records metrics for a finished store operation and reports its
// failure, if any. Failures are never retried.
func (l *Log) observe(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	attrs := metric.WithAttributes(attribute.String("operation", op))
	persistCounter.Add(ctx, 1, attrs)
	persistDuration.Record(ctx, elapsed, attrs)

	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	if errors.Is(err, ErrStoreNotConfigured) {
		span.SetStatus(codes.Unset, err.Error())
		l.logger.Warn("history store not configured", zap.String("operation", op))
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "history store operation failed")
	persistFailures.Add(ctx, 1, attrs)
	l.logger.Error("history store operation failed",
		zap.String("operation", op),
		zap.Error(err),
		zap.Float64("duration_ms", elapsed),
	)
}
