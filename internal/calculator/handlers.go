package calculator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"calc-history/internal/handlers"
	"calc-history/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

// Handler exposes a Session over HTTP.
type Handler struct {
	session *Session
}

func NewHandler(s *Session) *Handler {
	return &Handler{session: s}
}

// ---------------------------------------------------------------------------
// Handlers — input
// ---------------------------------------------------------------------------

// Digit handles POST /calculator/digit
func (h *Handler) Digit(w http.ResponseWriter, r *http.Request) {
	h.handleInput(w, r, "digit", func(token string) (Result, error) {
		return h.session.Digit(token)
	})
}

// Operator handles POST /calculator/operator
func (h *Handler) Operator(w http.ResponseWriter, r *http.Request) {
	h.handleInput(w, r, "operator", func(token string) (Result, error) {
		return h.session.Operator(token)
	})
}

// Command handles POST /calculator/command
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	h.handleInput(w, r, "command", func(token string) (Result, error) {
		return h.session.Command(token)
	})
}

// Key handles POST /calculator/key. The body carries a keyboard key name
// rather than a token; it is classified before being applied.
func (h *Handler) Key(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.reject(w, r, "key", "invalid request body", err)
		return
	}
	h.apply(w, r, "key", req.Key, func(key string) (Result, error) {
		_, res, err := h.session.Key(key)
		return res, err
	})
}

// handleInput decodes an InputRequest and applies its token.
func (h *Handler) handleInput(w http.ResponseWriter, r *http.Request, kind string, fn func(string) (Result, error)) {
	var req InputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.reject(w, r, kind, "invalid request body", err)
		return
	}
	h.apply(w, r, kind, req.Token, fn)
}

// apply is the shared implementation for every input endpoint: a child span,
// the session call, metrics, trace-correlated logging and the JSON view.
func (h *Handler) apply(w http.ResponseWriter, r *http.Request, kind, token string, fn func(string) (Result, error)) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, fmt.Sprintf("calculator.%s", kind),
		trace.WithAttributes(
			attribute.String("calculator.input", kind),
			attribute.String("calculator.token", token),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	start := time.Now()
	res, err := fn(token)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0 // ms

	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, kind, fmt.Sprintf("unknown %s token %q", kind, token), err, http.StatusBadRequest, w)
		return
	}

	attrs := metric.WithAttributes(attribute.String("input", kind))
	inputCounter.Add(ctx, 1, attrs)
	inputHistogram.Record(ctx, elapsed, attrs)

	span.SetAttributes(
		attribute.String("calculator.display", res.View.Display),
		attribute.Int("calculator.history.size", len(res.View.History)),
	)

	if res.Failure != nil {
		// The calculation failed but the input was valid: the Error display is
		// the response, not an HTTP error.
		span.RecordError(res.Failure)
		span.SetStatus(codes.Error, res.Failure.Error())
		errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "calculate")))
		logger.Warn("calculation failed",
			zap.String("input", kind),
			zap.String("token", token),
			zap.Error(res.Failure),
			zap.String("request_id", requestID),
		)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	logger.Info("calculator input applied",
		zap.String("input", kind),
		zap.String("token", token),
		zap.String("display", res.View.Display),
		zap.String("expression", res.View.Expression),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)

	handlers.WriteJSON(w, http.StatusOK, res.View)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, kind, msg string, err error) {
	ctx := r.Context()
	ctx, span := tracer.Start(ctx, fmt.Sprintf("calculator.%s", kind))
	defer span.End()
	observability.RecordError(ctx, span, observability.LoggerWithTrace(ctx), errorCounter, kind, msg, err, http.StatusBadRequest, w)
}

// ---------------------------------------------------------------------------
// Handler — key sequences (demonstrates nested spans)
// ---------------------------------------------------------------------------

// Keys handles POST /calculator/keys — applies a sequence of keyboard keys,
// creating a child span for every key. Validation happens up front, so an
// unknown key rejects the whole request without touching the session.
func (h *Handler) Keys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "calculator.keys",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req KeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "keys", "invalid request body", err, http.StatusBadRequest, w)
		return
	}

	if len(req.Keys) == 0 {
		observability.RecordError(ctx, span, logger, errorCounter, "keys", "no keys provided", fmt.Errorf("keys array is empty"), http.StatusBadRequest, w)
		return
	}

	for i, key := range req.Keys {
		if _, err := ParseKey(key); err != nil {
			observability.RecordError(ctx, span, logger, errorCounter, "keys", fmt.Sprintf("unknown key %q at step %d", key, i), err, http.StatusBadRequest, w)
			return
		}
	}

	span.SetAttributes(attribute.Int("keys.count", len(req.Keys)))

	steps := make([]KeyStep, 0, len(req.Keys))
	var view View

	for i, key := range req.Keys {
		_, stepSpan := tracer.Start(ctx, fmt.Sprintf("calculator.keys.step.%d", i),
			trace.WithAttributes(
				attribute.Int("keys.step.index", i),
				attribute.String("keys.step.key", key),
			),
		)

		stepStart := time.Now()
		in, res, err := h.session.Key(key)
		stepElapsed := float64(time.Since(stepStart).Microseconds()) / 1000.0

		if err != nil {
			// Unreachable after validation; kept so a vocabulary change cannot panic.
			stepSpan.RecordError(err)
			stepSpan.SetStatus(codes.Error, err.Error())
			stepSpan.End()
			observability.RecordError(ctx, span, logger, errorCounter, "keys", err.Error(), err, http.StatusBadRequest, w)
			return
		}

		attrs := metric.WithAttributes(attribute.String("input", in.Kind.String()))
		inputCounter.Add(ctx, 1, attrs)
		inputHistogram.Record(ctx, stepElapsed, attrs)

		if res.Failure != nil {
			stepSpan.RecordError(res.Failure)
			stepSpan.SetStatus(codes.Error, res.Failure.Error())
			errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "calculate")))
			logger.Warn("calculation failed",
				zap.Int("step", i),
				zap.String("key", key),
				zap.Error(res.Failure),
				zap.String("request_id", requestID),
			)
		} else {
			stepSpan.SetStatus(codes.Ok, "")
		}
		stepSpan.SetAttributes(attribute.String("keys.step.display", res.View.Display))
		stepSpan.End()

		steps = append(steps, KeyStep{Key: key, Input: in.Kind.String(), Display: res.View.Display})
		view = res.View
	}

	span.SetAttributes(attribute.String("calculator.display", view.Display))
	span.SetStatus(codes.Ok, "")

	logger.Info("key sequence applied",
		zap.Int("keys", len(req.Keys)),
		zap.String("display", view.Display),
		zap.String("request_id", requestID),
	)

	handlers.WriteJSON(w, http.StatusOK, KeysResponse{Steps: steps, View: view})
}

// ---------------------------------------------------------------------------
// Handlers — state and history
// ---------------------------------------------------------------------------

// State handles GET /calculator
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, h.session.View())
}

// History handles GET /calculator/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, HistoryResponse{Records: h.session.Records()})
}

// ClearHistory handles DELETE /calculator/history. The store is cleared in
// the background; the response reflects the emptied in-memory log.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, span := tracer.Start(ctx, "calculator.history.clear")
	defer span.End()

	view := h.session.ClearHistory()

	observability.LoggerWithTrace(ctx).Info("history cleared",
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)
	handlers.WriteJSON(w, http.StatusOK, view)
}
