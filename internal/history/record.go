package history

import (
	"context"
	"errors"
	"time"
)

// DefaultLimit bounds the in-memory log and the number of records hydrated
// from a store.
const DefaultLimit = 20

// ErrStoreNotConfigured is returned by NopStore for every operation.
var ErrStoreNotConfigured = errors.New("history store not configured")

// Record is one completed calculation, e.g. "2 + 3 = 5".
type Record struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is the durable mirror of the history log. List returns at most limit
// records, newest first.
type Store interface {
	Insert(ctx context.Context, rec Record) error
	List(ctx context.Context, limit int) ([]Record, error)
	DeleteAll(ctx context.Context) error
}

// NopStore stands in when no backing store is configured.
type NopStore struct{}

func (NopStore) Insert(context.Context, Record) error { return ErrStoreNotConfigured }

func (NopStore) List(context.Context, int) ([]Record, error) { return nil, ErrStoreNotConfigured }

func (NopStore) DeleteAll(context.Context) error { return ErrStoreNotConfigured }
