package storage

import (
	"context"
	"fmt"

	"calc-history/internal/config"
	"calc-history/internal/history"
)

// Open builds the history store selected by cfg. The returned close function
// is never nil.
func Open(ctx context.Context, cfg config.History) (history.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store {
	case config.StoreMemory:
		return history.NewMemoryStore(), noop, nil

	case config.StorePostgres:
		pg, err := OpenPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.Table)
		if err != nil {
			return nil, noop, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, noop, err
		}
		return pg, pg.Close, nil

	case config.StoreREST:
		return NewREST(cfg.REST.URL, cfg.REST.APIKey, cfg.REST.Table, nil), noop, nil

	case config.StoreNone, "":
		return history.NopStore{}, noop, nil
	}

	return nil, noop, fmt.Errorf("unknown history store %q", cfg.Store)
}
