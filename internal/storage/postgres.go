package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"calc-history/internal/history"

	"github.com/lib/pq"
)

// DefaultTable is the table the original web client wrote to.
const DefaultTable = "calculator_history"

// Postgres mirrors history records into a table with columns
// (id, calculation, created_at).
type Postgres struct {
	db    *sql.DB
	table string
}

// OpenPostgres connects with the lib/pq driver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn, table string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgres(db, table), nil
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB, table string) *Postgres {
	if table == "" {
		table = DefaultTable
	}
	return &Postgres{db: db, table: pq.QuoteIdentifier(table)}
}

// EnsureSchema creates the history table when it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+p.table+` (
		id BIGSERIAL PRIMARY KEY,
		calculation TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("create %s: %w", p.table, err)
	}
	return nil
}

func (p *Postgres) Insert(ctx context.Context, rec history.Record) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO `+p.table+` (calculation, created_at) VALUES ($1, $2)`,
		rec.Text, rec.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, limit int) ([]history.Record, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT calculation, created_at FROM `+p.table+` ORDER BY created_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list history records: %w", err)
	}
	defer rows.Close()

	records := make([]history.Record, 0, limit)
	for rows.Next() {
		var rec history.Record
		if err := rows.Scan(&rec.Text, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history records: %w", err)
	}
	return records, nil
}

func (p *Postgres) DeleteAll(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM `+p.table); err != nil {
		return fmt.Errorf("delete history records: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
