package audit

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"staffsuite/internal/records"
)

const schema = `
CREATE TABLE IF NOT EXISTS store_audit (
	id          UUID PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL,
	actor       TEXT NOT NULL,
	stream      TEXT NOT NULL,
	op          TEXT NOT NULL,
	target      TEXT NOT NULL DEFAULT '',
	removed     BIGINT NOT NULL DEFAULT 0
)`

// Entry is one stored audit row.
type Entry struct {
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	Actor      string    `json:"actor"`
	Stream     string    `json:"stream"`
	Op         string    `json:"op"`
	Target     string    `json:"target"`
	Removed    int64     `json:"removed"`
}

// Repository persists audit events in Postgres.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Migrate creates the audit table if it is missing.
func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Record implements records.Auditor.
func (r *Repository) Record(ctx context.Context, ev records.AuditEvent) error {
	if ev.Stream == "" || ev.Op == "" {
		return errors.New("audit: stream and op required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO store_audit (id, occurred_at, actor, stream, op, target, removed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.NewString(), r.now().UTC(), ev.Actor, ev.Stream, ev.Op, ev.Target, ev.Removed)
	return err
}

// Recent returns the latest entries, newest first. An empty stream matches all.
func (r *Repository) Recent(ctx context.Context, stream string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, occurred_at, actor, stream, op, target, removed
		FROM store_audit
		WHERE $1 = '' OR stream = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, stream, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.Actor, &e.Stream, &e.Op, &e.Target, &e.Removed); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Logger is the fallback auditor when no database is configured.
type Logger struct{}

// Record implements records.Auditor.
func (Logger) Record(_ context.Context, ev records.AuditEvent) error {
	log.Printf("audit: actor=%s stream=%s op=%s target=%q removed=%d", ev.Actor, ev.Stream, ev.Op, ev.Target, ev.Removed)
	return nil
}
