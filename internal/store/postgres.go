package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresSchema is applied on open. Statements are idempotent so the
// store can be opened against an existing database.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS import_sessions (
	id UUID PRIMARY KEY,
	owner_id TEXT NOT NULL,
	source_ref TEXT NOT NULL DEFAULT '',
	file_name TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	row_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS fix_events (
	id UUID PRIMARY KEY,
	session_id UUID NOT NULL,
	record_index INTEGER NOT NULL,
	field TEXT NOT NULL,
	old_value TEXT NOT NULL DEFAULT '',
	new_value TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL,
	rule TEXT NOT NULL DEFAULT '',
	actor TEXT NOT NULL DEFAULT '',
	ip_address TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS fix_events_session_idx
	ON fix_events (session_id, created_at);
`

// PostgresStore is a SessionStore backed by a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// openPostgres connects to Postgres and ensures the schema exists.
func openPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Register creates a new import session with a generated ID.
func (p *PostgresStore) Register(ctx context.Context, params RegisterParams) (*SessionMeta, error) {
	meta := SessionMeta{
		ID:        uuid.New().String(),
		OwnerID:   params.OwnerID,
		SourceRef: params.SourceRef,
		FileName:  params.FileName,
		Status:    StatusAwaitingFix,
		RowCount:  params.RowCount,
	}

	row := p.pool.QueryRow(ctx,
		`INSERT INTO import_sessions (id, owner_id, source_ref, file_name, status, row_count)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		meta.ID, meta.OwnerID, meta.SourceRef, meta.FileName, meta.Status, meta.RowCount,
	)
	if err := row.Scan(&meta.CreatedAt, &meta.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return &meta, nil
}

// Locate returns the session with the given ID, or (nil, nil) if absent.
func (p *PostgresStore) Locate(ctx context.Context, id string) (*SessionMeta, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	var meta SessionMeta
	row := p.pool.QueryRow(ctx,
		`SELECT id, owner_id, source_ref, file_name, status, row_count, created_at, updated_at
		 FROM import_sessions WHERE id = $1`,
		id,
	)
	err := row.Scan(&meta.ID, &meta.OwnerID, &meta.SourceRef, &meta.FileName,
		&meta.Status, &meta.RowCount, &meta.CreatedAt, &meta.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	return &meta, nil
}

// UpdateStatus sets the status label of an existing session.
func (p *PostgresStore) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE import_sessions SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return nil
}

// RecordFixEvent appends a fix event to the session's audit trail.
func (p *PostgresStore) RecordFixEvent(ctx context.Context, ev FixEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO fix_events
			(id, session_id, record_index, field, old_value, new_value, source, rule, actor, ip_address, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		ev.ID, ev.SessionID, ev.RecordIndex, ev.Field, ev.OldValue, ev.NewValue,
		ev.Source, ev.Rule, ev.Actor, ev.IPAddress, ev.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert fix event: %w", err)
	}
	return nil
}

// ListFixEvents returns all fix events for a session, oldest first.
func (p *PostgresStore) ListFixEvents(ctx context.Context, sessionID string) ([]FixEvent, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, session_id, record_index, field, old_value, new_value, source, rule, actor, ip_address, user_agent, created_at
		 FROM fix_events WHERE session_id = $1 ORDER BY created_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("select fix events: %w", err)
	}
	defer rows.Close()

	events := make([]FixEvent, 0)
	for rows.Next() {
		var ev FixEvent
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.RecordIndex, &ev.Field,
			&ev.OldValue, &ev.NewValue, &ev.Source, &ev.Rule, &ev.Actor,
			&ev.IPAddress, &ev.UserAgent, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan fix event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return events, nil
}

// Close releases the connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
