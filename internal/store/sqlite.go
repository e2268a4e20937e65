package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// sqliteSchema is applied on open. Statements are idempotent.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS import_sessions (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	source_ref TEXT NOT NULL DEFAULT '',
	file_name TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	row_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS fix_events (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	record_index INTEGER NOT NULL,
	field TEXT NOT NULL,
	old_value TEXT NOT NULL DEFAULT '',
	new_value TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL,
	rule TEXT NOT NULL DEFAULT '',
	actor TEXT NOT NULL DEFAULT '',
	ip_address TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS fix_events_session_idx
	ON fix_events (session_id, created_at);
`

// SQLiteStore is a SessionStore backed by an embedded SQLite database.
// The pure Go driver keeps the binary self-contained.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// openSQLite opens (creating if needed) the database file at path and
// ensures the schema exists. WAL mode is enabled for concurrent readers.
func openSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = filepath.Join("data", "sessions.db")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Register creates a new import session with a generated ID.
func (s *SQLiteStore) Register(ctx context.Context, params RegisterParams) (*SessionMeta, error) {
	now := time.Now().UTC()
	meta := SessionMeta{
		ID:        uuid.New().String(),
		OwnerID:   params.OwnerID,
		SourceRef: params.SourceRef,
		FileName:  params.FileName,
		Status:    StatusAwaitingFix,
		RowCount:  params.RowCount,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_sessions (id, owner_id, source_ref, file_name, status, row_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.OwnerID, meta.SourceRef, meta.FileName, meta.Status, meta.RowCount,
		meta.CreatedAt, meta.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return &meta, nil
}

// Locate returns the session with the given ID, or (nil, nil) if absent.
func (s *SQLiteStore) Locate(ctx context.Context, id string) (*SessionMeta, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, source_ref, file_name, status, row_count, created_at, updated_at
		 FROM import_sessions WHERE id = ?`,
		id,
	)

	var meta SessionMeta
	var createdAt, updatedAt sql.NullTime
	err := row.Scan(&meta.ID, &meta.OwnerID, &meta.SourceRef, &meta.FileName,
		&meta.Status, &meta.RowCount, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if createdAt.Valid {
		meta.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		meta.UpdatedAt = updatedAt.Time
	}

	return &meta, nil
}

// UpdateStatus sets the status label of an existing session.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE import_sessions SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return nil
}

// RecordFixEvent appends a fix event to the session's audit trail.
func (s *SQLiteStore) RecordFixEvent(ctx context.Context, ev FixEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fix_events
			(id, session_id, record_index, field, old_value, new_value, source, rule, actor, ip_address, user_agent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.SessionID, ev.RecordIndex, ev.Field, ev.OldValue, ev.NewValue,
		ev.Source, ev.Rule, ev.Actor, ev.IPAddress, ev.UserAgent, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert fix event: %w", err)
	}
	return nil
}

// ListFixEvents returns all fix events for a session, oldest first.
func (s *SQLiteStore) ListFixEvents(ctx context.Context, sessionID string) ([]FixEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, record_index, field, old_value, new_value, source, rule, actor, ip_address, user_agent, created_at
		 FROM fix_events WHERE session_id = ? ORDER BY created_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("select fix events: %w", err)
	}
	defer rows.Close()

	events := make([]FixEvent, 0)
	for rows.Next() {
		var ev FixEvent
		var createdAt sql.NullTime
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.RecordIndex, &ev.Field,
			&ev.OldValue, &ev.NewValue, &ev.Source, &ev.Rule, &ev.Actor,
			&ev.IPAddress, &ev.UserAgent, &createdAt); err != nil {
			return nil, fmt.Errorf("scan fix event: %w", err)
		}
		if createdAt.Valid {
			ev.CreatedAt = createdAt.Time
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return events, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
