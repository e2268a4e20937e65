// Package store persists import sessions and their fix audit trail.
//
// An import session is the externally-owned record of one bulk upload
// attempt: who uploaded it, where the source file lives, and how far the
// recovery workflow has progressed. The recovery engine never touches
// this package directly except to record fix events; everything else
// goes through the HTTP boundary.
//
// Three drivers are provided:
//
//   - postgres: pgx connection pool, for shared deployments
//   - sqlite: modernc.org/sqlite (pure Go), for single-binary deployments
//   - memory: map-backed, for tests and local development
//
// All drivers satisfy [SessionStore] and are selected via [Open].
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Import session status labels, coarse by design. A session starts in
// StatusAwaitingFix when registered and moves to StatusCompleted when
// the corrected dataset is finalized.
const (
	StatusAwaitingFix = "awaiting_fix"
	StatusCompleted   = "completed"
)

// Fix event sources distinguish interactive single-field corrections
// from rule-driven batch corrections.
const (
	FixSourceSingle = "single"
	FixSourceBulk   = "bulk"
)

// ErrUnknownDriver is returned by Open for an unrecognized driver name.
var ErrUnknownDriver = errors.New("unknown store driver")

// SessionMeta describes one import session.
type SessionMeta struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	SourceRef string    `json:"sourceRef"`
	FileName  string    `json:"fileName"`
	Status    string    `json:"status"`
	RowCount  int       `json:"rowCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RegisterParams contains the fields required to create an import session.
type RegisterParams struct {
	OwnerID   string
	SourceRef string
	FileName  string
	RowCount  int
}

// FixEvent records a single applied correction for the audit trail.
type FixEvent struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	RecordIndex int       `json:"recordIndex"`
	Field       string    `json:"field"`
	OldValue    string    `json:"oldValue,omitempty"`
	NewValue    string    `json:"newValue"`
	Source      string    `json:"source"`
	Rule        string    `json:"rule,omitempty"`
	Actor       string    `json:"actor,omitempty"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SessionStore is the persistence contract for import sessions.
//
// Locate returns (nil, nil) when no session exists for the given ID.
// Absence is a normal outcome, not an error; callers map it to a
// not-found response.
type SessionStore interface {
	Register(ctx context.Context, params RegisterParams) (*SessionMeta, error)
	Locate(ctx context.Context, id string) (*SessionMeta, error)
	UpdateStatus(ctx context.Context, id, status string) error
	RecordFixEvent(ctx context.Context, ev FixEvent) error
	ListFixEvents(ctx context.Context, sessionID string) ([]FixEvent, error)
	Close() error
}

// Open creates a SessionStore for the given driver.
//
// Driver values: "postgres" (dsn is a pgx connection string), "sqlite"
// (dsn is a file path), "memory" (dsn ignored).
func Open(ctx context.Context, driver, dsn string) (SessionStore, error) {
	switch driver {
	case "postgres":
		return openPostgres(ctx, dsn)
	case "sqlite":
		return openSQLite(ctx, dsn)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
