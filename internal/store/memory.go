package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a map-backed SessionStore for tests and local development.
// Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]SessionMeta
	events   map[string][]FixEvent
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]SessionMeta),
		events:   make(map[string][]FixEvent),
	}
}

// Register creates a new import session with a generated ID.
func (m *MemoryStore) Register(ctx context.Context, params RegisterParams) (*SessionMeta, error) {
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

	m.mu.Lock()
	m.sessions[meta.ID] = meta
	m.mu.Unlock()

	return &meta, nil
}

// Locate returns the session with the given ID, or (nil, nil) if absent.
func (m *MemoryStore) Locate(ctx context.Context, id string) (*SessionMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	meta, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &meta, nil
}

// UpdateStatus sets the status label of an existing session.
// Unknown IDs are ignored.
func (m *MemoryStore) UpdateStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	meta, ok := m.sessions[id]
	if !ok {
		return nil
	}
	meta.Status = status
	meta.UpdatedAt = time.Now().UTC()
	m.sessions[id] = meta
	return nil
}

// RecordFixEvent appends a fix event to the session's audit trail.
func (m *MemoryStore) RecordFixEvent(ctx context.Context, ev FixEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	m.events[ev.SessionID] = append(m.events[ev.SessionID], ev)
	m.mu.Unlock()

	return nil
}

// ListFixEvents returns all fix events for a session in insertion order.
func (m *MemoryStore) ListFixEvents(ctx context.Context, sessionID string) ([]FixEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := m.events[sessionID]
	out := make([]FixEvent, len(events))
	copy(out, events)
	return out, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}
