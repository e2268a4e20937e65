package recovery

// service.go provides the session engine's public surface: locating or
// building per-session state, routing fixes to it, and recording the
// audit trail. Sessions live in a process-wide map owned by the Service
// value, created at startup and torn down through Shutdown, never
// through package globals.

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/remedyhq/remedy/internal/store"
)

// DefaultLoadTimeout bounds a single source load during session
// initialization. Loads past the deadline fall back to the built-in
// dataset like any other load failure.
var DefaultLoadTimeout = 10 * time.Second

// ErrSessionNotFound indicates the session identifier did not resolve
// to a registered import session.
var ErrSessionNotFound = errors.New("session not found")

// ErrAccessDenied indicates the caller does not own the session.
var ErrAccessDenied = errors.New("access denied")

// Loader produces the decoded records for an import session's source.
// Implementations are expected to honor ctx cancellation; the Service
// imposes its own deadline on top.
type Loader interface {
	Load(ctx context.Context, meta *store.SessionMeta) ([]*Record, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, meta *store.SessionMeta) ([]*Record, error)

func (f LoaderFunc) Load(ctx context.Context, meta *store.SessionMeta) ([]*Record, error) {
	return f(ctx, meta)
}

// ServiceConfig carries the engine's tunables. Zero values select the
// package defaults.
type ServiceConfig struct {
	// LoadTimeout bounds one source load.
	LoadTimeout time.Duration

	// MaxConcurrentLoads caps simultaneous source loads.
	MaxConcurrentLoads int

	// MaxLoadWait bounds how long an initialization queues for a
	// load slot before being rejected.
	MaxLoadWait time.Duration
}

// Service coordinates recovery sessions for bulk-import correction.
type Service struct {
	store       store.SessionStore
	loader      Loader
	limiter     *LoadLimiter
	loadTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	// initGroup collapses concurrent initializations of the same
	// session into a single load.
	initGroup singleflight.Group
}

// NewService creates the session engine over the given metadata store
// and record loader.
func NewService(st store.SessionStore, loader Loader, cfg ServiceConfig) *Service {
	timeout := cfg.LoadTimeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}

	return &Service{
		store:       st,
		loader:      loader,
		limiter:     NewLoadLimiter(cfg.MaxConcurrentLoads, cfg.MaxLoadWait),
		loadTimeout: timeout,
		sessions:    make(map[string]*Session),
	}
}

// Locate resolves a session identifier to its import metadata. Returns
// ErrSessionNotFound when the store has no such session; store failures
// pass through unchanged.
func (svc *Service) Locate(ctx context.Context, sessionID string) (*store.SessionMeta, error) {
	meta, err := svc.store.Locate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, ErrSessionNotFound
	}
	return meta, nil
}

// GetOrInit returns the cached session for meta.ID, building it on
// first use. A cache hit returns the existing session unchanged with no
// revalidation. On miss the source is loaded under the concurrency
// limiter and the load deadline; if the source cannot be read, decoded,
// or yields nothing, the session is built over the built-in dataset
// instead, so a vanished source never blocks correction. Limiter
// rejection is the one initialization failure surfaced to the caller:
// the source may be fine, the process is just saturated.
func (svc *Service) GetOrInit(ctx context.Context, meta *store.SessionMeta) (*Session, error) {
	svc.mu.RLock()
	sess, ok := svc.sessions[meta.ID]
	svc.mu.RUnlock()
	if ok {
		return sess, nil
	}

	v, err, _ := svc.initGroup.Do(meta.ID, func() (interface{}, error) {
		return svc.initSession(ctx, meta)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (svc *Service) initSession(ctx context.Context, meta *store.SessionMeta) (*Session, error) {
	// Another caller may have finished while we queued for the group.
	svc.mu.RLock()
	sess, ok := svc.sessions[meta.ID]
	svc.mu.RUnlock()
	if ok {
		return sess, nil
	}

	if err := svc.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer svc.limiter.Release()

	loadCtx, cancel := context.WithTimeout(ctx, svc.loadTimeout)
	defer cancel()

	records, err := svc.loader.Load(loadCtx, meta)
	usedFallback := false
	switch {
	case err != nil:
		slog.Warn("source load failed, serving fallback dataset",
			"sessionId", meta.ID, "source", meta.SourceRef, "error", err)
		records = FallbackRecords()
		usedFallback = true
	case len(records) == 0:
		slog.Warn("source produced no records, serving fallback dataset",
			"sessionId", meta.ID, "source", meta.SourceRef)
		records = FallbackRecords()
		usedFallback = true
	}

	sess = newSession(*meta, records, usedFallback)

	svc.mu.Lock()
	svc.sessions[meta.ID] = sess
	svc.mu.Unlock()

	slog.Info("recovery session initialized",
		"sessionId", meta.ID,
		"records", len(records),
		"findings", len(sess.outstanding),
		"usedFallback", usedFallback)
	return sess, nil
}

// ApplySingleFix applies one field correction and records it in the
// audit trail.
func (svc *Service) ApplySingleFix(ctx context.Context, meta *store.SessionMeta, index int, field string, value Value) (*SingleFixResult, error) {
	sess, err := svc.GetOrInit(ctx, meta)
	if err != nil {
		return nil, err
	}

	res, err := sess.ApplyFix(index, field, value)
	if err != nil {
		return nil, err
	}

	svc.recordFixEvent(ctx, meta.ID, store.FixEvent{
		RecordIndex: index,
		Field:       field,
		OldValue:    res.OldValue.AsString(),
		NewValue:    res.NewValue.AsString(),
		Source:      store.FixSourceSingle,
		Rule:        res.ResolvedRule,
	})
	return res, nil
}

// ApplyBulkFix applies the auto-fixes of the supplied findings and
// records each applied fix in the audit trail.
func (svc *Service) ApplyBulkFix(ctx context.Context, meta *store.SessionMeta, rule string, findings []Finding) (*BulkFixResult, error) {
	sess, err := svc.GetOrInit(ctx, meta)
	if err != nil {
		return nil, err
	}

	res := sess.ApplyBulkFix(rule, findings)
	for _, f := range res.Applied {
		svc.recordFixEvent(ctx, meta.ID, store.FixEvent{
			RecordIndex: f.RecordIndex,
			Field:       f.Field,
			OldValue:    f.Value.AsString(),
			NewValue:    f.AutoFix.NewValue.AsString(),
			Source:      store.FixSourceBulk,
			Rule:        f.Rule,
		})
	}
	return res, nil
}

// GetStatus reports correction progress for the session.
func (svc *Service) GetStatus(ctx context.Context, meta *store.SessionMeta) (*SessionStatus, error) {
	sess, err := svc.GetOrInit(ctx, meta)
	if err != nil {
		return nil, err
	}
	return sess.Status(), nil
}

// GetSnapshot returns the full session view for rendering: metadata,
// the current dataset with corrections applied, the resolution history,
// and status.
func (svc *Service) GetSnapshot(ctx context.Context, meta *store.SessionMeta) (*SessionSnapshot, error) {
	sess, err := svc.GetOrInit(ctx, meta)
	if err != nil {
		return nil, err
	}

	return &SessionSnapshot{
		Meta:     sess.Meta(),
		Records:  sess.Finalize(),
		Resolved: sess.Resolved(),
		Status:   *sess.Status(),
	}, nil
}

// Finalize folds the session's fixes into a corrected dataset and marks
// the import session completed in the store. The in-memory session
// survives finalization; Cleanup removes it.
func (svc *Service) Finalize(ctx context.Context, meta *store.SessionMeta) (*FinalizeResult, error) {
	sess, err := svc.GetOrInit(ctx, meta)
	if err != nil {
		return nil, err
	}

	records := sess.Finalize()
	status := sess.Status()

	if err := svc.store.UpdateStatus(ctx, meta.ID, store.StatusCompleted); err != nil {
		// Ignore errors - the dataset is already built
		slog.Warn("failed to mark session completed", "sessionId", meta.ID, "error", err)
	}

	return &FinalizeResult{
		Success:          true,
		Message:          "Corrected dataset assembled",
		SessionID:        meta.ID,
		Records:          records,
		RecordCount:      len(records),
		ResolvedCount:    status.ResolvedCount,
		OutstandingCount: status.OutstandingCount,
	}, nil
}

// Cleanup drops the in-memory session. Reports whether one was cached;
// cleaning up an uncached session is a no-op, not an error.
func (svc *Service) Cleanup(sessionID string) bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, ok := svc.sessions[sessionID]; !ok {
		return false
	}
	delete(svc.sessions, sessionID)
	slog.Info("recovery session removed", "sessionId", sessionID)
	return true
}

// ActiveSessions returns the number of cached sessions.
func (svc *Service) ActiveSessions() int {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return len(svc.sessions)
}

// LimiterStatus reports source-load limiter occupancy.
func (svc *Service) LimiterStatus() LimiterStatus {
	return svc.limiter.Status()
}

// Shutdown waits for in-flight source loads to drain, then drops all
// cached sessions.
func (svc *Service) Shutdown(ctx context.Context) error {
	err := svc.limiter.WaitForDrain(ctx, 100*time.Millisecond)

	svc.mu.Lock()
	svc.sessions = make(map[string]*Session)
	svc.mu.Unlock()

	return err
}

// recordFixEvent writes one audit entry, tagging it with the request
// metadata carried on ctx.
func (svc *Service) recordFixEvent(ctx context.Context, sessionID string, ev store.FixEvent) {
	ev.SessionID = sessionID
	ev.Actor = ActorFromContext(ctx)
	ev.IPAddress = ClientIPFromContext(ctx)
	ev.UserAgent = UserAgentFromContext(ctx)

	if err := svc.store.RecordFixEvent(ctx, ev); err != nil {
		// Ignore errors - the fix already succeeded
		slog.Warn("failed to record fix event",
			"sessionId", sessionID, "recordIndex", ev.RecordIndex, "field", ev.Field, "error", err)
	}
}
