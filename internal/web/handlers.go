package web

// handlers.go implements the recovery session API endpoints. Every
// session-scoped handler resolves the URL's session ID to metadata and
// enforces ownership before the engine sees the request; the engine
// itself never checks identity.

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/remedyhq/remedy/internal/recovery"
	"github.com/remedyhq/remedy/internal/store"
)

// maxBodyBytes caps request bodies. Fix payloads are small; anything
// bigger is a client bug.
const maxBodyBytes = 1 << 20 // 1MB

// decodeBody decodes a JSON request body with a size cap.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// resolveSession loads the metadata for the URL's session ID and
// enforces ownership. On failure the error response is already written
// and nil is returned.
func (s *Server) resolveSession(w http.ResponseWriter, r *http.Request) *store.SessionMeta {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session ID")
		return nil
	}

	meta, err := s.service.Locate(r.Context(), sessionID)
	if err != nil {
		s.respondError(w, r, err)
		return nil
	}

	if owner := callerID(r); owner == "" || owner != meta.OwnerID {
		s.respondError(w, r, fmt.Errorf("%w: session %s", recovery.ErrAccessDenied, sessionID))
		return nil
	}

	return meta
}

// handleHealth reports liveness plus engine occupancy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":         "ok",
		"activeSessions": s.service.ActiveSessions(),
		"loader":         s.service.LimiterStatus(),
	})
}

// handleRegisterSession registers a new import session for the caller.
func (s *Server) handleRegisterSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceRef string `json:"sourceRef"`
		FileName  string `json:"fileName"`
		RowCount  int    `json:"rowCount"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	owner := callerID(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}
	if strings.TrimSpace(req.SourceRef) == "" {
		writeError(w, http.StatusBadRequest, "sourceRef is required")
		return
	}

	meta, err := s.sessions.Register(r.Context(), store.RegisterParams{
		OwnerID:   owner,
		SourceRef: req.SourceRef,
		FileName:  req.FileName,
		RowCount:  req.RowCount,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, meta)
}

// handleGetSession returns the full session view: metadata, the current
// dataset with corrections applied, resolution history, and status.
// First access initializes the session from its source.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	meta := s.resolveSession(w, r)
	if meta == nil {
		return
	}

	snapshot, err := s.service.GetSnapshot(r.Context(), meta)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, snapshot)
}

// handleSingleFix applies one field correction.
func (s *Server) handleSingleFix(w http.ResponseWriter, r *http.Request) {
	meta := s.resolveSession(w, r)
	if meta == nil {
		return
	}

	var req struct {
		RecordIndex int            `json:"recordIndex"`
		Field       string         `json:"field"`
		Value       recovery.Value `json:"value"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	if req.Field == "" {
		writeError(w, http.StatusBadRequest, "field is required")
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.ApplySingleFix(ctx, meta, req.RecordIndex, req.Field, req.Value)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// handleBulkFix applies the proposed auto-fixes of the supplied findings.
func (s *Server) handleBulkFix(w http.ResponseWriter, r *http.Request) {
	meta := s.resolveSession(w, r)
	if meta == nil {
		return
	}

	var req struct {
		Rule     string             `json:"rule"`
		Findings []recovery.Finding `json:"findings"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	if len(req.Findings) == 0 {
		writeError(w, http.StatusBadRequest, "no findings supplied")
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.ApplyBulkFix(ctx, meta, req.Rule, req.Findings)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// handleFinalize folds the session's fixes into a corrected dataset and
// marks the import session completed.
func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	meta := s.resolveSession(w, r)
	if meta == nil {
		return
	}

	result, err := s.service.Finalize(r.Context(), meta)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// handleCleanup drops the in-memory session state. The import session
// row survives; only the correction workspace is discarded.
func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	meta := s.resolveSession(w, r)
	if meta == nil {
		return
	}

	removed := s.service.Cleanup(meta.ID)
	writeJSON(w, map[string]interface{}{
		"status":  "cleaned",
		"removed": removed,
	})
}
