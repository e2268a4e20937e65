package web

// handlers_export.go implements the read-only download endpoints: the
// corrected dataset as CSV and the fix audit trail.

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/remedyhq/remedy/internal/recovery"
	"github.com/remedyhq/remedy/internal/store"
)

// handleExport streams the corrected dataset as CSV. Export folds the
// fixes like finalize does, but leaves the import session status alone,
// so a partial download mid-correction is harmless.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	meta := s.resolveSession(w, r)
	if meta == nil {
		return
	}

	snapshot, err := s.service.GetSnapshot(r.Context(), meta)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFileName(meta)))

	cw := csv.NewWriter(w)
	fields := exportFields(snapshot.Records)
	if err := cw.Write(fields); err != nil {
		slog.Error("csv export error", "sessionId", meta.ID, "error", err)
		return
	}

	row := make([]string, len(fields))
	for _, rec := range snapshot.Records {
		for i, field := range fields {
			row[i] = rec.Get(field).AsString()
		}
		if err := cw.Write(row); err != nil {
			slog.Error("csv export error", "sessionId", meta.ID, "error", err)
			return
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("csv export error", "sessionId", meta.ID, "error", err)
	}
}

// exportFields returns the union of field names across all records in
// first-seen order, so the CSV header covers every column any record
// carries.
func exportFields(records []*recovery.Record) []string {
	var fields []string
	seen := make(map[string]bool)
	for _, rec := range records {
		for _, f := range rec.Fields() {
			if !seen[f] {
				seen[f] = true
				fields = append(fields, f)
			}
		}
	}
	return fields
}

// exportFileName derives the download name from the session's display
// file name.
func exportFileName(meta *store.SessionMeta) string {
	name := strings.TrimSuffix(meta.FileName, filepath.Ext(meta.FileName))
	if name == "" {
		name = "records"
	}
	return name + "_corrected.csv"
}

// handleAudit returns the session's fix audit trail in application order.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	meta := s.resolveSession(w, r)
	if meta == nil {
		return
	}

	events, err := s.sessions.ListFixEvents(r.Context(), meta.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"sessionId": meta.ID,
		"events":    events,
		"count":     len(events),
	})
}
