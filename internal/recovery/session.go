package recovery

// session.go implements the in-memory recovery session: the working
// state for correcting one import's validation findings. A session
// holds the immutable original dataset, the outstanding findings, the
// append-only resolution history, and a sparse map of corrected
// records. All mutation runs under the session mutex, so concurrent
// fixes against the same session serialize instead of interleaving
// their read-modify-write cycles.

import (
	"errors"
	"fmt"
	"sync"

	"github.com/remedyhq/remedy/internal/store"
)

// ErrRecordOutOfRange is returned when a fix references a record index
// outside the session's dataset. The session is left unchanged.
var ErrRecordOutOfRange = errors.New("record index out of range")

// Session is the correction state for one import session. Construct
// through Service.GetOrInit; the zero value is not usable.
type Session struct {
	mu sync.Mutex

	meta     store.SessionMeta
	original []*Record

	// outstanding holds unresolved findings. A (recordIndex, field)
	// pair appears here at most once; resolving it moves the finding
	// to resolved, and nothing re-enters outstanding automatically.
	outstanding []Finding

	// resolved is append-only history. Applying the same fix twice
	// appends twice; the list is never deduplicated.
	resolved []Finding

	// modified maps record index to a complete corrected record.
	// Untouched records have no entry.
	modified map[int]*Record

	usedFallback bool
}

func newSession(meta store.SessionMeta, records []*Record, usedFallback bool) *Session {
	return &Session{
		meta:         meta,
		original:     records,
		outstanding:  ValidateAll(records),
		modified:     make(map[int]*Record),
		usedFallback: usedFallback,
	}
}

// Meta returns a copy of the import session metadata.
func (s *Session) Meta() store.SessionMeta {
	return s.meta
}

// UsedFallback reports whether the session was built over the built-in
// dataset because its source could not be loaded.
func (s *Session) UsedFallback() bool {
	return s.usedFallback
}

// RecordCount returns the size of the original dataset.
func (s *Session) RecordCount() int {
	return len(s.original)
}

// Outstanding returns a copy of the unresolved findings.
func (s *Session) Outstanding() []Finding {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Finding, len(s.outstanding))
	copy(out, s.outstanding)
	return out
}

// Resolved returns a copy of the resolution history.
func (s *Session) Resolved() []Finding {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Finding, len(s.resolved))
	copy(out, s.resolved)
	return out
}

// ApplyFix overwrites one field on one record with the coerced form of
// value and updates the finding bookkeeping. The corrected record is
// revalidated and the fresh findings returned for display; they are not
// merged back into the outstanding list, since the engine trusts an
// explicit fix and only surfaces leftovers.
func (s *Session) ApplyFix(index int, field string, value Value) (*SingleFixResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.original) {
		return nil, fmt.Errorf("%w: index %d, dataset has %d records", ErrRecordOutOfRange, index, len(s.original))
	}

	old, coerced, resolvedRule := s.applyFixLocked(index, field, value, nil)
	revalidation := ValidateRecord(s.modified[index], index)

	return &SingleFixResult{
		Success:         true,
		Message:         fmt.Sprintf("Updated %s on record %d", field, index),
		RecordIndex:     index,
		Field:           field,
		OldValue:        old,
		NewValue:        coerced,
		ResolvedRule:    resolvedRule,
		RemainingErrors: len(s.outstanding),
		Revalidation:    revalidation,
	}, nil
}

// ApplyBulkFix applies the proposed auto-fix of each supplied finding.
// Findings without an auto-fix or with an out-of-range record index are
// skipped, never errored; the result lists exactly the findings whose
// fixes landed. rule is carried through for reporting only and plays no
// part in matching, which is always positional (recordIndex, field).
func (s *Session) ApplyBulkFix(rule string, findings []Finding) *BulkFixResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var applied []Finding
	skipped := 0
	for _, f := range findings {
		if f.AutoFix == nil {
			skipped++
			continue
		}
		if f.RecordIndex < 0 || f.RecordIndex >= len(s.original) {
			skipped++
			continue
		}
		s.applyFixLocked(f.RecordIndex, f.Field, f.AutoFix.NewValue, &f)
		applied = append(applied, f)
	}

	return &BulkFixResult{
		Success:         true,
		Message:         fmt.Sprintf("Applied %d of %d proposed fixes", len(applied), len(findings)),
		Rule:            rule,
		FixedCount:      len(applied),
		SkippedCount:    skipped,
		RemainingErrors: len(s.outstanding),
		Applied:         applied,
	}
}

// applyFixLocked merges one corrected field into the session. The
// caller holds mu and has bounds-checked index. via is the finding
// whose auto-fix is being applied on the bulk path, nil for direct
// edits. Returns the previous value, the coerced value, and the rule
// label recorded in the resolution history.
func (s *Session) applyFixLocked(index int, field string, value Value, via *Finding) (old, coerced Value, rule string) {
	base := s.original[index]
	if m, ok := s.modified[index]; ok {
		base = m
	}
	old = base.Get(field)
	coerced = CoerceForField(field, value)

	corrected := base.Clone()
	corrected.Set(field, coerced)
	s.modified[index] = corrected

	if i := s.findOutstandingLocked(index, field); i >= 0 {
		resolved := s.outstanding[i]
		s.outstanding = append(s.outstanding[:i], s.outstanding[i+1:]...)
		s.resolved = append(s.resolved, resolved)
		return old, coerced, resolved.Rule
	}

	if via != nil {
		s.resolved = append(s.resolved, *via)
		return old, coerced, via.Rule
	}

	// No outstanding finding for this pair: record the edit anyway so
	// the history stays complete (repeat fixes append repeat entries).
	s.resolved = append(s.resolved, Finding{
		RecordIndex: index,
		Field:       field,
		Value:       old,
		Rule:        RuleManualEdit,
		Severity:    SeverityInfo,
		Message:     fmt.Sprintf("Manual edit of %s", field),
	})
	return old, coerced, RuleManualEdit
}

// findOutstandingLocked returns the position of the outstanding finding
// for (index, field), or -1. Caller holds mu.
func (s *Session) findOutstandingLocked(index int, field string) int {
	for i, f := range s.outstanding {
		if f.RecordIndex == index && f.Field == field {
			return i
		}
	}
	return -1
}

// Status summarizes correction progress. Progress is the resolved share
// of all findings seen so far, as a percentage, and 0 when the session
// never had any.
func (s *Session) Status() *SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := len(s.resolved)
	total := resolved + len(s.outstanding)
	progress := 0.0
	if total > 0 {
		progress = float64(resolved) / float64(total) * 100
	}

	outstanding := make([]Finding, len(s.outstanding))
	copy(outstanding, s.outstanding)

	return &SessionStatus{
		SessionID:        s.meta.ID,
		Outstanding:      outstanding,
		OutstandingCount: len(s.outstanding),
		ResolvedCount:    resolved,
		TotalCount:       total,
		Progress:         progress,
		RecordCount:      len(s.original),
		ModifiedCount:    len(s.modified),
		UsedFallback:     s.usedFallback,
	}
}

// Finalize folds the corrections over the original dataset: a modified
// record overrides its original per index, untouched records pass
// through. The returned records are deep copies, and the session itself
// is left intact; removal is Service.Cleanup's job.
func (s *Session) Finalize() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Record, len(s.original))
	for i, rec := range s.original {
		if m, ok := s.modified[i]; ok {
			out[i] = m.Clone()
			continue
		}
		out[i] = rec.Clone()
	}
	return out
}
