package recovery

// types.go defines the result shapes returned by session operations.
// Every operation reports a success flag and a human-readable message
// so callers can render an outcome without interpreting error chains.

import "github.com/remedyhq/remedy/internal/store"

// SingleFixResult reports one applied field correction.
type SingleFixResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	RecordIndex     int    `json:"recordIndex"`
	Field           string `json:"field"`
	OldValue        Value  `json:"oldValue"`
	NewValue        Value  `json:"newValue"`
	ResolvedRule    string `json:"resolvedRule,omitempty"`
	RemainingErrors int    `json:"remainingErrors"`

	// Revalidation lists the findings a fresh rule pass still raises
	// against the corrected record. Informational only: it is not
	// merged back into the session's outstanding findings.
	Revalidation []Finding `json:"revalidation,omitempty"`
}

// BulkFixResult reports a batch of auto-fix applications. Application
// is not atomic: a batch can partially succeed, and Applied lists
// exactly the findings whose fixes landed.
type BulkFixResult struct {
	Success         bool      `json:"success"`
	Message         string    `json:"message"`
	Rule            string    `json:"rule,omitempty"`
	FixedCount      int       `json:"fixedCount"`
	SkippedCount    int       `json:"skippedCount"`
	RemainingErrors int       `json:"remainingErrors"`
	Applied         []Finding `json:"applied,omitempty"`
}

// SessionStatus summarizes correction progress for one session.
type SessionStatus struct {
	SessionID        string    `json:"sessionId"`
	Outstanding      []Finding `json:"outstanding"`
	OutstandingCount int       `json:"outstandingCount"`
	ResolvedCount    int       `json:"resolvedCount"`
	TotalCount       int       `json:"totalCount"`
	Progress         float64   `json:"progress"`
	RecordCount      int       `json:"recordCount"`
	ModifiedCount    int       `json:"modifiedCount"`
	UsedFallback     bool      `json:"usedFallback"`
}

// FinalizeResult carries the corrected dataset produced by folding the
// accumulated fixes over the original records.
type FinalizeResult struct {
	Success          bool      `json:"success"`
	Message          string    `json:"message"`
	SessionID        string    `json:"sessionId"`
	Records          []*Record `json:"records"`
	RecordCount      int       `json:"recordCount"`
	ResolvedCount    int       `json:"resolvedCount"`
	OutstandingCount int       `json:"outstandingCount"`
}

// SessionSnapshot is the full view of a session: metadata, the current
// dataset with corrections applied, the resolution history, and status.
type SessionSnapshot struct {
	Meta     store.SessionMeta `json:"meta"`
	Records  []*Record         `json:"records"`
	Resolved []Finding         `json:"resolved"`
	Status   SessionStatus     `json:"status"`
}
