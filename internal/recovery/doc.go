// Package recovery provides the session engine for bulk-import error correction.
//
// This package is the heart of the correction workflow, containing all
// domain logic independent of any UI or transport layer. It can be used
// by web handlers, CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Records: Ordered field-to-value mappings with a small closed set
//     of value kinds (string, number, boolean, absent).
//   - Rule Catalog: A fixed set of validation rules producing findings,
//     some carrying a proposed auto-fix with a confidence score.
//   - Session: Per-import working state holding the immutable original
//     dataset, outstanding findings, resolution history, and corrected
//     records.
//   - Service: The main entry point for all operations (initialize,
//     fix, status, finalize, cleanup).
//
// # Session Lifecycle
//
// Sessions are created lazily. The flow is:
//
//  1. The boundary resolves a session ID to metadata via [Service.Locate]
//  2. [Service.GetOrInit] loads the source under a concurrency limiter
//     and deadline; unreadable sources fall back to a built-in dataset
//  3. The rule catalog runs once over every record to seed the
//     outstanding findings
//  4. Fixes are applied via [Service.ApplySingleFix] and
//     [Service.ApplyBulkFix]; every applied fix lands in the resolution
//     history and the audit trail
//  5. [Service.Finalize] folds the corrections into a complete dataset;
//     [Service.Cleanup] discards the in-memory state
//
// # Value Coercion
//
// Fix values are never rejected: each field has a declared scalar kind
// and [CoerceForField] narrows any input to it, defaulting numerics to
// 0 and flooring stock-like counts at 0. Coercion is used only by the
// fix paths; validation reads values as they arrived.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - SES001-SES005: Session errors (not found, denied, busy, cancelled)
//   - REQ001-REQ002: Request errors (bad index, undecodable body)
//   - DB001-DB005: Store errors (duplicates, connections, timeouts)
//   - RATE001: Request throttling
//
// # Audit Trail
//
// Every applied fix is recorded through the session store with the
// acting user, client address, and the old and new values. Audit writes
// never fail a fix; a failed write is logged and dropped.
package recovery
