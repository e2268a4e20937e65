// Package recovery provides the session engine for bulk-import error correction.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. When users encounter errors, they can quote the error code
// to support staff for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Session Errors (SES001-SES099)
//
// Errors related to session resolution and lifecycle:
//
//	SES001 - Not found: Recovery session not found
//	         Action: Check the session link, or start a new import
//	         Patterns: "session not found"
//
//	SES002 - Access denied: Session belongs to another user
//	         Action: Sign in with the account that created the import
//	         Patterns: "access denied"
//
//	SES003 - System busy: Too many sessions initializing
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent source loads"
//
//	SES004 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	SES005 - Request timeout: Request timed out
//	         Action: Please try again, or check your connection
//	         Patterns: "context deadline exceeded"
//
// # Request Errors (REQ001-REQ099)
//
// Errors caused by the request itself:
//
//	REQ001 - Bad record index: Referenced record does not exist
//	         Action: Refresh the session view and retry the fix
//	         Patterns: "record index out of range"
//
//	REQ002 - Invalid body: Request body could not be decoded
//	         Action: Refresh the page and try again
//	         Patterns: "invalid request body"
//
// # Store Errors (DB001-DB099)
//
// Errors from the session metadata store:
//
//	DB001 - Duplicate key: A session with this ID already exists
//	        Action: Please try again
//	        Patterns: "duplicate key"
//
//	DB002 - Connection refused: Unable to connect to the store
//	        Action: Please try again in a few moments
//	        Patterns: "connection refused"
//
//	DB003 - Connection reset: Store connection was interrupted
//	        Action: Please try again
//	        Patterns: "connection reset"
//
//	DB004 - Store busy: The store was busy with another operation
//	        Action: Please try again
//	        Patterns: "database is locked"
//
//	DB005 - Timeout: Store operation timed out
//	        Action: Please try again later
//	        Patterns: "timeout"
//
// # Rate Limiting (RATE001-RATE099)
//
// Errors related to request throttling:
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.
//
// # For Support Staff
//
// When a user reports an error code:
//  1. Look up the code in this reference
//  2. Check the associated patterns to understand what triggered it
//  3. Review the suggested action to guide the user
//  4. If ERR000, check application logs for the original technical error
package recovery

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. Patterns are matched using strings.Contains, so partial
// matches work. The first matching pattern wins, so order matters:
//   - More specific patterns should come before general ones
//   - Multiple patterns can map to the same error code
//
// To add a new error pattern:
//  1. Choose the appropriate category and code range
//  2. Add the pattern in the correct position (specific before general)
//  3. Update the package documentation at the top of this file
var errorPatterns = []errorPattern{
	// =========================================================================
	// Session Errors (SES001-SES005)
	// These errors occur while resolving or initializing a session.
	// =========================================================================
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Recovery session not found",
			Action:  "Check the session link, or start a new import",
			Code:    "SES001",
		},
	},
	{
		pattern: "access denied",
		msg: UserMessage{
			Message: "This session belongs to another user",
			Action:  "Sign in with the account that created the import",
			Code:    "SES002",
		},
	},
	{
		pattern: "too many concurrent source loads",
		msg: UserMessage{
			Message: "System is busy initializing other sessions",
			Action:  "Please wait a moment and try again",
			Code:    "SES003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "SES004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again, or check your connection",
			Code:    "SES005",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ002)
	// These errors are caused by the request itself, not the system.
	// =========================================================================
	{
		pattern: "record index out of range",
		msg: UserMessage{
			Message: "Referenced record does not exist in this session",
			Action:  "Refresh the session view and retry the fix",
			Code:    "REQ001",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "Request could not be understood",
			Action:  "Refresh the page and try again",
			Code:    "REQ002",
		},
	},

	// =========================================================================
	// Store Errors (DB001-DB005)
	// These errors come from the session metadata store.
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A session with this ID already exists",
			Action:  "Please try again",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the session store",
			Action:  "Please try again in a few moments",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Session store connection was interrupted",
			Action:  "Please try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "The session store was busy with another operation",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Session store operation timed out",
			Action:  "Please try again later",
			Code:    "DB005",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// These errors occur when request limits are exceeded.
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// This is the fallback for unexpected errors. Support staff should check
// application logs for the original technical error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := errors.New("session not found: 42")
//	msg := MapError(err)
//	// msg.Code == "SES001"
//	// msg.Message == "Recovery session not found"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "Recovery session not found (Code: SES001). Check the session link, or start a new import"
//
// This is the primary function for displaying errors to end users.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be
// shown to users. Returns true if the error matches a specific pattern
// (not the generic ERR000 fallback). Use this to decide whether to show
// the raw error or the mapped user message.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean
// message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a
// user-friendly message. The returned UserError preserves the original
// technical error for logging via Unwrap(), while providing a clean user
// message via Error().
//
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
