package web

import (
	"context"
	"net/http"

	"github.com/remedyhq/remedy/internal/recovery"
)

// userIDHeader carries the authenticated user's identity, set by the
// auth layer in front of this service.
const userIDHeader = "X-User-ID"

// WithRequestMetadata adds the acting user, client IP, and User-Agent
// to the context for audit logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = recovery.ContextWithActor(ctx, r.Header.Get(userIDHeader))
	ctx = recovery.ContextWithClientIP(ctx, r.RemoteAddr) // Already processed by TrustedRealIP
	ctx = recovery.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	return ctx
}

// callerID returns the authenticated user identity attached to the
// request, empty when the header is missing.
func callerID(r *http.Request) string {
	return r.Header.Get(userIDHeader)
}
