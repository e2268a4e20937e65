package recovery

// context.go provides typed context keys for request metadata the audit
// trail records alongside fix events. The HTTP layer stores these; the
// engine only reads them, so a missing value degrades to an empty field
// rather than an error.

import "context"

type contextKey string

const (
	actorKey     contextKey = "actor"
	clientIPKey  contextKey = "client_ip"
	userAgentKey contextKey = "user_agent"
)

// ContextWithActor returns a new context carrying the acting user's ID.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext extracts the acting user's ID from the context.
// Returns empty string if not present.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey).(string); ok {
		return actor
	}
	return ""
}

// ContextWithClientIP returns a new context carrying the client IP.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFromContext extracts the client IP from the context.
// Returns empty string if not present.
func ClientIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey).(string); ok {
		return ip
	}
	return ""
}

// ContextWithUserAgent returns a new context carrying the client's
// User-Agent header.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey, ua)
}

// UserAgentFromContext extracts the User-Agent from the context.
// Returns empty string if not present.
func UserAgentFromContext(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey).(string); ok {
		return ua
	}
	return ""
}
