// Package auth resolves and carries the tenant key that scopes a
// sandbox. Authentication policy itself lives in the calling layer;
// this package only decides which identifier a request runs under.
package auth

import "context"

type contextKey string

const tenantKey contextKey = "tenantKey"

// GuestTenant is the shared fallback for requests that carry neither a
// user nor a session identifier.
const GuestTenant = "guest"

// ResolveTenant picks the sandbox scope for a request: the user id
// when known, otherwise the anonymous session id, otherwise the shared
// guest tenant.
func ResolveTenant(userID, sessionID string) string {
	if userID != "" {
		return userID
	}
	if sessionID != "" {
		return sessionID
	}
	return GuestTenant
}

// ContextWithTenant returns a new context carrying the tenant key.
func ContextWithTenant(ctx context.Context, tenant string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, tenantKey, tenant)
}

// TenantFromContext retrieves the tenant key from the context, if any.
func TenantFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(tenantKey).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}
