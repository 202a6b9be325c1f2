package middleware

import (
	"context"

	"github.com/storeops/access-engine/auth"
)

// Context key type to avoid collisions
type contextKey string

const (
	// SessionKey is the context key for the verified session claims
	SessionKey contextKey = "session"
)

// GetSessionFromContext retrieves the verified session claims from context.
// Returns nil when the request carried no valid session.
func GetSessionFromContext(ctx context.Context) *auth.SessionClaims {
	if val := ctx.Value(SessionKey); val != nil {
		if claims, ok := val.(*auth.SessionClaims); ok {
			return claims
		}
	}
	return nil
}

// WithSession adds verified session claims to the context
func WithSession(ctx context.Context, claims *auth.SessionClaims) context.Context {
	return context.WithValue(ctx, SessionKey, claims)
}
