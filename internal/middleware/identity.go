package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
)

// userIDKey is the echo.Context key the gate stores the caller under.
const userIDKey = "user_id"

type ctxKey struct{}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// UserIDFromContext returns the id placed by the authentication gate.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// UserID reads the caller identity from an echo context.  Handlers must use
// this (never a request body) to learn who is calling.
func UserID(c echo.Context) (string, bool) {
	if id, ok := c.Get(userIDKey).(string); ok && id != "" {
		return id, true
	}
	return UserIDFromContext(c.Request().Context())
}

// currentUserID is UserID with a placeholder for anonymous callers, used to
// build rate limit keys.
func currentUserID(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return id
	}
	return "anon"
}
