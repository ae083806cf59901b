package middleware

import (
	"context"

	"ptcms/pkg/model"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	PrincipalKey contextKey = "principal"
)

// Principal is the authenticated caller as described by its bearer token.
type Principal struct {
	UserID   int64
	Username string
	Role     model.Role
	Token    string
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(*Principal)
	return p, ok && p != nil
}

// WithPrincipal is used by Authentication and by tests that bypass it.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}
