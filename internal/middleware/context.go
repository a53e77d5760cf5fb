package middleware

import (
	"context"

	"go-notes-server/internal/authz"
	"go-notes-server/internal/model"
)

type contextKey string

const (
	authContextKey      contextKey = "auth"
	principalContextKey contextKey = "principal"
)

// Auth is the identity the authentication gate attaches to the request
// context. It carries only what the verified token carried; the full user
// record is loaded on demand by the authorization gate or the handler.
type Auth struct {
	UserID string
	Email  string
	Role   authz.Role
}

func withAuth(ctx context.Context, auth Auth) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

func AuthFromContext(ctx context.Context) (Auth, bool) {
	auth, ok := ctx.Value(authContextKey).(Auth)
	return auth, ok
}

func withPrincipal(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, principalContextKey, user)
}

// PrincipalFromContext returns the full user record when an authorization
// gate already loaded it for this request.
func PrincipalFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(principalContextKey).(model.User)
	return user, ok
}
