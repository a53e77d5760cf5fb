package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"go-notes-server/internal/authz"
	"go-notes-server/pkg/apierror"
)

// AuthzMiddleware is the authorization gate. It runs strictly downstream of
// AuthMiddleware.RequireAuth: a request reaching it without an attached
// identity is a routing bug, answered with 401 rather than allow-all.
//
// The gate establishes role/permission only. Object-level ownership ("may
// user X edit note Y") is handler business logic.
type AuthzMiddleware struct {
	users principalSource
}

func NewAuthzMiddleware(users principalSource) *AuthzMiddleware {
	return &AuthzMiddleware{users: users}
}

// RequireRole loads the principal record and fails with 403 unless its role
// satisfies required under the hierarchy. The loaded record is attached to
// the context so handlers do not repeat the lookup.
func (m *AuthzMiddleware) RequireRole(required authz.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth, ok := AuthFromContext(r.Context())
			if !ok {
				writeGateError(w, r, http.StatusUnauthorized, apierror.CodeNoToken, "authentication required", "")
				return
			}

			user, err := m.users.FindByID(r.Context(), auth.UserID)
			if principalMissing(err) {
				writeGateError(w, r, http.StatusUnauthorized, apierror.CodeSessionExpired, "account no longer exists", "")
				return
			}
			if err != nil {
				writeGateError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected server error", "")
				return
			}

			role, known := authz.ParseRole(user.Role)
			if !known || !authz.HasRole(role, required) {
				writeGateError(w, r, http.StatusForbidden, apierror.CodeInsufficientRole,
					"insufficient role",
					fmt.Sprintf("required %s, actual %s", required, user.Role))
				return
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), user)))
		})
	}
}

// RequirePermissions is the permission-set variant of RequireRole: all named
// permissions must be held by the principal's role.
func (m *AuthzMiddleware) RequirePermissions(permissions ...authz.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth, ok := AuthFromContext(r.Context())
			if !ok {
				writeGateError(w, r, http.StatusUnauthorized, apierror.CodeNoToken, "authentication required", "")
				return
			}

			user, err := m.users.FindByID(r.Context(), auth.UserID)
			if principalMissing(err) {
				writeGateError(w, r, http.StatusUnauthorized, apierror.CodeSessionExpired, "account no longer exists", "")
				return
			}
			if err != nil {
				writeGateError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected server error", "")
				return
			}

			role, known := authz.ParseRole(user.Role)
			if !known || !authz.HasAllPermissions(role, permissions) {
				writeGateError(w, r, http.StatusForbidden, apierror.CodeInsufficientPermissions,
					"insufficient permissions",
					fmt.Sprintf("required %s for role %s", joinPermissions(permissions), user.Role))
				return
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), user)))
		})
	}
}

func joinPermissions(permissions []authz.Permission) string {
	names := make([]string, len(permissions))
	for i, permission := range permissions {
		names[i] = string(permission)
	}
	return strings.Join(names, ", ")
}
