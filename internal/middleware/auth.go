package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go-notes-server/internal/authz"
	"go-notes-server/internal/metrics"
	"go-notes-server/internal/model"
	"go-notes-server/internal/token"
	"go-notes-server/pkg/apierror"
)

type tokenCodec interface {
	VerifyAccess(tokenString string) (*token.Claims, error)
	VerifyRefresh(tokenString string) (*token.Claims, error)
	MintAccess(claims token.Claims) (string, error)
	MintRefresh(claims token.Claims) (string, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

type principalSource interface {
	FindByID(ctx context.Context, id string) (model.User, error)
}

// AuthMiddleware is the authentication gate: it validates the access token
// on every protected request and transparently refreshes an expired one when
// a valid refresh token is presented.
//
// The gate never consults the session registry. Token validity is
// self-contained; session records only track devices for UX, so losing them
// never locks a user out.
type AuthMiddleware struct {
	codec         tokenCodec
	users         principalSource
	secureCookies bool
}

func NewAuthMiddleware(codec tokenCodec, users principalSource, secureCookies bool) *AuthMiddleware {
	return &AuthMiddleware{codec: codec, users: users, secureCookies: secureCookies}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken := extractAccessToken(r)
		if accessToken == "" {
			writeGateError(w, r, http.StatusUnauthorized, apierror.CodeNoToken, "authentication required", "")
			return
		}

		claims, err := m.codec.VerifyAccess(accessToken)
		switch {
		case err == nil:
			// Hot path: no store lookup for an already-valid token.
			next.ServeHTTP(w, r.WithContext(withAuth(r.Context(), authFromClaims(claims))))

		case errors.Is(err, token.ErrExpired):
			m.refreshAndContinue(w, r, next)

		default:
			writeGateError(w, r, http.StatusUnauthorized, apierror.CodeInvalidToken, "invalid token", "")
		}
	})
}

// refreshAndContinue runs the refresh leg of the gate. Any failure here
// surfaces as SESSION_EXPIRED with cleared cookies: the client must treat it
// exactly like never having logged in.
//
// Concurrent requests holding the same expiring pair are not deduplicated;
// each refresh independently mints a valid pair and refresh tokens stay
// multi-use until expiry.
func (m *AuthMiddleware) refreshAndContinue(w http.ResponseWriter, r *http.Request, next http.Handler) {
	refreshToken := extractRefreshToken(r)
	if refreshToken == "" {
		m.failSessionExpired(w, r, "no refresh token presented")
		return
	}

	claims, err := m.codec.VerifyRefresh(refreshToken)
	if err != nil {
		m.failSessionExpired(w, r, "refresh token rejected")
		return
	}

	// Exactly one principal lookup per refresh attempt: the user may have
	// been deleted since the refresh token was minted, and role changes must
	// land in the new pair.
	user, err := m.users.FindByID(r.Context(), claims.UserID)
	if principalMissing(err) {
		m.failSessionExpired(w, r, "account no longer exists")
		return
	}
	if err != nil {
		// Store outage, not a dead session. The pair may still be good once
		// the store is back, so cookies stay and the request fails as a
		// server error.
		metrics.TokenRefresh("failed")
		writeGateError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected server error", "")
		return
	}

	fresh := token.Claims{UserID: user.ID, Email: user.Email, Role: user.Role}
	newAccess, err := m.codec.MintAccess(fresh)
	if err != nil {
		m.failSessionExpired(w, r, "")
		return
	}
	newRefresh, err := m.codec.MintRefresh(fresh)
	if err != nil {
		m.failSessionExpired(w, r, "")
		return
	}

	// Deliver the rotated pair both ways at once: cookies for browsers,
	// headers for clients that cannot read httpOnly cookies.
	SetAuthCookies(w, newAccess, newRefresh, m.codec.AccessTTL(), m.codec.RefreshTTL(), m.secureCookies)
	w.Header().Set(NewAccessTokenHeader, newAccess)
	w.Header().Set(NewRefreshTokenHeader, newRefresh)

	metrics.TokenRefresh("ok")
	next.ServeHTTP(w, r.WithContext(withAuth(r.Context(), Auth{
		UserID: user.ID,
		Email:  user.Email,
		Role:   authz.Role(user.Role),
	})))
}

func (m *AuthMiddleware) failSessionExpired(w http.ResponseWriter, r *http.Request, details string) {
	metrics.TokenRefresh("failed")
	ClearAuthCookies(w, m.secureCookies)
	writeGateError(w, r, http.StatusUnauthorized, apierror.CodeSessionExpired, "session expired, please log in again", details)
}

// principalMissing distinguishes "the account is gone" from the user store
// being unreachable. Only the former may end the session.
func principalMissing(err error) bool {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatus == http.StatusNotFound
	}
	return errors.Is(err, model.ErrUserNotFound)
}

func authFromClaims(claims *token.Claims) Auth {
	return Auth{UserID: claims.UserID, Email: claims.Email, Role: authz.Role(claims.Role)}
}

// extractAccessToken honors a fixed transport order: cookie first, then
// Authorization bearer header. Web clients rely on cookies while non-browser
// clients use headers, with no branching on client type.
func extractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}

	return ""
}

func extractRefreshToken(r *http.Request) string {
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return strings.TrimSpace(r.Header.Get(RefreshTokenHeader))
}

func writeGateError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details string) {
	metrics.AuthFailure(code)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:       code,
			Message:    message,
			Details:    details,
			StatusCode: status,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Path:       r.URL.Path,
			Method:     r.Method,
		},
	})
}
