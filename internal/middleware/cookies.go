package middleware

import (
	"net/http"
	"time"
)

// Cookie and header names of the dual credential transport. Browser clients
// ride on the httpOnly cookies; header-based clients mirror tokens through
// the X-New-* response headers after a transparent refresh.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
	SessionIDCookie    = "sessionId"

	NewAccessTokenHeader  = "X-New-Access-Token"
	NewRefreshTokenHeader = "X-New-Refresh-Token"
	RefreshTokenHeader    = "X-Refresh-Token"
)

func authCookie(name string, value string, maxAge time.Duration, secure bool) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}

	if value == "" {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(maxAge.Seconds())
	}

	return cookie
}

// SetAuthCookies writes both token cookies. Always set as a pair; a lone
// access cookie would desynchronize the two lifetimes.
func SetAuthCookies(w http.ResponseWriter, accessToken string, refreshToken string, accessTTL time.Duration, refreshTTL time.Duration, secure bool) {
	http.SetCookie(w, authCookie(AccessTokenCookie, accessToken, accessTTL, secure))
	http.SetCookie(w, authCookie(RefreshTokenCookie, refreshToken, refreshTTL, secure))
}

func ClearAuthCookies(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, authCookie(AccessTokenCookie, "", 0, secure))
	http.SetCookie(w, authCookie(RefreshTokenCookie, "", 0, secure))
}

func SetSessionCookie(w http.ResponseWriter, sessionID string, ttl time.Duration, secure bool) {
	http.SetCookie(w, authCookie(SessionIDCookie, sessionID, ttl, secure))
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, authCookie(SessionIDCookie, "", 0, secure))
}
