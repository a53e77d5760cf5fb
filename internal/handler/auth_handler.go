package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go-notes-server/internal/middleware"
	"go-notes-server/internal/model"
	"go-notes-server/internal/service"
	"go-notes-server/pkg/apierror"
)

type AuthHandler struct {
	service       *service.AuthService
	secureCookies bool
}

func NewAuthHandler(service *service.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookies: secureCookies}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	principal, err := h.service.Register(r.Context(), payload.Email, payload.DisplayName, payload.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, principal, nil)
}

// Login issues the token pair in the body and as httpOnly cookies, plus a
// session cookie used only for logout bookkeeping.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	pair, sessionID, err := h.service.Login(r.Context(), payload.Email, payload.Password, clientIP(r), r.UserAgent())
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.SetAuthCookies(w, pair.AccessToken, pair.RefreshToken, h.service.AccessTTL(), h.service.RefreshTTL(), h.secureCookies)
	if sessionID != "" {
		middleware.SetSessionCookie(w, sessionID, h.service.SessionTTL(), h.secureCookies)
	}

	writeSuccess(w, http.StatusOK, pair, nil)
}

// Refresh accepts the refresh token from the cookie first, then the body,
// mirroring the gate's transport order.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	refreshToken := ""
	if cookie, err := r.Cookie(middleware.RefreshTokenCookie); err == nil && cookie.Value != "" {
		refreshToken = cookie.Value
	} else {
		var payload model.RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			refreshToken = strings.TrimSpace(payload.RefreshToken)
		}
	}

	if refreshToken == "" {
		writeError(w, r, apierror.New(apierror.CodeSessionExpired, "no refresh token presented", "", http.StatusUnauthorized))
		return
	}

	pair, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		middleware.ClearAuthCookies(w, h.secureCookies)
		writeError(w, r, err)
		return
	}

	middleware.SetAuthCookies(w, pair.AccessToken, pair.RefreshToken, h.service.AccessTTL(), h.service.RefreshTTL(), h.secureCookies)
	writeSuccess(w, http.StatusOK, pair, nil)
}

// Logout always succeeds locally: cookies are cleared and the device's
// session record is dropped when known.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionIDCookie); err == nil {
		h.service.Logout(r.Context(), cookie.Value)
	}

	middleware.ClearAuthCookies(w, h.secureCookies)
	middleware.ClearSessionCookie(w, h.secureCookies)
	writeSuccess(w, http.StatusOK, map[string]any{"message": "logged out"}, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	principal, err := h.service.GetUserByID(r.Context(), auth.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"user": principal}, nil)
}

func clientIP(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	return r.RemoteAddr
}
