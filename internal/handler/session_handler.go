package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-notes-server/internal/middleware"
	"go-notes-server/internal/service"
	"go-notes-server/pkg/apierror"
)

// SessionHandler exposes the multi-device session directory: a user's own
// active devices, and admin views over any user's.
type SessionHandler struct {
	service *service.AuthService
}

func NewSessionHandler(service *service.AuthService) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	records := h.service.ListSessions(r.Context(), auth.UserID)
	writeSuccess(w, http.StatusOK, map[string]any{"sessions": records, "count": len(records)}, nil)
}

func (h *SessionHandler) RevokeOwn(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	revoked := h.service.RevokeAllSessions(r.Context(), auth.UserID)
	writeSuccess(w, http.StatusOK, map[string]any{"revoked": revoked}, nil)
}

func (h *SessionHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	records := h.service.ListSessions(r.Context(), userID)
	writeSuccess(w, http.StatusOK, map[string]any{"sessions": records, "count": len(records)}, nil)
}

// RevokeForUser force-logs a user out of every device. Their tokens stay
// valid until expiry; only the tracked sessions are removed.
func (h *SessionHandler) RevokeForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	revoked := h.service.RevokeAllSessions(r.Context(), userID)
	writeSuccess(w, http.StatusOK, map[string]any{"revoked": revoked}, nil)
}
