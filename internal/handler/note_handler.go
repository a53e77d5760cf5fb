package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-notes-server/internal/middleware"
	"go-notes-server/internal/model"
	"go-notes-server/internal/service"
	"go-notes-server/pkg/apierror"
)

type NoteHandler struct {
	service *service.NoteService
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{service: service}
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	notes, err := h.service.List(r.Context(), auth.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, notes, nil)
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	var payload model.NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	note, err := h.service.Create(r.Context(), auth.UserID, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, note, nil)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	note, err := h.service.Get(r.Context(), auth.UserID, chi.URLParam(r, "note_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, note, nil)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	var payload model.NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	note, err := h.service.Update(r.Context(), auth.UserID, chi.URLParam(r, "note_id"), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, note, nil)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		writeError(w, r, apierror.New("UNAUTHORIZED", "authentication required", "", http.StatusUnauthorized))
		return
	}

	if err := h.service.Delete(r.Context(), auth.UserID, chi.URLParam(r, "note_id")); err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
