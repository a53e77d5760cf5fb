package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go-notes-server/internal/model"
	"go-notes-server/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// writeError funnels every handler failure into the standard envelope.
// Unclassified errors become a generic 500 with no internals leaked.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"
	message := "Unexpected server error"
	details := ""

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		code = apiErr.Code
		message = apiErr.Message
		details = apiErr.Details
	case errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
		code = "NOT_FOUND"
		message = "User not found"
	case errors.Is(err, model.ErrUserAlreadyExists):
		status = http.StatusConflict
		code = "ALREADY_EXISTS"
		message = "User already exists"
	case errors.Is(err, model.ErrInvalidCredentials):
		status = http.StatusBadRequest
		code = "INVALID_CREDENTIALS"
		message = "Invalid email or password"
	case errors.Is(err, model.ErrNoteNotFound):
		status = http.StatusNotFound
		code = "NOT_FOUND"
		message = "Note not found"
	case errors.Is(err, model.ErrUnauthorized):
		status = http.StatusUnauthorized
		code = "UNAUTHORIZED"
		message = "Authentication required"
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
		code = "FORBIDDEN"
		message = "Access denied"
	case errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
		code = "BAD_REQUEST"
		message = "Invalid input"
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

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
