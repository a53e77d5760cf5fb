package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recovery is the single top-level catch for unexpected panics. It logs the
// stack and answers a generic 500; internals never leak into the response.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				slog.Error("panic recovered", "error", fmt.Sprintf("%v", recovered), "stack", string(debug.Stack()))
				writeGateError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected server error", "")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
