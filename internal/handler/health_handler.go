package handler

import (
	"context"
	"net/http"
	"time"

	"go-notes-server/internal/cache"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness plus the state of the two backing stores.
// A degraded cache does not fail the check; the service runs without it.
type HealthHandler struct {
	db    pinger
	store cache.Store
}

func NewHealthHandler(db pinger, store cache.Store) *HealthHandler {
	return &HealthHandler{db: db, store: store}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	overall := "ok"
	dbState := "up"
	if h.db == nil {
		dbState = "unconfigured"
	} else if err := h.db.Ping(ctx); err != nil {
		dbState = "down"
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	cacheState := "up"
	if h.store == nil {
		cacheState = "unconfigured"
	} else if !h.store.Exists(ctx, "health:probe") {
		// Exists on a missing key is a clean false; only treat the probe as
		// degraded when a write also fails.
		if !h.store.Set(ctx, "health:probe", "ok", 10*time.Second) {
			cacheState = "degraded"
		}
	}

	writeSuccess(w, status, map[string]any{
		"status":    overall,
		"database":  dbState,
		"cache":     cacheState,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, nil)
}
