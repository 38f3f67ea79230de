package handler

import (
	"context"
	"net/http"
	"time"
)

// Version is the service version, overridable at build time.
var Version = "dev"

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler serves liveness and version endpoints.
type HealthHandler struct {
	db      HealthChecker
	started time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now()}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if h.db != nil {
		if err := h.db.Health(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	respondJSON(w, code, map[string]interface{}{
		"status": status,
		"uptime": time.Since(h.started).String(),
	})
}

// VersionInfo handles GET /version.
func (h *HealthHandler) VersionInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "roosterd",
		"version": Version,
	})
}
