package handlers

import (
	"context"
	"net/http"
	"time"
)

// ServiceName is reported by /health
const ServiceName = "heatmap-api"

// Check reports whether one dependency is usable
type Check func(ctx context.Context) error

// HealthHandler serves liveness and readiness
type HealthHandler struct {
	checks  map[string]Check
	timeout time.Duration
}

// NewHealthHandler creates a health handler; checks run on /ready
func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 3 * time.Second}
}

// Health returns server liveness
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": ServiceName,
	})
}

// Ready runs every check; any failure answers 503
// GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = "not_ready"
			code = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	WriteJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": results,
	})
}
