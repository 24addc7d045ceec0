package handler

import (
	"net/http"
)

// ConnChecker reports whether an optional dependency is connected.
type ConnChecker interface {
	IsConnected() bool
}

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	mirror ConnChecker
}

// NewHealthHandler creates a health handler. mirror is nil when the
// activity mirror is disabled.
func NewHealthHandler(mirror ConnChecker) *HealthHandler {
	return &HealthHandler{mirror: mirror}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready handles GET /ready. The inbox itself is in memory, so only a
// configured but disconnected mirror makes it unready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	mirror := "disabled"
	if h.mirror != nil {
		mirror = "connected"
		if !h.mirror.IsConnected() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":          "not ready",
				"activity_mirror": "disconnected",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":          "ready",
		"activity_mirror": mirror,
	})
}
