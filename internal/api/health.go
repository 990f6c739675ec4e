package api

import (
	"context"
	"net/http"
	"time"

	"github.com/solace-labs/solace-memory/internal/api/respond"
)

// HealthPinger reports whether the remote backend is reachable. The postgres
// store implements it; a nil pinger means the service runs local-only.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	remote HealthPinger
}

// NewHealthHandler builds the handler. remote may be nil when no remote
// backend is configured.
func NewHealthHandler(remote HealthPinger) *HealthHandler {
	return &HealthHandler{remote: remote}
}

// CheckHealth handles GET /api/health.
// Always returns 200; the local tier keeps the service usable even when the
// remote backend is down, so remote state is reported but never fails the
// check.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	backend := "local-only"
	if h.remote != nil {
		backend = "remote"
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.remote.HealthPing(ctx); err != nil {
			backend = "local-fallback"
		}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"backend":   backend,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
