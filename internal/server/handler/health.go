package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler reports liveness plus two facts probes care about: which
// mode the process runs in (scan, serve, full) and how long it has been up.
type HealthHandler struct {
	mode    string
	started time.Time
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler; uptime counts from this call.
func NewHealthHandler(mode string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		mode:    mode,
		started: time.Now(),
		logger:  logger,
	}
}

type healthResponse struct {
	Status        string `json:"status"`
	Mode          string `json:"mode"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Time          string `json:"time"`
}

// HealthCheck handles GET /api/health.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Mode:          h.mode,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Time:          time.Now().UTC().Format(time.RFC3339),
	})
}
