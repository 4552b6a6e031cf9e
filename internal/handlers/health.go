package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aawaaz/ehs-server/internal/models"
)

const version = "1.0.0"

var startTime = time.Now()

// Pinger checks a backing service
type Pinger func(ctx context.Context) error

// HealthHandler provides health check endpoints
type HealthHandler struct {
	db     Pinger
	redis  Pinger
	logger *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler. A nil pinger reports the
// dependency as not configured.
func NewHealthHandler(db, redis Pinger, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, logger: logger}
}

// Check handles GET /api/v1/health (liveness probe)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Version: version,
		Uptime:  time.Since(startTime).String(),
	})
}

// Ready handles GET /api/v1/health/ready (readiness probe)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		Status:   "ready",
		Version:  version,
		Uptime:   time.Since(startTime).String(),
		Database: h.probe(r.Context(), "database", h.db),
		Redis:    h.probe(r.Context(), "redis", h.redis),
	}
	if status.Database == "disconnected" || status.Redis == "disconnected" {
		status.Status = "not ready"
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (h *HealthHandler) probe(ctx context.Context, name string, ping Pinger) string {
	if ping == nil {
		return "not configured"
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := ping(ctx); err != nil {
		h.logger.Warnw("Readiness probe failed", "dependency", name, "error", err)
		return "disconnected"
	}
	return "connected"
}
