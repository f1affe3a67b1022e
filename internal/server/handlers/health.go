package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	deps   map[string]Pinger
	logger *zap.Logger
}

func NewHealthHandler(deps map[string]Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{deps: deps, logger: logger}
}

// Check handles GET /health. Any failing dependency makes the whole check 503.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.deps))
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "healthy"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	respondJSON(w, h.logger, status, map[string]interface{}{
		"status": overall,
		"checks": checks,
	})
}
