package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/KiiTuNp/SUPERvote/internal/adapter/dto/common"
)

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

// Health reports service liveness together with its dependencies
type Health struct {
	environment string
	checks      map[string]HealthCheck
	timeout     time.Duration
	logger      *zap.Logger
}

// NewHealthHandler creates a health handler. checks may be empty.
func NewHealthHandler(environment string, checks map[string]HealthCheck, logger *zap.Logger) *Health {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Health{
		environment: environment,
		checks:      checks,
		timeout:     2 * time.Second,
		logger:      logger.Named("health"),
	}
}

// Check handles GET /health
func (h *Health) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	resp := common.HealthResponse{
		Status:      "ok",
		Environment: h.environment,
		Checks:      make(map[string]string, len(h.checks)),
		Time:        time.Now().UTC(),
	}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("health.check.failed", zap.String("dependency", name), zap.Error(err))
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	return c.JSON(status, resp)
}
