package handler

import (
	"context"
	"net/http"
	"time"

	"inventory-service/internal/archive"
	"inventory-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Pinger reports whether the store answers
type Pinger func(ctx context.Context) error

// Health serves /health
type Health struct {
	ping Pinger
}

func NewHealth(ping Pinger) *Health {
	return &Health{ping: ping}
}

func (h *Health) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.ping(ctx); err != nil {
		logger.FromContext(c).Error("Health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "database": "down"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "database": "up"})
}

// Sweeper removes archived records past retention
type Sweeper interface {
	SweepExpired(ctx context.Context, retention time.Duration) (archive.SweepResult, error)
}

// Retention serves the manual trigger of the retention sweep
type Retention struct {
	sweepers  map[string]Sweeper
	retention time.Duration
}

func NewRetention(retention time.Duration, sweepers map[string]Sweeper) *Retention {
	return &Retention{sweepers: sweepers, retention: retention}
}

// Sweep runs every sweeper once and reports the per entity counts
func (h *Retention) Sweep(c echo.Context) error {
	out := make(map[string]archive.SweepResult, len(h.sweepers))
	for entity, s := range h.sweepers {
		res, err := s.SweepExpired(c.Request().Context(), h.retention)
		if err != nil {
			return fail(c, err, "Archive sweep failed")
		}
		out[entity] = res
	}
	return c.JSON(http.StatusOK, out)
}
