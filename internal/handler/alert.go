package handler

import (
	"context"
	"net/http"
	"time"

	"inventory-service/internal/alert"

	"github.com/labstack/echo/v4"
)

// AlertChecker evaluates stock and expiry alerts on demand
type AlertChecker interface {
	CheckAndNotify(ctx context.Context, now time.Time) alert.Result
}

// Alerts serves /api/alerts
type Alerts struct {
	checker AlertChecker
	now     func() time.Time
}

func NewAlerts(checker AlertChecker) *Alerts {
	return &Alerts{checker: checker, now: func() time.Time { return time.Now().UTC() }}
}

// Check runs the alert evaluation now. Cooldown still applies.
func (h *Alerts) Check(c echo.Context) error {
	res := h.checker.CheckAndNotify(c.Request().Context(), h.now())
	if res.Reason == alert.ReasonCheckFailed {
		return fail(c, res.Err, "Alert check failed")
	}

	message := res.Reason
	if res.Sent {
		message = "Alert sent"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":       res.Sent,
		"message":       message,
		"kind":          res.Kind,
		"lowStockCount": res.LowStockCount,
		"expiringCount": res.ExpiringCount,
		"products":      res.Products,
	})
}
