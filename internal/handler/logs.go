package handler

import (
	"net/http"
	"strings"

	"inventory-service/internal/audit"
	"inventory-service/internal/model"

	"github.com/labstack/echo/v4"
)

// Logs serves the audit trail at /api/logs
type Logs struct {
	audit *audit.Logger
}

func NewLogs(l *audit.Logger) *Logs {
	return &Logs{audit: l}
}

// List returns one page of audit entries, newest first
func (h *Logs) List(c echo.Context) error {
	var (
		f   audit.Filter
		err error
	)
	if f.StartDate, err = queryDate(c, "startDate"); err != nil {
		return fail(c, err, "Invalid log filter")
	}
	if f.EndDate, err = queryDate(c, "endDate"); err != nil {
		return fail(c, err, "Invalid log filter")
	}
	if f.AdminID, err = queryUint(c, "adminId"); err != nil {
		return fail(c, err, "Invalid log filter")
	}
	if f.ProductID, err = queryUint(c, "productId"); err != nil {
		return fail(c, err, "Invalid log filter")
	}
	if f.PackageID, err = queryUint(c, "packageId"); err != nil {
		return fail(c, err, "Invalid log filter")
	}
	f.Action = model.Action(strings.ToUpper(strings.TrimSpace(c.QueryParam("action"))))

	p, limit := page(c)
	result, err := h.audit.Query(c.Request().Context(), f, p, limit)
	if err != nil {
		return fail(c, err, "Failed to list logs")
	}
	return c.JSON(http.StatusOK, result)
}
