package handler

import (
	"net/http"

	"inventory-service/internal/service"
	"inventory-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// LoginRequest defines the structure for login requests
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AdminRequest defines the structure for admin creation requests
type AdminRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Admins serves /auth/login and /api/admins
type Admins struct {
	svc *service.AdminService
}

func NewAdmins(svc *service.AdminService) *Admins {
	return &Admins{svc: svc}
}

// Login exchanges credentials for a bearer token
func (h *Admins) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid login request")
	}
	result, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, err, "Login failed")
	}

	logger.FromContext(c).Info("Admin logged in", zap.Uint("admin_id", result.Admin.ID))
	return c.JSON(http.StatusOK, result)
}

func (h *Admins) List(c echo.Context) error {
	p, limit := page(c)
	result, err := h.svc.List(c.Request().Context(), p, limit)
	if err != nil {
		return fail(c, err, "Failed to list admins")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Admins) Create(c echo.Context) error {
	var req AdminRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid admin request")
	}
	admin, err := h.svc.Create(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, err, "Failed to create admin")
	}
	return c.JSON(http.StatusCreated, admin)
}

// Delete refuses to remove an admin that audit entries still point at
func (h *Admins) Delete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid admin id")
	}
	if id == adminID(c) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot delete the signed in admin"})
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err, "Failed to delete admin")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Admin deleted successfully"})
}
