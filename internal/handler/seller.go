package handler

import (
	"net/http"

	"inventory-service/internal/service"
	"inventory-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SellerRequest defines the structure for seller creation/update requests
type SellerRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Phone string `json:"phone" validate:"max=30"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (r SellerRequest) input() service.SellerInput {
	return service.SellerInput{Name: r.Name, Phone: r.Phone, Email: r.Email}
}

// Sellers serves /api/sellers
type Sellers struct {
	svc *service.SellerService
}

func NewSellers(svc *service.SellerService) *Sellers {
	return &Sellers{svc: svc}
}

func (h *Sellers) List(c echo.Context) error {
	p, limit := page(c)
	result, err := h.svc.List(c.Request().Context(), c.QueryParam("search"), p, limit)
	if err != nil {
		return fail(c, err, "Failed to list sellers")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Sellers) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid seller id")
	}
	seller, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, "Failed to get seller")
	}
	return c.JSON(http.StatusOK, seller)
}

func (h *Sellers) Create(c echo.Context) error {
	var req SellerRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid seller request")
	}
	seller, err := h.svc.Create(c.Request().Context(), req.input())
	if err != nil {
		return fail(c, err, "Failed to create seller")
	}
	return c.JSON(http.StatusCreated, seller)
}

func (h *Sellers) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid seller id")
	}
	var req SellerRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid seller request")
	}
	seller, err := h.svc.Update(c.Request().Context(), id, req.input())
	if err != nil {
		return fail(c, err, "Failed to update seller")
	}
	return c.JSON(http.StatusOK, seller)
}

// Delete removes the seller and, through the foreign key, every package they own
func (h *Sellers) Delete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid seller id")
	}
	if err := h.svc.Delete(c.Request().Context(), adminID(c), id); err != nil {
		return fail(c, err, "Failed to delete seller")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Seller deleted successfully"})
}

// Cashout pays out the seller balance and removes the claimed packages
func (h *Sellers) Cashout(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid seller id")
	}
	result, err := h.svc.Cashout(c.Request().Context(), adminID(c), id)
	if err != nil {
		return fail(c, err, "Failed to cash out seller")
	}

	logger.FromContext(c).Info("Seller cashed out",
		zap.Uint("seller_id", id),
		zap.String("amount", result.Amount.StringFixed(2)),
		zap.Int("removed_packages", result.RemovedPackages))
	return c.JSON(http.StatusOK, result)
}
