package handler

import (
	"net/http"
	"strings"

	"inventory-service/internal/service"
	"inventory-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest defines the structure for product creation/update requests
type ProductRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	RetailPrice decimal.Decimal `json:"retailPrice"`
	BuyingPrice decimal.Decimal `json:"buyingPrice"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category" validate:"max=100"`
	ExpiryDate  string          `json:"expiryDate"`
}

func (r ProductRequest) input() (service.ProductInput, error) {
	expiry, err := parseDate(r.ExpiryDate, "expiryDate")
	if err != nil {
		return service.ProductInput{}, err
	}
	return service.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		RetailPrice: r.RetailPrice,
		BuyingPrice: r.BuyingPrice,
		Stock:       r.Stock,
		Category:    r.Category,
		ExpiryDate:  expiry,
	}, nil
}

// ArchiveRequest carries the optional archive reason
type ArchiveRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

// Products serves /api/products
type Products struct {
	svc *service.ProductService
}

func NewProducts(svc *service.ProductService) *Products {
	return &Products{svc: svc}
}

// List handles product listing with search, category and archived filters
func (h *Products) List(c echo.Context) error {
	archived, err := queryBool(c, "archived")
	if err != nil {
		return fail(c, err, "Invalid product filter")
	}
	p, limit := page(c)
	result, err := h.svc.List(c.Request().Context(), service.ProductFilter{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		Archived: archived,
	}, p, limit)
	if err != nil {
		return fail(c, err, "Failed to list products")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Products) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid product id")
	}
	product, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, "Failed to get product")
	}
	return c.JSON(http.StatusOK, product)
}

func (h *Products) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req ProductRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid product request")
	}
	in, err := req.input()
	if err != nil {
		return fail(c, err, "Invalid product request")
	}

	product, err := h.svc.Create(c.Request().Context(), adminID(c), in)
	if err != nil {
		return fail(c, err, "Failed to create product")
	}

	log.Info("Product created", zap.Uint("product_id", product.ID), zap.String("name", product.Name))
	return c.JSON(http.StatusCreated, product)
}

func (h *Products) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid product id")
	}
	var req ProductRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid product request")
	}
	in, err := req.input()
	if err != nil {
		return fail(c, err, "Invalid product request")
	}

	product, err := h.svc.Update(c.Request().Context(), adminID(c), id, in)
	if err != nil {
		return fail(c, err, "Failed to update product")
	}
	return c.JSON(http.StatusOK, product)
}

// Archive soft deletes the product. DELETE /:id lands here too, with the default reason.
func (h *Products) Archive(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid product id")
	}
	reason, err := archiveReason(c)
	if err != nil {
		return fail(c, err, "Invalid archive request")
	}
	product, err := h.svc.Archive(c.Request().Context(), adminID(c), id, reason)
	if err != nil {
		return fail(c, err, "Failed to archive product")
	}
	return c.JSON(http.StatusOK, product)
}

func (h *Products) Unarchive(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid product id")
	}
	product, err := h.svc.Unarchive(c.Request().Context(), adminID(c), id)
	if err != nil {
		return fail(c, err, "Failed to unarchive product")
	}
	return c.JSON(http.StatusOK, product)
}

func (h *Products) Purge(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid product id")
	}
	if _, err := h.svc.Purge(c.Request().Context(), adminID(c), id); err != nil {
		return fail(c, err, "Failed to delete product")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product permanently deleted"})
}

// RegenerateQR rewrites the product's QR image
func (h *Products) RegenerateQR(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid product id")
	}
	product, err := h.svc.RegenerateQR(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, "Failed to regenerate QR code")
	}
	return c.JSON(http.StatusOK, product)
}

// QRImage serves the stored PNG
func (h *Products) QRImage(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid product id")
	}
	product, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, "Failed to get product")
	}
	if product.QRPath == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no QR code for this product"})
	}
	return c.File(product.QRPath)
}

// archiveReason reads the optional body. An empty reason gets the engine default.
func archiveReason(c echo.Context) (string, error) {
	var req ArchiveRequest
	if err := bind(c, &req); err != nil {
		return "", err
	}
	return strings.TrimSpace(req.Reason), nil
}
