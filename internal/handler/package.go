package handler

import (
	"errors"
	"net/http"

	"inventory-service/internal/model"
	"inventory-service/internal/repository"
	"inventory-service/internal/service"
	"inventory-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PackageRequest defines the structure for package creation/update requests
type PackageRequest struct {
	SellerID      uint            `json:"sellerId" validate:"required"`
	PackageName   string          `json:"packageName" validate:"required,max=255"`
	BuyerName     string          `json:"buyerName" validate:"required,max=255"`
	DropOffDate   string          `json:"dropOffDate"`
	Size          string          `json:"size" validate:"required,oneof=S M L"`
	Price         decimal.Decimal `json:"price"`
	HandlingFee   decimal.Decimal `json:"handlingFee"`
	PaymentStatus string          `json:"paymentStatus" validate:"omitempty,oneof=paid unpaid"`
	PaymentMethod string          `json:"paymentMethod" validate:"omitempty,oneof=cash gcash"`
	ClaimStatus   string          `json:"claimStatus" validate:"omitempty,oneof=claimed unclaimed"`
}

func (r PackageRequest) input() (service.PackageInput, error) {
	dropOff, err := parseDate(r.DropOffDate, "dropOffDate")
	if err != nil {
		return service.PackageInput{}, err
	}
	in := service.PackageInput{
		SellerID:      r.SellerID,
		PackageName:   r.PackageName,
		BuyerName:     r.BuyerName,
		Size:          model.PackageSize(r.Size),
		Price:         r.Price,
		HandlingFee:   r.HandlingFee,
		PaymentStatus: model.PaymentStatus(r.PaymentStatus),
		PaymentMethod: model.PaymentMethod(r.PaymentMethod),
		ClaimStatus:   model.ClaimStatus(r.ClaimStatus),
	}
	if dropOff != nil {
		in.DropOffDate = *dropOff
	}
	return in, nil
}

// Packages serves /api/packages
type Packages struct {
	svc *service.PackageService
}

func NewPackages(svc *service.PackageService) *Packages {
	return &Packages{svc: svc}
}

func (h *Packages) List(c echo.Context) error {
	archived, err := queryBool(c, "archived")
	if err != nil {
		return fail(c, err, "Invalid package filter")
	}
	sellerID, err := queryUint(c, "sellerId")
	if err != nil {
		return fail(c, err, "Invalid package filter")
	}
	f := service.PackageFilter{
		Search:        c.QueryParam("search"),
		ClaimStatus:   model.ClaimStatus(c.QueryParam("claimStatus")),
		PaymentStatus: model.PaymentStatus(c.QueryParam("paymentStatus")),
		Archived:      archived,
	}
	if sellerID != nil {
		f.SellerID = *sellerID
	}

	p, limit := page(c)
	result, err := h.svc.List(c.Request().Context(), f, p, limit)
	if err != nil {
		return fail(c, err, "Failed to list packages")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Packages) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid package id")
	}
	pkg, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, "Failed to get package")
	}
	return c.JSON(http.StatusOK, pkg)
}

func (h *Packages) Create(c echo.Context) error {
	var req PackageRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid package request")
	}
	in, err := req.input()
	if err != nil {
		return fail(c, err, "Invalid package request")
	}

	pkg, err := h.svc.Create(c.Request().Context(), adminID(c), in)
	if errors.Is(err, repository.ErrReferenceViolation) {
		logger.FromContext(c).Warn("Package references an unknown seller", zap.Uint("seller_id", in.SellerID))
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "seller does not exist"})
	}
	if err != nil {
		return fail(c, err, "Failed to create package")
	}
	return c.JSON(http.StatusCreated, pkg)
}

func (h *Packages) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid package id")
	}
	var req PackageRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err, "Invalid package request")
	}
	in, err := req.input()
	if err != nil {
		return fail(c, err, "Invalid package request")
	}

	pkg, err := h.svc.Update(c.Request().Context(), adminID(c), id, in)
	if errors.Is(err, repository.ErrReferenceViolation) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "seller does not exist"})
	}
	if err != nil {
		return fail(c, err, "Failed to update package")
	}
	return c.JSON(http.StatusOK, pkg)
}

func (h *Packages) Archive(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid package id")
	}
	reason, err := archiveReason(c)
	if err != nil {
		return fail(c, err, "Invalid archive request")
	}
	pkg, err := h.svc.Archive(c.Request().Context(), adminID(c), id, reason)
	if err != nil {
		return fail(c, err, "Failed to archive package")
	}
	return c.JSON(http.StatusOK, pkg)
}

func (h *Packages) Unarchive(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid package id")
	}
	pkg, err := h.svc.Unarchive(c.Request().Context(), adminID(c), id)
	if err != nil {
		return fail(c, err, "Failed to unarchive package")
	}
	return c.JSON(http.StatusOK, pkg)
}

func (h *Packages) Purge(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err, "Invalid package id")
	}
	if _, err := h.svc.Purge(c.Request().Context(), adminID(c), id); err != nil {
		return fail(c, err, "Failed to delete package")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Package permanently deleted"})
}
