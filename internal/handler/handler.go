package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"inventory-service/internal/archive"
	"inventory-service/internal/audit"
	"inventory-service/internal/repository"
	"inventory-service/internal/service"
	"inventory-service/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Validator plugs go-playground/validator into echo's c.Validate
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// bind decodes and validates the request body into req
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return &service.ValidationError{Msg: "invalid request data"}
	}
	if err := c.Validate(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return &service.ValidationError{Msg: "invalid value for " + f.Field() + " (" + f.Tag() + ")"}
		}
		return &service.ValidationError{Msg: err.Error()}
	}
	return nil
}

// adminID returns the authenticated admin set by the auth middleware
func adminID(c echo.Context) uint {
	id, _ := c.Get("admin_id").(uint)
	return id
}

func paramID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &service.ValidationError{Msg: "invalid id"}
	}
	return uint(id), nil
}

func queryUint(c echo.Context, name string) (*uint, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, &service.ValidationError{Msg: "invalid " + name}
	}
	u := uint(v)
	return &u, nil
}

func queryBool(c echo.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &service.ValidationError{Msg: "invalid " + name}
	}
	return &v, nil
}

func queryDate(c echo.Context, name string) (*time.Time, error) {
	return parseDate(c.QueryParam(name), name)
}

func parseDate(raw, name string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, &service.ValidationError{Msg: "invalid " + name + ", expected YYYY-MM-DD"}
}

// status maps the error taxonomy onto HTTP responses
func status(err error) (int, string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Msg
	case errors.Is(err, audit.ErrInvalidFilter):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, archive.ErrAlreadyArchived):
		return http.StatusConflict, "already archived"
	case errors.Is(err, archive.ErrNotArchived):
		return http.StatusConflict, "not archived"
	case errors.Is(err, archive.ErrStockNotEmpty):
		return http.StatusConflict, "cannot delete a product that still has stock"
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict, "already exists"
	case errors.Is(err, repository.ErrReferenceViolation):
		return http.StatusConflict, "referenced record is missing or still in use"
	case errors.Is(err, repository.ErrTransientStore):
		return http.StatusServiceUnavailable, "storage temporarily unavailable, please retry"
	}
	return http.StatusInternalServerError, "internal server error"
}

// fail logs err at a level matching its kind and writes the error response
func fail(c echo.Context, err error, msg string) error {
	log := logger.FromContext(c)
	code, detail := status(err)
	if code >= http.StatusInternalServerError {
		log.Error(msg, zap.Error(err))
	} else {
		log.Warn(msg, zap.Int("status", code), zap.Error(err))
	}
	return c.JSON(code, echo.Map{"error": detail})
}

// page parses the page/limit query values
func page(c echo.Context) (int, int) {
	return repository.ParsePage(c.QueryParam("page"), c.QueryParam("limit"), repository.DefaultPageSize)
}
