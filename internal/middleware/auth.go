package middleware

import (
	"context"
	"net/http"
	"strings"

	"inventory-service/pkg/jwtutil"
	"inventory-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AdminExists reports whether the admin behind a token still has an account
type AdminExists func(ctx context.Context, id uint) (bool, error)

// Auth validates the bearer token and stores the admin identity on the context.
// Tokens of deleted admins are rejected even before they expire.
func Auth(signer *jwtutil.Signer, exists AdminExists) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid Authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			claims, err := signer.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid JWT token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			ok, err := exists(c.Request().Context(), claims.AdminID)
			if err != nil {
				log.Error("Failed to look up token admin", zap.Uint("admin_id", claims.AdminID), zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage temporarily unavailable, please retry"})
			}
			if !ok {
				log.Warn("Token admin no longer exists", zap.Uint("admin_id", claims.AdminID))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set("admin_id", claims.AdminID)
			c.Set("email", claims.Email)

			log = log.With(zap.Uint("admin_id", claims.AdminID))
			c.Set("logger", log)
			c.SetRequest(c.Request().WithContext(logger.WithLogger(c.Request().Context(), log)))

			return next(c)
		}
	}
}

// AdminID returns the authenticated admin, false outside Auth
func AdminID(c echo.Context) (uint, bool) {
	id, ok := c.Get("admin_id").(uint)
	return id, ok
}
