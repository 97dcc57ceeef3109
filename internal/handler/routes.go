package handler

import (
	"inventory-service/internal/middleware"
	"inventory-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes bundles the handlers mounted on the echo instance
type Routes struct {
	Health    *Health
	Admins    *Admins
	Products  *Products
	Packages  *Packages
	Sellers   *Sellers
	Logs      *Logs
	Alerts    *Alerts
	Retention *Retention
}

// Register mounts every route. Everything under /api requires a bearer token
// of an admin that still exists.
func (r *Routes) Register(e *echo.Echo, signer *jwtutil.Signer) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", r.Health.Check)
	e.POST("/auth/login", r.Admins.Login)

	api := e.Group("/api", middleware.Auth(signer, r.Admins.svc.Exists))

	products := api.Group("/products")
	products.GET("", r.Products.List)
	products.POST("", r.Products.Create)
	products.GET("/:id", r.Products.Get)
	products.PUT("/:id", r.Products.Update)
	products.DELETE("/:id", r.Products.Archive)
	products.DELETE("/:id/permanent", r.Products.Purge)
	products.POST("/:id/archive", r.Products.Archive)
	products.POST("/:id/unarchive", r.Products.Unarchive)
	products.POST("/:id/qrcode", r.Products.RegenerateQR)
	products.GET("/:id/qrcode", r.Products.QRImage)

	packages := api.Group("/packages")
	packages.GET("", r.Packages.List)
	packages.POST("", r.Packages.Create)
	packages.GET("/:id", r.Packages.Get)
	packages.PUT("/:id", r.Packages.Update)
	packages.DELETE("/:id", r.Packages.Archive)
	packages.DELETE("/:id/permanent", r.Packages.Purge)
	packages.POST("/:id/archive", r.Packages.Archive)
	packages.POST("/:id/unarchive", r.Packages.Unarchive)

	sellers := api.Group("/sellers")
	sellers.GET("", r.Sellers.List)
	sellers.POST("", r.Sellers.Create)
	sellers.GET("/:id", r.Sellers.Get)
	sellers.PUT("/:id", r.Sellers.Update)
	sellers.DELETE("/:id", r.Sellers.Delete)
	sellers.POST("/:id/cashout", r.Sellers.Cashout)

	admins := api.Group("/admins")
	admins.GET("", r.Admins.List)
	admins.POST("", r.Admins.Create)
	admins.DELETE("/:id", r.Admins.Delete)

	api.GET("/logs", r.Logs.List)
	api.POST("/alerts/check", r.Alerts.Check)
	api.POST("/archive/sweep", r.Retention.Sweep)
}
