package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"inventory-service/internal/alert"
	"inventory-service/internal/archive"
	"inventory-service/internal/audit"
	"inventory-service/internal/handler"
	mid "inventory-service/internal/middleware"
	"inventory-service/internal/model"
	"inventory-service/internal/service"
	"inventory-service/pkg/config"
	"inventory-service/pkg/database"
	"inventory-service/pkg/jwtutil"
	"inventory-service/pkg/logger"
	"inventory-service/pkg/notify"
	"inventory-service/pkg/qrcode"
	"inventory-service/pkg/scheduler"
	"inventory-service/prometheus"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()

	log.Info("Starting inventory-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig.Metrics.Prefix)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	db, err := database.InitDB(appConfig, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	auditLog, err := audit.NewLogger(db, log,
		audit.WithTrackedFields(model.KindProduct, appConfig.Audit.TrackedFields["product"]...),
		audit.WithTrackedFields(model.KindPackage, appConfig.Audit.TrackedFields["package"]...),
	)
	if err != nil {
		log.Fatal("Invalid audit configuration", zap.Error(err))
	}

	qr, err := qrcode.NewGenerator(appConfig.QR.Dir, appConfig.QR.Size)
	if err != nil {
		log.Fatal("Failed to prepare QR code directory", zap.Error(err))
	}

	signer := jwtutil.NewSigner(appConfig.JWT.SigningKey, time.Duration(appConfig.JWT.ExpirationHours)*time.Hour)

	productEngine := archive.NewProductEngine(db, auditLog, log, nil)
	packageEngine := archive.NewPackageEngine(db, auditLog, log, nil)

	products := service.NewProductService(db, productEngine, auditLog, qr, log, nil)
	packages := service.NewPackageService(db, packageEngine, auditLog, log, nil)
	sellers := service.NewSellerService(db, auditLog, log)
	admins := service.NewAdminService(db, signer, log)

	if err := admins.Seed(context.Background(), appConfig.Seed.AdminEmail, appConfig.Seed.AdminPassword); err != nil {
		log.Fatal("Failed to seed admin account", zap.Error(err))
	}

	alerts := alert.New(db, notify.New(appConfig.SMTP, log), appConfig.Alert, log)

	// Background jobs
	jobs := scheduler.New(log)
	sweepJob := func(sweep func(context.Context, time.Duration) (archive.SweepResult, error)) scheduler.Job {
		return func(ctx context.Context) error {
			res, err := sweep(ctx, appConfig.Archive.Retention)
			if err != nil {
				return err
			}
			logger.Ctx(ctx).Info("Archive sweep finished", zap.Int("deleted", res.Deleted), zap.Int("failed", res.Failed))
			return nil
		}
	}
	for name, j := range map[string]struct {
		spec string
		job  scheduler.Job
	}{
		"stock-alert":           {appConfig.Alert.Spec, alerts.Run},
		"product-archive-sweep": {appConfig.Archive.SweepSpec, sweepJob(productEngine.SweepExpired)},
		"package-archive-sweep": {appConfig.Archive.SweepSpec, sweepJob(packageEngine.SweepExpired)},
	} {
		if err := jobs.Add(name, j.spec, j.job); err != nil {
			log.Fatal("Failed to schedule job", zap.Error(err))
		}
	}
	if appConfig.Alert.RunOnStart {
		jobs.RunNow("stock-alert", alerts.Run)
	}
	jobs.Start()

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(mid.RequestIDMiddleware)
	e.Use(prometheus.MetricsMiddleware)
	e.Use(mid.RequestLogger)

	routes := &handler.Routes{
		Health:   handler.NewHealth(func(ctx context.Context) error { return database.Ping(ctx, db) }),
		Admins:   handler.NewAdmins(admins),
		Products: handler.NewProducts(products),
		Packages: handler.NewPackages(packages),
		Sellers:  handler.NewSellers(sellers),
		Logs:     handler.NewLogs(auditLog),
		Alerts:   handler.NewAlerts(alerts),
	}
	routes.Retention = handler.NewRetention(appConfig.Archive.Retention, map[string]handler.Sweeper{
		string(model.KindProduct): productEngine,
		string(model.KindPackage): packageEngine,
	})
	routes.Register(e, signer)

	// Start server
	go func() {
		port := appConfig.Server.Port
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		appConfig.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				return e.Shutdown(ctx)
			},
			"scheduler": func(ctx context.Context) error {
				return jobs.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	if err := database.Close(db); err != nil {
		log.Error("Failed to close database", zap.Error(err))
	}
	log.Info("Shutdown completed", zap.Int("exit_code", exitCode))
	_ = log.Sync()
	os.Exit(exitCode)
}
