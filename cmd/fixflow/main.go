package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fixflow-rms/fixflow/internal/app"
	"github.com/fixflow-rms/fixflow/internal/billing"
	"github.com/fixflow-rms/fixflow/internal/catalog/accessories"
	"github.com/fixflow-rms/fixflow/internal/catalog/brands"
	"github.com/fixflow-rms/fixflow/internal/catalog/faults"
	"github.com/fixflow-rms/fixflow/internal/catalog/models"
	"github.com/fixflow-rms/fixflow/internal/catalog/solutions"
	"github.com/fixflow-rms/fixflow/internal/customers"
	"github.com/fixflow-rms/fixflow/internal/dashboard"
	dashboardhttp "github.com/fixflow-rms/fixflow/internal/dashboard/http"
	"github.com/fixflow-rms/fixflow/internal/devices"
	"github.com/fixflow-rms/fixflow/internal/integration"
	"github.com/fixflow-rms/fixflow/internal/inventory"
	"github.com/fixflow-rms/fixflow/internal/platform/cache"
	"github.com/fixflow-rms/fixflow/internal/platform/db"
	"github.com/fixflow-rms/fixflow/internal/repair/orders"
	"github.com/fixflow-rms/fixflow/internal/shared"
	"github.com/fixflow-rms/fixflow/internal/technicians"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(cfg.PGDSN, cfg.MigrationsPath); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, int32(cfg.PGMaxConns))
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	orderRepo := orders.NewRepository(pool)
	sequenceService := shared.NewSequenceService(pool, orderRepo, logger)
	if err := sequenceService.Register(ctx, cfg.OrderSequenceCode, cfg.OrderSequencePrefix); err != nil {
		logger.Error("register order sequence", slog.Any("error", err))
		os.Exit(1)
	}
	if err := billing.RegisterSequences(ctx, sequenceService); err != nil {
		logger.Error("register billing sequences", slog.Any("error", err))
		os.Exit(1)
	}

	billingService := billing.NewService(pool, sequenceService)
	inventoryService := inventory.NewService(pool)
	hooks := integration.NewHooks(billingService, inventoryService)

	dashboardCache := dashboard.NewCache(redisClient, cfg.CacheTTL)
	dashboardService := dashboard.NewService(dashboard.NewRepository(pool), dashboardCache)
	if err := dashboardCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("dashboard cache subscription", slog.Any("error", err))
	}

	orderService := orders.NewService(orderRepo, sequenceService, auditLogger, hooks, dashboardService, logger, orders.ServiceConfig{
		SequenceCode:          cfg.OrderSequenceCode,
		SequencePrefix:        cfg.OrderSequencePrefix,
		Currency:              cfg.Currency,
		RequireLinesOnReady:   cfg.RequireLinesOnReady,
		CostVarianceThreshold: cfg.CostVarianceThreshold,
		TechnicianMaxActive:   cfg.TechnicianMaxActive,
	})

	brandService := brands.NewService(brands.NewRepository(pool))
	modelService := models.NewService(models.NewRepository(pool))
	faultService := faults.NewService(faults.NewRepository(pool))
	accessoryService := accessories.NewService(accessories.NewRepository(pool))
	solutionService := solutions.NewService(solutions.NewRepository(pool))
	customerService := customers.NewService(customers.NewRepository(pool))
	technicianService := technicians.NewService(technicians.NewRepository(pool))
	deviceService := devices.NewService(devices.NewRepository(pool))

	router := app.NewRouter(app.RouterParams{
		Config:            cfg,
		BrandHandler:      brands.NewHandler(logger, brandService),
		ModelHandler:      models.NewHandler(logger, modelService),
		FaultHandler:      faults.NewHandler(logger, faultService),
		AccessoryHandler:  accessories.NewHandler(logger, accessoryService),
		SolutionHandler:   solutions.NewHandler(logger, solutionService),
		CustomerHandler:   customers.NewHandler(logger, customerService),
		TechnicianHandler: technicians.NewHandler(logger, technicianService),
		DeviceHandler:     devices.NewHandler(logger, deviceService),
		OrderHandler:      orders.NewHandler(logger, orderService),
		DashboardHandler:  dashboardhttp.NewHandler(logger, dashboardService),
		Middlewares:       app.MiddlewareStack(app.MiddlewareConfig{Logger: logger, Config: cfg}),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
