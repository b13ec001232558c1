package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/fixflow-rms/fixflow/internal/app"
	"github.com/fixflow-rms/fixflow/internal/dashboard"
	"github.com/fixflow-rms/fixflow/internal/platform/cache"
	"github.com/fixflow-rms/fixflow/internal/platform/db"
	"github.com/fixflow-rms/fixflow/internal/shared"
	"github.com/fixflow-rms/fixflow/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	// "worker enqueue <task>" pushes a single task and exits, for ad-hoc
	// runs outside the cron schedule.
	if len(os.Args) > 1 && os.Args[1] == "enqueue" {
		if len(os.Args) < 3 {
			logger.Error("usage: worker enqueue <warmup|overdue-scan>")
			os.Exit(2)
		}
		if err := enqueue(ctx, cfg, logger, os.Args[2]); err != nil {
			logger.Error("enqueue task", slog.Any("error", err))
			os.Exit(1)
		}
		return
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

	dashboardCache := dashboard.NewCache(redisClient, cfg.CacheTTL)
	dashboardService := dashboard.NewService(dashboard.NewRepository(pool), dashboardCache)
	auditLogger := shared.NewAuditLogger(pool)

	warmupJob := jobs.NewDashboardWarmupJob(dashboardService, logger)
	overdueJob := jobs.NewOverdueScanJob(pool, auditLogger, logger, cfg.OverdueAfterDays)

	overdueTask, err := jobs.NewOverdueScanTask(jobs.OverdueScanPayload{})
	if err != nil {
		logger.Error("build overdue task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDashboardWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskOverdueScan, Handler: overdueJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/30 * * * *", Task: jobs.NewDashboardWarmupTask()},
			{Spec: "0 6 * * *", Task: overdueTask},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func enqueue(ctx context.Context, cfg *app.Config, logger *slog.Logger, name string) error {
	client := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("close asynq client", slog.Any("error", err))
		}
	}()

	var (
		info *asynq.TaskInfo
		err  error
	)
	switch name {
	case "warmup":
		info, err = client.EnqueueDashboardWarmup(ctx)
	case "overdue-scan":
		info, err = client.EnqueueOverdueScan(ctx, jobs.OverdueScanPayload{AfterDays: cfg.OverdueAfterDays})
	default:
		return fmt.Errorf("unknown task %q", name)
	}
	if err != nil {
		return err
	}
	logger.Info("task enqueued", slog.String("task", info.Type), slog.String("id", info.ID))
	return nil
}
