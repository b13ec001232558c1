package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fixflow-rms/fixflow/internal/dashboard"
)

// DashboardWarmupJob precomputes the dashboard caches so the first morning
// page load does not pay for the aggregation.
type DashboardWarmupJob struct {
	Dashboard *dashboard.Service
	Logger    *slog.Logger
}

func NewDashboardWarmupJob(dashboardSvc *dashboard.Service, logger *slog.Logger) *DashboardWarmupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardWarmupJob{Dashboard: dashboardSvc, Logger: logger}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard warmup: handler not configured")
	}

	start := time.Now()
	if err := j.Dashboard.Warmup(ctx); err != nil {
		j.Logger.Error("dashboard warmup failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("dashboard warmup complete", slog.Duration("took", time.Since(start)))
	return nil
}
