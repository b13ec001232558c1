package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixflow-rms/fixflow/internal/shared"
)

// OverdueScanJob records soft warnings for repairs that have been in
// progress longer than the configured number of days. Warnings never touch
// the order itself.
type OverdueScanJob struct {
	Pool      *pgxpool.Pool
	Audit     *shared.AuditLogger
	Logger    *slog.Logger
	AfterDays int
	clock     func() time.Time
}

func NewOverdueScanJob(pool *pgxpool.Pool, audit *shared.AuditLogger, logger *slog.Logger, afterDays int) *OverdueScanJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &OverdueScanJob{
		Pool:      pool,
		Audit:     audit,
		Logger:    logger,
		AfterDays: afterDays,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes one overdue scan.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil || j.Audit == nil {
		return errors.New("overdue scan: handler not configured")
	}

	var payload OverdueScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	afterDays := j.AfterDays
	if payload.AfterDays > 0 {
		afterDays = payload.AfterDays
	}
	if afterDays <= 0 {
		afterDays = 7
	}

	cutoff := j.clock().AddDate(0, 0, -afterDays)
	rows, err := j.Pool.Query(ctx, `
		SELECT id, reference, started_at
		FROM repair_orders
		WHERE status = 'in_progress' AND started_at IS NOT NULL AND started_at < $1
		ORDER BY started_at`, cutoff)
	if err != nil {
		j.Logger.Error("overdue scan query failed", slog.Any("error", err))
		return err
	}
	defer rows.Close()

	flagged := 0
	for rows.Next() {
		var (
			id        int64
			reference string
			startedAt time.Time
		)
		if err := rows.Scan(&id, &reference, &startedAt); err != nil {
			return err
		}
		warnErr := j.Audit.Warn(ctx, "repair_order", strconv.FormatInt(id, 10),
			"repair has been in progress beyond the overdue threshold", map[string]any{
				"reference":  reference,
				"started_at": startedAt.Format(time.RFC3339),
				"after_days": afterDays,
			})
		if warnErr != nil {
			j.Logger.Warn("overdue warning failed", slog.Int64("order_id", id), slog.Any("error", warnErr))
			continue
		}
		flagged++
	}
	if err := rows.Err(); err != nil {
		return err
	}

	j.Logger.Info("overdue scan complete", slog.Int("flagged", flagged), slog.Int("after_days", afterDays))
	return nil
}
