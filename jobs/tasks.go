// Package jobs hosts the background workers: dashboard cache warmup and the
// overdue repair scan, both scheduled through Asynq.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup precomputes the dashboard caches.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskOverdueScan flags repairs stuck in progress for too long.
	TaskOverdueScan = "repair:overdue_scan"
)

// OverdueScanPayload configures one overdue scan run.
type OverdueScanPayload struct {
	// AfterDays overrides the configured threshold when positive.
	AfterDays int `json:"after_days,omitempty"`
}

// NewDashboardWarmupTask constructs the warmup task.
func NewDashboardWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskDashboardWarmup, nil)
}

// NewOverdueScanTask constructs an overdue scan task.
func NewOverdueScanTask(payload OverdueScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueScan, data), nil
}
