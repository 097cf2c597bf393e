package service

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/speakwell/analysis-pipeline/pkg/metrics"
)

type StuckLister interface {
	ListStuck(ctx context.Context, olderThan time.Duration) ([]AnalysisView, error)
}

// StuckMonitor reports pending or processing tasks that have not moved for a while.
// It only observes: recovery is left to the queue's rescuer and the claim guard.
type StuckMonitor struct {
	lister   StuckLister
	interval time.Duration
	after    time.Duration
}

func NewStuckMonitor(lister StuckLister, interval, after time.Duration) *StuckMonitor {
	return &StuckMonitor{lister: lister, interval: interval, after: after}
}

// Run checks on a jittered ticker until ctx is done.
func (m *StuckMonitor) Run(ctx context.Context) error {
	ticker := jitterbug.New(m.interval, &jitterbug.Norm{Stdev: m.interval / 20, Mean: 0})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if _, err := m.Check(ctx); err != nil {
			zap.S().Named("stuck_monitor").Errorw("failed to list stuck tasks", "error", err)
		}
	}
}

// Check runs a single pass and returns the number of stuck tasks.
func (m *StuckMonitor) Check(ctx context.Context) (int, error) {
	views, err := m.lister.ListStuck(ctx, m.after)
	if err != nil {
		return 0, err
	}

	metrics.UpdateStuckTasks(len(views))
	for _, v := range views {
		zap.S().Named("stuck_monitor").Warnw("analysis task is not moving",
			"task_id", v.TaskID, "recording_id", v.RecordingID, "status", v.Status, "updated_at", v.UpdatedAt)
	}
	return len(views), nil
}
