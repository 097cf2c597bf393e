package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/speakwell/analysis-pipeline/internal/store"
	"github.com/speakwell/analysis-pipeline/internal/store/model"
)

var taskStatuses = []model.AnalysisStatus{
	model.AnalysisStatusPending,
	model.AnalysisStatusProcessing,
	model.AnalysisStatusCompleted,
	model.AnalysisStatusFailed,
}

type taskStatusCollector struct {
	store store.Store
	tasks *prometheus.Desc
}

// NewTaskStatusCollector reports the number of analysis tasks per status at scrape time.
func NewTaskStatusCollector(s store.Store) prometheus.Collector {
	return &taskStatusCollector{
		store: s,
		tasks: prometheus.NewDesc(
			fmt.Sprintf("%s_tasks", analysisSubsystem),
			"Number of analysis tasks in each status.",
			[]string{statusLabel},
			prometheus.Labels{},
		),
	}
}

func (c *taskStatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tasks
}

// Collect implements Collector.
func (c *taskStatusCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.store.Analysis().CountByStatus(ctx)
	if err != nil {
		zap.S().Named("task_collector").Errorf("failed to count analysis tasks: %s", err)
		return
	}
	for _, status := range taskStatuses {
		ch <- prometheus.MustNewConstMetric(c.tasks, prometheus.GaugeValue, float64(counts[status]), string(status))
	}
}
