package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	analysisSubsystem = "speaking_analysis"

	// Run metrics
	runsTotal       = "runs_total"
	runDuration     = "run_duration_seconds"
	stageFailures   = "stage_failures_total"
	claimRejections = "claim_rejections_total"
	stuckTasks      = "stuck_tasks"

	// Labels
	variantLabel = "variant"
	statusLabel  = "status"
	stageLabel   = "stage"
)

var runLabels = []string{
	variantLabel,
	statusLabel,
}

var stageLabels = []string{
	stageLabel,
}

/**
* Metrics definition
**/
var runsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: analysisSubsystem,
		Name:      runsTotal,
		Help:      "number of analysis runs that reached a terminal state",
	},
	runLabels,
)

var runDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: analysisSubsystem,
		Name:      runDuration,
		Help:      "time from claim to terminal state of an analysis run",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	},
	runLabels,
)

var stageFailuresMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: analysisSubsystem,
		Name:      stageFailures,
		Help:      "number of analysis runs that failed, by pipeline stage",
	},
	stageLabels,
)

var claimRejectionsMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: analysisSubsystem,
		Name:      claimRejections,
		Help:      "number of deliveries for tasks that were terminal or still owned by another worker",
	},
)

var stuckTasksMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: analysisSubsystem,
		Name:      stuckTasks,
		Help:      "number of pending or processing tasks that have not moved for the stuck threshold, as of the last check",
	},
)

func ObserveRun(variant, status string, seconds float64) {
	labels := prometheus.Labels{
		variantLabel: variant,
		statusLabel:  status,
	}
	runsTotalMetric.With(labels).Inc()
	runDurationMetric.With(labels).Observe(seconds)
}

func IncreaseStageFailure(stage string) {
	stageFailuresMetric.With(prometheus.Labels{stageLabel: stage}).Inc()
}

func IncreaseClaimRejections() {
	claimRejectionsMetric.Inc()
}

func UpdateStuckTasks(count int) {
	stuckTasksMetric.Set(float64(count))
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(runsTotalMetric)
	prometheus.MustRegister(runDurationMetric)
	prometheus.MustRegister(stageFailuresMetric)
	prometheus.MustRegister(claimRejectionsMetric)
	prometheus.MustRegister(stuckTasksMetric)
}
