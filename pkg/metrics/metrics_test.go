package metrics_test

import (
	"context"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/speakwell/analysis-pipeline/internal/config"
	"github.com/speakwell/analysis-pipeline/internal/store"
	"github.com/speakwell/analysis-pipeline/internal/store/model"
	"github.com/speakwell/analysis-pipeline/pkg/metrics"
)

var _ = Describe("metrics", func() {
	It("exposes run counters on the handler", func() {
		metrics.ObserveRun("structured", "completed", 3.5)
		metrics.IncreaseStageFailure("transcribe")

		rec := httptest.NewRecorder()
		metrics.NewPrometheusMetricsHandler().Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

		body := rec.Body.String()
		Expect(body).To(ContainSubstring(`speaking_analysis_runs_total{status="completed",variant="structured"}`))
		Expect(body).To(ContainSubstring(`speaking_analysis_stage_failures_total{stage="transcribe"}`))
		Expect(body).To(ContainSubstring("speaking_analysis_run_duration_seconds_bucket"))
	})

	Context("task status collector", Ordered, func() {
		var s store.Store

		BeforeAll(func() {
			db, err := store.InitDB(config.NewDefault())
			Expect(err).To(BeNil())
			s = store.NewStore(db)
			Expect(s.InitialMigration(context.TODO())).To(BeNil())
		})

		AfterAll(func() {
			s.Close()
		})

		It("reports one gauge per status", func() {
			rec, err := s.Recording().Create(context.TODO(), model.Recording{QuestionID: "ind_001", AudioLocator: "a.mp3"})
			Expect(err).To(BeNil())
			_, err = s.Analysis().Create(context.TODO(), rec.ID)
			Expect(err).To(BeNil())

			expected := `
# HELP speaking_analysis_tasks Number of analysis tasks in each status.
# TYPE speaking_analysis_tasks gauge
speaking_analysis_tasks{status="completed"} 0
speaking_analysis_tasks{status="failed"} 0
speaking_analysis_tasks{status="pending"} 1
speaking_analysis_tasks{status="processing"} 0
`
			err = testutil.CollectAndCompare(metrics.NewTaskStatusCollector(s), strings.NewReader(expected))
			Expect(err).To(BeNil())
		})
	})
})
