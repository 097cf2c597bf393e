package jobs_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/speakwell/analysis-pipeline/internal/errdefs"
	"github.com/speakwell/analysis-pipeline/internal/jobs"
	"github.com/speakwell/analysis-pipeline/internal/service"
)

type runnerFunc func(ctx context.Context, taskID, recordingID uint) error

func (f runnerFunc) RunAnalysis(ctx context.Context, taskID, recordingID uint) error {
	return f(ctx, taskID, recordingID)
}

func newJob(taskID, recordingID uint) *river.Job[jobs.AnalysisArgs] {
	return &river.Job[jobs.AnalysisArgs]{
		JobRow: &rivertype.JobRow{ID: 11, Attempt: 1},
		Args:   jobs.AnalysisArgs{TaskID: taskID, RecordingID: recordingID},
	}
}

var _ = Describe("AnalysisArgs", func() {
	It("returns the job kind", func() {
		Expect(jobs.AnalysisArgs{}.Kind()).To(Equal("analysis_run"))
	})

	It("is unique by args on the analysis queue", func() {
		opts := jobs.AnalysisArgs{}.InsertOpts()
		Expect(opts.Queue).To(Equal(jobs.DefaultQueue))
		Expect(opts.UniqueOpts.ByArgs).To(BeTrue())
	})
})

var _ = Describe("AnalysisWorker", func() {
	Describe("Timeout", func() {
		It("uses the configured timeout", func() {
			worker := jobs.NewAnalysisWorker(nil, 3*time.Minute)
			Expect(worker.Timeout(nil)).To(Equal(3 * time.Minute))
		})

		It("defaults to ten minutes", func() {
			worker := jobs.NewAnalysisWorker(nil, 0)
			Expect(worker.Timeout(nil)).To(Equal(jobs.DefaultJobTimeout))
		})
	})

	Describe("Work", func() {
		It("passes the task to the runner", func() {
			var gotTask, gotRecording uint
			worker := jobs.NewAnalysisWorker(runnerFunc(func(_ context.Context, taskID, recordingID uint) error {
				gotTask, gotRecording = taskID, recordingID
				return nil
			}), 0)

			Expect(worker.Work(context.TODO(), newJob(4, 9))).To(Succeed())
			Expect(gotTask).To(Equal(uint(4)))
			Expect(gotRecording).To(Equal(uint(9)))
		})

		It("cancels a job whose failure was recorded", func() {
			cause := service.NewErrAnalysisFailed(4, errdefs.NewErrUpstream("whisper", errors.New("503")))
			worker := jobs.NewAnalysisWorker(runnerFunc(func(context.Context, uint, uint) error {
				return cause
			}), 0)

			err := worker.Work(context.TODO(), newJob(4, 9))
			Expect(err).NotTo(BeNil())
			Expect(err.Error()).To(HavePrefix("JobCancelError"))
			Expect(errors.Is(err, cause)).To(BeTrue())
		})

		It("cancels a job for a task that is not claimable", func() {
			worker := jobs.NewAnalysisWorker(runnerFunc(func(context.Context, uint, uint) error {
				return service.NewErrTaskNotClaimable(4)
			}), 0)

			err := worker.Work(context.TODO(), newJob(4, 9))
			Expect(err.Error()).To(HavePrefix("JobCancelError"))
		})

		It("returns infrastructure errors for a retry", func() {
			cause := errors.New("connection refused")
			worker := jobs.NewAnalysisWorker(runnerFunc(func(context.Context, uint, uint) error {
				return cause
			}), 0)

			err := worker.Work(context.TODO(), newJob(4, 9))
			Expect(err).To(Equal(cause))
		})
	})
})
