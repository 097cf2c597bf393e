package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/speakwell/analysis-pipeline/internal/errdefs"
	"github.com/speakwell/analysis-pipeline/internal/service"
	"github.com/speakwell/analysis-pipeline/pkg/log"
)

const DefaultJobTimeout = 10 * time.Minute

// Runner executes one analysis. *service.AnalysisService satisfies it.
type Runner interface {
	RunAnalysis(ctx context.Context, taskID, recordingID uint) error
}

type AnalysisWorker struct {
	river.WorkerDefaults[AnalysisArgs]
	runner  Runner
	timeout time.Duration
}

func NewAnalysisWorker(runner Runner, timeout time.Duration) *AnalysisWorker {
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	return &AnalysisWorker{runner: runner, timeout: timeout}
}

func (w *AnalysisWorker) Timeout(job *river.Job[AnalysisArgs]) time.Duration {
	return w.timeout
}

// Work runs the analysis. A failure already recorded on the task is final and the job is
// cancelled; anything else is returned so river retries it.
func (w *AnalysisWorker) Work(ctx context.Context, job *river.Job[AnalysisArgs]) error {
	ctx = log.WithCorrelationID(ctx, uuid.NewString())
	tracer := log.NewDebugLogger("analysis_worker").
		WithContext(ctx).
		Operation("work").
		WithParam("job_id", job.ID).
		WithInt("attempt", job.Attempt).
		WithUint("task_id", job.Args.TaskID).
		Build()

	err := w.runner.RunAnalysis(ctx, job.Args.TaskID, job.Args.RecordingID)
	if err == nil {
		tracer.Success().Log()
		return nil
	}

	var (
		notClaimable *service.ErrTaskNotClaimable
		failed       *service.ErrAnalysisFailed
	)
	switch {
	case errors.As(err, &notClaimable):
		tracer.Step("skipped").WithString("reason", err.Error()).Log()
		return river.JobCancel(err)
	case errors.As(err, &failed), errdefs.IsNotFound(err):
		tracer.Error(err).Log()
		return river.JobCancel(err)
	default:
		tracer.Error(err).WithBool("retry", true).Log()
		return err
	}
}
