package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/speakwell/analysis-pipeline/internal/errdefs"
	"github.com/speakwell/analysis-pipeline/internal/events"
	"github.com/speakwell/analysis-pipeline/internal/pipeline"
	"github.com/speakwell/analysis-pipeline/internal/report"
	"github.com/speakwell/analysis-pipeline/internal/storage"
	"github.com/speakwell/analysis-pipeline/internal/store"
	"github.com/speakwell/analysis-pipeline/internal/store/model"
	"github.com/speakwell/analysis-pipeline/pkg/log"
	"github.com/speakwell/analysis-pipeline/pkg/metrics"
)

const DefaultVisibilityTimeout = 15 * time.Minute

// failureWriteTimeout bounds the write of a failure once the run context is gone.
const failureWriteTimeout = 10 * time.Second

// Pipeline stages, used as the failure label.
const (
	stageSelect     = "select_providers"
	stageRecording  = "load_recording"
	stageQuestion   = "load_question"
	stageAudioURL   = "issue_audio_url"
	stageTranscribe = "transcribe"
	stageScore      = "score"
	stageAssemble   = "assemble"
	stageComplete   = "complete"
	stagePanic      = "panic"
)

type EventWriter interface {
	Write(ctx context.Context, kind string, body io.Reader) error
}

// Enqueuer hands a pending task to the worker pool. It is called inside the transaction that
// creates the task and should join it when ctx carries one.
type Enqueuer interface {
	Enqueue(ctx context.Context, taskID, recordingID uint) error
}

type AnalysisOpts func(s *AnalysisService)

func WithEventWriter(w EventWriter) AnalysisOpts {
	return func(s *AnalysisService) {
		s.eventWriter = w
	}
}

// WithVisibilityTimeout sets how long a processing task may stay silent before another delivery can claim it.
func WithVisibilityTimeout(d time.Duration) AnalysisOpts {
	return func(s *AnalysisService) {
		if d > 0 {
			s.visibilityTimeout = d
		}
	}
}

type AnalysisService struct {
	store             store.Store
	selector          pipeline.Selector
	storage           storage.URLIssuer
	eventWriter       EventWriter
	enqueuer          Enqueuer
	visibilityTimeout time.Duration
	logger            *log.StructuredLogger
}

func NewAnalysisService(s store.Store, selector pipeline.Selector, issuer storage.URLIssuer, opts ...AnalysisOpts) *AnalysisService {
	svc := &AnalysisService{
		store:             s,
		selector:          selector,
		storage:           issuer,
		visibilityTimeout: DefaultVisibilityTimeout,
		logger:            log.NewDebugLogger("analysis_service"),
	}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// SetEnqueuer attaches the job queue. The queue's workers call back into RunAnalysis,
// so it can only be attached after both exist.
func (s *AnalysisService) SetEnqueuer(e Enqueuer) {
	s.enqueuer = e
}

// RunAnalysis drives one task from pending to completed or failed. Every error after the claim,
// a provider panic included, is recorded on the task and returned as *ErrAnalysisFailed.
func (s *AnalysisService) RunAnalysis(ctx context.Context, taskID, recordingID uint) (err error) {
	tracer := s.logger.WithContext(ctx).
		Operation("run_analysis").
		WithUint("task_id", taskID).
		WithUint("recording_id", recordingID).
		Build()

	task, err := s.store.Analysis().Claim(ctx, taskID, time.Now().Add(-s.visibilityTimeout))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrTaskNotClaimable):
			metrics.IncreaseClaimRejections()
			tracer.Step("not_claimable").Log()
			return NewErrTaskNotClaimable(taskID)
		case errors.Is(err, store.ErrRecordNotFound):
			tracer.Error(err).WithString("step", "claim").Log()
			return errdefs.NewErrNotFound("analysis task", taskID)
		default:
			tracer.Error(err).WithString("step", "claim").Log()
			return fmt.Errorf("claiming analysis task %d: %w", taskID, err)
		}
	}
	started := time.Now()
	tracer.Step("claimed").Log()
	s.publish(ctx, task, "")

	variant := ""
	fail := func(stage string, err error) error {
		return s.fail(ctx, task, variant, stage, started, err, tracer)
	}

	stage := stageRecording
	defer func() {
		if r := recover(); r != nil {
			err = fail(stagePanic, fmt.Errorf("panic during %s: %v", stage, r))
		}
	}()

	if task.RecordingID != recordingID {
		return fail(stageRecording, NewErrRecordingMismatch(taskID, task.RecordingID, recordingID))
	}

	stage = stageSelect
	providers, err := s.selector.Select()
	if err != nil {
		return fail(stageSelect, err)
	}
	variant = string(providers.Variant)
	tracer.Step("providers_selected").WithString("variant", variant).Log()

	stage = stageRecording
	recording, err := s.store.Recording().Get(ctx, recordingID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			err = errdefs.NewErrNotFound("recording", recordingID)
		}
		return fail(stageRecording, err)
	}

	stage = stageQuestion
	instruction, err := s.instruction(ctx, recording.QuestionID)
	if err != nil {
		return fail(stageQuestion, err)
	}
	tracer.Step("inputs_loaded").WithString("question_id", recording.QuestionID).WithBool("has_instruction", instruction != "").Log()

	stage = stageAudioURL
	audioURL, err := s.storage.ReadURL(ctx, recording.AudioLocator)
	if err != nil {
		return fail(stageAudioURL, err)
	}

	stage = stageTranscribe
	transcript, err := providers.Transcriber.TranscribeURL(ctx, audioURL)
	if err != nil {
		return fail(stageTranscribe, err)
	}
	tracer.Step("transcribed").WithInt("segments", len(transcript.Segments)).Log()

	stage = stageScore
	outcome, err := providers.Scorer.Score(ctx, transcript, instruction)
	if err != nil {
		return fail(stageScore, err)
	}
	tracer.Step("scored").Log()

	stage = stageAssemble
	assembled, err := report.Assemble(outcome.Input())
	if err != nil {
		return fail(stageAssemble, err)
	}

	stage = stageComplete
	completed, err := s.store.Analysis().Complete(ctx, task.ID, assembled.Structured, assembled.Narrative)
	if err != nil {
		return fail(stageComplete, err)
	}

	metrics.ObserveRun(variant, string(model.AnalysisStatusCompleted), time.Since(started).Seconds())
	s.publish(ctx, completed, variant)
	tracer.Success().WithString("variant", variant).WithBool("structured", assembled.Structured != nil).Log()
	return nil
}

// instruction returns the question text, or "" when the question no longer exists.
func (s *AnalysisService) instruction(ctx context.Context, questionID string) (string, error) {
	question, err := s.store.Question().Get(ctx, questionID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			zap.S().Named("analysis_service").Warnw("question not found, scoring without instruction", "question_id", questionID)
			return "", nil
		}
		return "", err
	}
	return question.Instruction, nil
}

// fail records cause on the task. The run context is usually cancelled when a job times out,
// so the write uses a context detached from it.
func (s *AnalysisService) fail(ctx context.Context, task *model.AnalysisTask, variant, stage string, started time.Time, cause error, tracer *log.Tracer) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
	defer cancel()

	tracer.Error(cause).WithString("step", stage).Log()
	metrics.IncreaseStageFailure(stage)

	failed, err := s.store.Analysis().Fail(ctx, task.ID, cause.Error())
	if err != nil {
		tracer.Error(err).WithString("step", "record_failure").Log()
		return errors.Join(cause, fmt.Errorf("recording failure of analysis task %d: %w", task.ID, err))
	}

	if variant == "" {
		variant = "unknown"
	}
	metrics.ObserveRun(variant, string(model.AnalysisStatusFailed), time.Since(started).Seconds())
	s.publish(ctx, failed, variant)
	return NewErrAnalysisFailed(task.ID, cause)
}

// RequestAnalysis creates the pending task for a recording and queues it. The task row and the
// job are written in one transaction: a queue failure leaves no task behind.
func (s *AnalysisService) RequestAnalysis(ctx context.Context, recordingID uint) (*model.AnalysisTask, error) {
	tracer := s.logger.WithContext(ctx).Operation("request_analysis").WithUint("recording_id", recordingID).Build()

	if s.enqueuer == nil {
		return nil, errdefs.NewErrConfiguration("no job queue attached")
	}

	if _, err := s.store.Recording().Get(ctx, recordingID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, errdefs.NewErrNotFound("recording", recordingID)
		}
		tracer.Error(err).Log()
		return nil, err
	}

	txCtx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		tracer.Error(err).WithString("step", "begin").Log()
		return nil, err
	}

	task, err := s.store.Analysis().Create(txCtx, recordingID)
	if err != nil {
		_, _ = store.Rollback(txCtx)
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, NewErrAnalysisExists(recordingID)
		}
		tracer.Error(err).WithString("step", "create").Log()
		return nil, err
	}

	if err := s.enqueuer.Enqueue(txCtx, task.ID, recordingID); err != nil {
		_, _ = store.Rollback(txCtx)
		qErr := NewErrQueueUnavailable(err)
		tracer.Error(qErr).WithString("step", "enqueue").Log()
		return nil, qErr
	}

	if _, err := store.Commit(txCtx); err != nil {
		tracer.Error(err).WithString("step", "commit").Log()
		return nil, err
	}
	s.publish(ctx, task, "")

	tracer.Success().WithInt("task_id", int(task.ID)).Log()
	return task, nil
}

// AnalysisView is the polling shape of a task.
type AnalysisView struct {
	TaskID           uint                `json:"task_id"`
	RecordingID      uint                `json:"recording_id"`
	Status           string              `json:"status"`
	ReportStructured *report.ScoreReport `json:"report_structured"`
	ReportNarrative  *string             `json:"report_narrative"`
	ErrorMessage     *string             `json:"error_message"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func NewAnalysisView(task *model.AnalysisTask) *AnalysisView {
	v := &AnalysisView{
		TaskID:          task.ID,
		RecordingID:     task.RecordingID,
		Status:          string(task.Status),
		ReportNarrative: task.ReportNarrative,
		ErrorMessage:    task.ErrorMessage,
		CreatedAt:       task.CreatedAt,
		UpdatedAt:       task.UpdatedAt,
	}
	if task.ReportStructured != nil {
		r := task.ReportStructured.Data
		v.ReportStructured = &r
	}
	return v
}

func (s *AnalysisService) GetAnalysis(ctx context.Context, taskID uint) (*AnalysisView, error) {
	task, err := s.store.Analysis().Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, errdefs.NewErrNotFound("analysis task", taskID)
		}
		return nil, err
	}
	return NewAnalysisView(task), nil
}

// ListStuck returns non-terminal tasks that have not moved for olderThan.
func (s *AnalysisService) ListStuck(ctx context.Context, olderThan time.Duration) ([]AnalysisView, error) {
	tracer := s.logger.WithContext(ctx).Operation("list_stuck").WithParam("older_than", olderThan.String()).Build()

	tasks, err := s.store.Analysis().List(ctx,
		store.NewAnalysisQueryFilter().
			ByStatus(model.AnalysisStatusPending, model.AnalysisStatusProcessing).
			UpdatedBefore(time.Now().Add(-olderThan)),
		store.NewAnalysisQueryOptions().WithSortOrder(store.SortByUpdatedTime))
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	views := make([]AnalysisView, 0, len(tasks))
	for i := range tasks {
		views = append(views, *NewAnalysisView(&tasks[i]))
	}
	tracer.Success().WithInt("count", len(views)).Log()
	return views, nil
}

func (s *AnalysisService) publish(ctx context.Context, task *model.AnalysisTask, variant string) {
	if s.eventWriter == nil {
		return
	}

	e := events.AnalysisEvent{
		TaskID:      task.ID,
		RecordingID: task.RecordingID,
		Status:      string(task.Status),
		Variant:     variant,
		OccurredAt:  time.Now().UTC(),
	}
	if task.ErrorMessage != nil {
		e.Error = *task.ErrorMessage
	}

	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := s.eventWriter.Write(ctx, events.AnalysisStatusMessageKind, bytes.NewBuffer(data)); err != nil {
		zap.S().Named("analysis_service").Errorw("failed to write event", "error", err, "event_kind", events.AnalysisStatusMessageKind)
	}
}
