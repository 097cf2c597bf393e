package service

import (
	"fmt"
)

// ErrTaskNotClaimable is returned by RunAnalysis for a task that is terminal or owned by a live worker.
// Nothing was persisted.
type ErrTaskNotClaimable struct {
	error
}

func NewErrTaskNotClaimable(taskID uint) *ErrTaskNotClaimable {
	return &ErrTaskNotClaimable{fmt.Errorf("analysis task %d is not claimable", taskID)}
}

type ErrAnalysisExists struct {
	error
}

func NewErrAnalysisExists(recordingID uint) *ErrAnalysisExists {
	return &ErrAnalysisExists{fmt.Errorf("recording %d already has an analysis task", recordingID)}
}

type ErrRecordingMismatch struct {
	error
}

func NewErrRecordingMismatch(taskID, want, got uint) *ErrRecordingMismatch {
	return &ErrRecordingMismatch{fmt.Errorf("analysis task %d belongs to recording %d, not %d", taskID, want, got)}
}

type ErrQueueUnavailable struct {
	error
}

func NewErrQueueUnavailable(err error) *ErrQueueUnavailable {
	return &ErrQueueUnavailable{fmt.Errorf("enqueueing analysis: %w", err)}
}

func (e *ErrQueueUnavailable) Unwrap() error { return e.error }

// ErrAnalysisFailed wraps a pipeline error that has already been recorded on the task.
type ErrAnalysisFailed struct {
	error
	TaskID uint
}

func NewErrAnalysisFailed(taskID uint, cause error) *ErrAnalysisFailed {
	return &ErrAnalysisFailed{error: cause, TaskID: taskID}
}

func (e *ErrAnalysisFailed) Unwrap() error { return e.error }
