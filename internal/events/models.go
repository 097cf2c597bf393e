package events

import "time"

// AnalysisEvent is published on every analysis task transition.
type AnalysisEvent struct {
	TaskID      uint      `json:"task_id"`
	RecordingID uint      `json:"recording_id"`
	Status      string    `json:"status"`
	Variant     string    `json:"variant,omitempty"`
	Error       string    `json:"error,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
