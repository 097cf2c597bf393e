package model

import (
	"encoding/json"
	"time"

	"github.com/speakwell/analysis-pipeline/internal/report"
)

type AnalysisStatus string

const (
	AnalysisStatusPending    AnalysisStatus = "pending"
	AnalysisStatusProcessing AnalysisStatus = "processing"
	AnalysisStatusCompleted  AnalysisStatus = "completed"
	AnalysisStatusFailed     AnalysisStatus = "failed"
)

func (s AnalysisStatus) Terminal() bool {
	return s == AnalysisStatusCompleted || s == AnalysisStatusFailed
}

// AnalysisTask tracks one analysis of one recording.
type AnalysisTask struct {
	ID               uint                           `gorm:"primaryKey;autoIncrement"`
	CreatedAt        time.Time                      `gorm:"not null;autoCreateTime"`
	UpdatedAt        time.Time                      `gorm:"not null;autoUpdateTime;index"`
	RecordingID      uint                           `gorm:"not null;uniqueIndex"`
	Status           AnalysisStatus                 `gorm:"not null;type:VARCHAR(20);index;default:pending"`
	ReportStructured *JSONField[report.ScoreReport] `gorm:"type:jsonb"`
	ReportNarrative  *string                        `gorm:"type:TEXT"`
	ErrorMessage     *string                        `gorm:"type:TEXT"`
	StartedAt        *time.Time
	FinishedAt       *time.Time

	Recording *Recording `gorm:"foreignKey:RecordingID;references:ID;constraint:OnDelete:CASCADE;" json:"-"`
}

func (AnalysisTask) TableName() string {
	return "analysis_tasks"
}

type AnalysisTaskList []AnalysisTask

func (a AnalysisTask) String() string {
	val, _ := json.Marshal(a)
	return string(val)
}
