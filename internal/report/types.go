package report

import (
	"errors"
	"fmt"
)

const (
	MinSubScore = 0
	MaxSubScore = 10
	// MaxTotalScore is the sum of the three sub-score maxima.
	MaxTotalScore = 3 * MaxSubScore
)

// Evaluation labels the quality of a single sentence.
type Evaluation string

const (
	EvaluationExcellent  Evaluation = "优秀"
	EvaluationImprovable Evaluation = "可改进"
	EvaluationNeedsFix   Evaluation = "需修正"
)

func (e Evaluation) Valid() bool {
	switch e {
	case EvaluationExcellent, EvaluationImprovable, EvaluationNeedsFix:
		return true
	default:
		return false
	}
}

type SentenceAnalysis struct {
	OriginalText       string     `json:"original_text"`
	Evaluation         Evaluation `json:"evaluation"`
	NativeVersion      *string    `json:"native_version"`
	GrammarFeedback    string     `json:"grammar_feedback"`
	ExpressionFeedback string     `json:"expression_feedback"`
	SuggestionFeedback string     `json:"suggestion_feedback"`
	StartTime          float64    `json:"start_time"`
	EndTime            float64    `json:"end_time"`
}

// Draft is the scoring provider output: everything in a ScoreReport except the derived fields.
type Draft struct {
	DeliveryScore    int                `json:"delivery_score"`
	DeliveryComment  string             `json:"delivery_comment"`
	LanguageScore    int                `json:"language_score"`
	LanguageComment  string             `json:"language_comment"`
	TopicScore       int                `json:"topic_score"`
	TopicComment     string             `json:"topic_comment"`
	OverallSummary   string             `json:"overall_summary"`
	SentenceAnalyses []SentenceAnalysis `json:"sentence_analyses"`
	ActionableTips   []string           `json:"actionable_tips"`
}

// Validate checks the invariants the JSON schema cannot express on its own.
func (d Draft) Validate() error {
	var errs []error
	scores := []struct {
		name  string
		value int
	}{
		{"delivery_score", d.DeliveryScore},
		{"language_score", d.LanguageScore},
		{"topic_score", d.TopicScore},
	}
	for _, s := range scores {
		if s.value < MinSubScore || s.value > MaxSubScore {
			errs = append(errs, fmt.Errorf("%s %d out of range [%d,%d]", s.name, s.value, MinSubScore, MaxSubScore))
		}
	}
	for i, s := range d.SentenceAnalyses {
		if !s.Evaluation.Valid() {
			errs = append(errs, fmt.Errorf("sentence_analyses[%d]: unknown evaluation %q", i, s.Evaluation))
		}
		if s.EndTime < s.StartTime {
			errs = append(errs, fmt.Errorf("sentence_analyses[%d]: end_time %.2f before start_time %.2f", i, s.EndTime, s.StartTime))
		}
	}
	return errors.Join(errs...)
}

// ScoreReport is the persisted structured report.
type ScoreReport struct {
	Draft
	TotalScore int   `json:"total_score"`
	Level      Level `json:"level"`
}
