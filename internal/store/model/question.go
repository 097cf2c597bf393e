package model

import (
	"encoding/json"
	"time"
)

// Question is a speaking prompt. QuestionID is the business key (e.g. "ind_001").
type Question struct {
	QuestionID   string    `gorm:"primaryKey;column:question_id;type:VARCHAR(64);"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime"`
	Instruction  string    `gorm:"not null;type:TEXT"`
	AudioLocator *string   `gorm:"type:VARCHAR(512)"`

	// Hints shown to the student while recording.
	SOSKeywords *JSONField[[]string] `gorm:"column:sos_keywords;type:jsonb"`
	SOSStarter  *string              `gorm:"column:sos_starter;type:TEXT"`
}

func (q Question) String() string {
	val, _ := json.Marshal(q)
	return string(val)
}
