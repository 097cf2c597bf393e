package model

import (
	"encoding/json"
	"time"
)

// Recording is a student's spoken answer. AudioLocator is the object key in the recordings bucket.
type Recording struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime"`
	QuestionID   string    `gorm:"not null;type:VARCHAR(64);index"`
	AudioLocator string    `gorm:"not null;type:VARCHAR(512)"`
}

func (r Recording) String() string {
	val, _ := json.Marshal(r)
	return string(val)
}
