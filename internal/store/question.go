package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/speakwell/analysis-pipeline/internal/store/model"
)

type Question interface {
	Get(ctx context.Context, questionID string) (*model.Question, error)
	// Upsert creates the question or replaces its content.
	Upsert(ctx context.Context, question model.Question) (*model.Question, error)
}

type QuestionStore struct {
	db *gorm.DB
}

var _ Question = (*QuestionStore)(nil)

func NewQuestionStore(db *gorm.DB) Question {
	return &QuestionStore{db: db}
}

func (q *QuestionStore) Get(ctx context.Context, questionID string) (*model.Question, error) {
	var question model.Question
	result := q.getDB(ctx).WithContext(ctx).First(&question, "question_id = ?", questionID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &question, nil
}

func (q *QuestionStore) Upsert(ctx context.Context, question model.Question) (*model.Question, error) {
	result := q.getDB(ctx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"instruction", "audio_locator", "sos_keywords", "sos_starter"}),
	}).Create(&question)
	if result.Error != nil {
		return nil, result.Error
	}
	return &question, nil
}

func (q *QuestionStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return q.db
}
