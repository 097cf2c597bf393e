package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/speakwell/analysis-pipeline/internal/store/model"
)

type Recording interface {
	Create(ctx context.Context, recording model.Recording) (*model.Recording, error)
	Get(ctx context.Context, id uint) (*model.Recording, error)
	// Delete removes the recording and, through the foreign key, its analysis task.
	Delete(ctx context.Context, id uint) error
}

type RecordingStore struct {
	db *gorm.DB
}

var _ Recording = (*RecordingStore)(nil)

func NewRecordingStore(db *gorm.DB) Recording {
	return &RecordingStore{db: db}
}

func (r *RecordingStore) Create(ctx context.Context, recording model.Recording) (*model.Recording, error) {
	if err := r.getDB(ctx).WithContext(ctx).Create(&recording).Error; err != nil {
		return nil, err
	}
	return &recording, nil
}

func (r *RecordingStore) Get(ctx context.Context, id uint) (*model.Recording, error) {
	var recording model.Recording
	result := r.getDB(ctx).WithContext(ctx).First(&recording, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &recording, nil
}

func (r *RecordingStore) Delete(ctx context.Context, id uint) error {
	result := r.getDB(ctx).WithContext(ctx).Delete(&model.Recording{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *RecordingStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return r.db
}
