package store

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/speakwell/analysis-pipeline/internal/store/model"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Question() Question
	Recording() Recording
	Analysis() Analysis
	InitialMigration(ctx context.Context) error
	Close() error
}

type DataStore struct {
	db        *gorm.DB
	log       logrus.FieldLogger
	question  Question
	recording Recording
	analysis  Analysis
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:        db,
		log:       logrus.WithField("component", "store"),
		question:  NewQuestionStore(db),
		recording: NewRecordingStore(db),
		analysis:  NewAnalysisStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db, s.log)
}

func (s *DataStore) Question() Question {
	return s.question
}

func (s *DataStore) Recording() Recording {
	return s.recording
}

func (s *DataStore) Analysis() Analysis {
	return s.analysis
}

// InitialMigration creates the tables from the models. Production databases are migrated
// with the goose scripts instead; this is used for sqlite and tests.
func (s *DataStore) InitialMigration(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&model.Question{}, &model.Recording{}, &model.AnalysisTask{})
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
