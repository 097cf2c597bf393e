package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/speakwell/analysis-pipeline/internal/report"
	"github.com/speakwell/analysis-pipeline/internal/store/model"
)

type Analysis interface {
	Create(ctx context.Context, recordingID uint) (*model.AnalysisTask, error)
	Get(ctx context.Context, id uint) (*model.AnalysisTask, error)
	GetByRecording(ctx context.Context, recordingID uint) (*model.AnalysisTask, error)
	List(ctx context.Context, filter *AnalysisQueryFilter, opts *AnalysisQueryOptions) (model.AnalysisTaskList, error)
	// Claim moves a pending task to processing. A processing task whose last update is older
	// than staleBefore is claimed again, which lets a redelivered job take over from a dead worker.
	Claim(ctx context.Context, id uint, staleBefore time.Time) (*model.AnalysisTask, error)
	// Complete stores the reports of a processing task and clears its error message.
	Complete(ctx context.Context, id uint, structured *report.ScoreReport, narrative *string) (*model.AnalysisTask, error)
	// Fail records errorMessage on a task that is not yet terminal. Report fields are left untouched.
	Fail(ctx context.Context, id uint, errorMessage string) (*model.AnalysisTask, error)
	CountByStatus(ctx context.Context) (map[model.AnalysisStatus]int64, error)
}

type AnalysisStore struct {
	db *gorm.DB
}

var _ Analysis = (*AnalysisStore)(nil)

func NewAnalysisStore(db *gorm.DB) Analysis {
	return &AnalysisStore{db: db}
}

func (a *AnalysisStore) Create(ctx context.Context, recordingID uint) (*model.AnalysisTask, error) {
	task := model.AnalysisTask{
		RecordingID: recordingID,
		Status:      model.AnalysisStatusPending,
	}
	if err := a.getDB(ctx).WithContext(ctx).Create(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &task, nil
}

func (a *AnalysisStore) Get(ctx context.Context, id uint) (*model.AnalysisTask, error) {
	return a.first(ctx, "id = ?", id)
}

func (a *AnalysisStore) GetByRecording(ctx context.Context, recordingID uint) (*model.AnalysisTask, error) {
	return a.first(ctx, "recording_id = ?", recordingID)
}

func (a *AnalysisStore) List(ctx context.Context, filter *AnalysisQueryFilter, opts *AnalysisQueryOptions) (model.AnalysisTaskList, error) {
	var tasks model.AnalysisTaskList
	tx := a.getDB(ctx).WithContext(ctx).Model(&tasks)

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}
	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (a *AnalysisStore) Claim(ctx context.Context, id uint, staleBefore time.Time) (*model.AnalysisTask, error) {
	now := time.Now().UTC()
	db := a.getDB(ctx).WithContext(ctx)

	claimable := db.Where("status = ?", model.AnalysisStatusPending).
		Or("status = ? AND updated_at < ?", model.AnalysisStatusProcessing, staleBefore.UTC())

	result := db.Model(&model.AnalysisTask{}).
		Where("id = ?", id).
		Where(claimable).
		Updates(map[string]any{
			"status":     model.AnalysisStatusProcessing,
			"started_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := a.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrTaskNotClaimable
	}

	return a.Get(ctx, id)
}

func (a *AnalysisStore) Complete(ctx context.Context, id uint, structured *report.ScoreReport, narrative *string) (*model.AnalysisTask, error) {
	if structured == nil && narrative == nil {
		return nil, ErrMissingReport
	}
	now := time.Now().UTC()

	var structuredField *model.JSONField[report.ScoreReport]
	if structured != nil {
		structuredField = model.MakeJSONField(*structured)
	}

	updates := map[string]any{
		"status":            model.AnalysisStatusCompleted,
		"report_structured": structuredField,
		"report_narrative":  narrative,
		"error_message":     nil,
		"finished_at":       now,
		"updated_at":        now,
	}
	return a.transition(ctx, id, []model.AnalysisStatus{model.AnalysisStatusProcessing}, updates)
}

func (a *AnalysisStore) Fail(ctx context.Context, id uint, errorMessage string) (*model.AnalysisTask, error) {
	now := time.Now().UTC()
	updates := map[string]any{
		"status":        model.AnalysisStatusFailed,
		"error_message": errorMessage,
		"finished_at":   now,
		"updated_at":    now,
	}
	return a.transition(ctx, id, []model.AnalysisStatus{model.AnalysisStatusPending, model.AnalysisStatusProcessing}, updates)
}

// transition applies updates only while the task is in one of the from states, so terminal rows never change.
func (a *AnalysisStore) transition(ctx context.Context, id uint, from []model.AnalysisStatus, updates map[string]any) (*model.AnalysisTask, error) {
	result := a.getDB(ctx).WithContext(ctx).
		Model(&model.AnalysisTask{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := a.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrTaskTerminal
	}
	return a.Get(ctx, id)
}

func (a *AnalysisStore) CountByStatus(ctx context.Context) (map[model.AnalysisStatus]int64, error) {
	var rows []struct {
		Status model.AnalysisStatus
		Total  int64
	}
	err := a.getDB(ctx).WithContext(ctx).
		Model(&model.AnalysisTask{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.AnalysisStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

func (a *AnalysisStore) first(ctx context.Context, query string, args ...any) (*model.AnalysisTask, error) {
	var task model.AnalysisTask
	result := a.getDB(ctx).WithContext(ctx).First(&task, append([]any{query}, args...)...)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

func (a *AnalysisStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return a.db
}
