package store

import (
	"time"

	"gorm.io/gorm"

	"github.com/speakwell/analysis-pipeline/internal/store/model"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type AnalysisQueryFilter BaseQuerier

func NewAnalysisQueryFilter() *AnalysisQueryFilter {
	return &AnalysisQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *AnalysisQueryFilter) ByStatus(statuses ...model.AnalysisStatus) *AnalysisQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status IN ?", statuses)
	})
	return qf
}

func (qf *AnalysisQueryFilter) ByRecordingID(ids ...uint) *AnalysisQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("recording_id IN ?", ids)
	})
	return qf
}

// UpdatedBefore keeps tasks whose last transition happened before t.
func (qf *AnalysisQueryFilter) UpdatedBefore(t time.Time) *AnalysisQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("updated_at < ?", t.UTC())
	})
	return qf
}

type SortOrder int

const (
	SortByID SortOrder = iota
	SortByUpdatedTime
	SortByCreatedTime
)

type AnalysisQueryOptions BaseQuerier

func NewAnalysisQueryOptions() *AnalysisQueryOptions {
	return &AnalysisQueryOptions{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (o *AnalysisQueryOptions) WithSortOrder(sort SortOrder) *AnalysisQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		switch sort {
		case SortByID:
			return tx.Order("id")
		case SortByUpdatedTime:
			return tx.Order("updated_at")
		case SortByCreatedTime:
			return tx.Order("created_at")
		default:
			return tx
		}
	})
	return o
}

func (o *AnalysisQueryOptions) WithLimit(limit int) *AnalysisQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(limit)
	})
	return o
}
