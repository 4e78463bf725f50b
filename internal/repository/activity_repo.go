package repository

import (
	"context"

	"distriflow/internal/dto"
	"distriflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityRepository is append-only: there is no update or delete.
type ActivityRepository interface {
	Create(ctx context.Context, e *model.ActivityLog) error
	List(ctx context.Context, tenantID uuid.UUID, filter dto.ActivityFilter) ([]model.ActivityLog, int64, error)
}

type activityRepo struct{ db *gorm.DB }

func NewActivityRepository(db *gorm.DB) ActivityRepository { return &activityRepo{db: db} }

func (r *activityRepo) Create(ctx context.Context, e *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *activityRepo) List(ctx context.Context, tenantID uuid.UUID, filter dto.ActivityFilter) ([]model.ActivityLog, int64, error) {
	var entries []model.ActivityLog
	var total int64

	q := r.db.WithContext(ctx).Model(&model.ActivityLog{}).Where("tenant_id = ?", tenantID)
	if filter.Module != "" {
		q = q.Where("module = ?", filter.Module)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("created_at DESC").Limit(filter.Limit).Offset(offset).Find(&entries).Error
	return entries, total, err
}
