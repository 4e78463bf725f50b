package repository

import (
	"context"

	"distriflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WastageRepository interface {
	CreateTx(tx *gorm.DB, w *model.Wastage) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Wastage, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]model.Wastage, error)
	// Delete removes the audit row only; stock is never restored.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	DB() *gorm.DB
}

type wastageRepo struct{ db *gorm.DB }

func NewWastageRepository(db *gorm.DB) WastageRepository { return &wastageRepo{db: db} }

func (r *wastageRepo) CreateTx(tx *gorm.DB, w *model.Wastage) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(w).Error
}

func (r *wastageRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Wastage, error) {
	var w model.Wastage
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&w).Error
	return &w, err
}

func (r *wastageRepo) List(ctx context.Context, tenantID uuid.UUID) ([]model.Wastage, error) {
	var wastages []model.Wastage
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&wastages).Error
	return wastages, err
}

func (r *wastageRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&model.Wastage{}).Error
}

func (r *wastageRepo) DB() *gorm.DB { return r.db }
