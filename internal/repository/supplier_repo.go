package repository

import (
	"context"

	"distriflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(ctx context.Context, s *model.Supplier) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Supplier, error)
	FindByRUT(ctx context.Context, tenantID uuid.UUID, rut string) (*model.Supplier, error)
	List(ctx context.Context, tenantID uuid.UUID, includeInactive bool) ([]model.Supplier, error)
	Update(ctx context.Context, s *model.Supplier) error
}

type supplierRepo struct{ db *gorm.DB }

func NewSupplierRepository(db *gorm.DB) SupplierRepository { return &supplierRepo{db: db} }

func (r *supplierRepo) Create(ctx context.Context, s *model.Supplier) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *supplierRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&s).Error
	return &s, err
}

func (r *supplierRepo) FindByRUT(ctx context.Context, tenantID uuid.UUID, rut string) (*model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND rut = ?", tenantID, rut).First(&s).Error
	return &s, err
}

func (r *supplierRepo) List(ctx context.Context, tenantID uuid.UUID, includeInactive bool) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if !includeInactive {
		q = q.Where("is_active = true")
	}
	err := q.Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}

func (r *supplierRepo) Update(ctx context.Context, s *model.Supplier) error {
	return r.db.WithContext(ctx).Save(s).Error
}
