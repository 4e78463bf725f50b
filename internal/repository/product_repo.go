package repository

import (
	"context"

	"distriflow/internal/dto"
	"distriflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository is the data access contract for the catalog, including
// the bundle edge list. Every query is tenant-scoped: a cross-tenant id
// behaves exactly like a missing record.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*model.Product, error)
	List(ctx context.Context, tenantID uuid.UUID, filter dto.ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// Bundle edges
	CreateComponent(ctx context.Context, e *model.BundleComponent) error
	ComponentsOf(ctx context.Context, tenantID, bundleID uuid.UUID) ([]model.BundleComponent, error)
	IsBundle(ctx context.Context, tenantID, productID uuid.UUID) (bool, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&p).Error
	return &p, err
}

func (r *productRepo) FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND sku = ?", tenantID, sku).First(&p).Error
	return &p, err
}

func (r *productRepo) List(ctx context.Context, tenantID uuid.UUID, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("tenant_id = ?", tenantID)

	if filter.SKU != "" {
		q = q.Where("sku = ?", filter.SKU)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&model.Product{}).Error
}

func (r *productRepo) CreateComponent(ctx context.Context, e *model.BundleComponent) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *productRepo) ComponentsOf(ctx context.Context, tenantID, bundleID uuid.UUID) ([]model.BundleComponent, error) {
	var edges []model.BundleComponent
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND bundle_id = ?", tenantID, bundleID).
		Preload("Component").
		Find(&edges).Error
	return edges, err
}

func (r *productRepo) IsBundle(ctx context.Context, tenantID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.BundleComponent{}).
		Where("tenant_id = ? AND bundle_id = ?", tenantID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *productRepo) DB() *gorm.DB { return r.db }
