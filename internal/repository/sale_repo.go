package repository

import (
	"context"
	"time"

	"distriflow/internal/dto"
	"distriflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Sale, error)
	FindByShopifyOrderID(ctx context.Context, tenantID uuid.UUID, orderID string) (*model.Sale, error)
	List(ctx context.Context, tenantID uuid.UUID, filter dto.SaleFilter) ([]model.Sale, int64, error)
	// FindUnpaidInWindow returns sales with pending balance created within
	// [from, to], used by reconciliation suggestion scoring.
	FindUnpaidInWindow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]model.Sale, error)
	Update(ctx context.Context, s *model.Sale) error
	UpdatePaymentStatusTx(tx *gorm.DB, tenantID, id uuid.UUID, status string) error
	// DeleteTx removes the sale and its items; used by commit rollback.
	DeleteTx(tx *gorm.DB, tenantID, id uuid.UUID) error
	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Payments").
		First(&s).Error
	return &s, err
}

func (r *saleRepo) FindByShopifyOrderID(ctx context.Context, tenantID uuid.UUID, orderID string) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND shopify_order_id = ?", tenantID, orderID).
		Preload("Items").Preload("Payments").
		First(&s).Error
	return &s, err
}

func (r *saleRepo) List(ctx context.Context, tenantID uuid.UUID, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Sale{}).Where("tenant_id = ?", tenantID)

	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	}
	if filter.DeliveryStatus != "" && filter.DeliveryStatus != "all" {
		q = q.Where("delivery_status = ?", filter.DeliveryStatus)
	}
	if filter.PaymentStatus != "" {
		q = q.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.Channel != "" {
		q = q.Where("sales_channel = ?", filter.Channel)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items").Preload("Payments").
		Order("created_at DESC").
		Limit(filter.Limit).Offset(offset).
		Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) FindUnpaidInWindow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND payment_status IN ? AND created_at BETWEEN ? AND ?",
			tenantID, []string{model.PaymentPending, model.PaymentPartial}, from, to).
		Preload("Payments").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) Update(ctx context.Context, s *model.Sale) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *saleRepo) UpdatePaymentStatusTx(tx *gorm.DB, tenantID, id uuid.UUID, status string) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Model(&model.Sale{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Update("payment_status", status).Error
}

func (r *saleRepo) DeleteTx(tx *gorm.DB, tenantID, id uuid.UUID) error {
	if tx == nil {
		tx = r.db
	}
	if err := tx.Where("tenant_id = ? AND sale_id = ?", tenantID, id).Delete(&model.SaleItem{}).Error; err != nil {
		return err
	}
	if err := tx.Where("tenant_id = ? AND sale_id = ?", tenantID, id).Delete(&model.Payment{}).Error; err != nil {
		return err
	}
	return tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&model.Sale{}).Error
}

func (r *saleRepo) DB() *gorm.DB { return r.db }
