package repository

import (
	"context"

	"distriflow/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	CreateTx(tx *gorm.DB, p *model.Payment) error
	ListBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]model.Payment, error)
	SumBySale(ctx context.Context, tenantID, saleID uuid.UUID) (decimal.Decimal, error)
	// DeleteByReference removes the payment carrying a given reference string
	// for a sale; used by reconciliation unmatch.
	DeleteByReference(ctx context.Context, tenantID, saleID uuid.UUID, reference string) error
	DB() *gorm.DB
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepo{db: db} }

func (r *paymentRepo) CreateTx(tx *gorm.DB, p *model.Payment) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(p).Error
}

func (r *paymentRepo) ListBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sale_id = ?", tenantID, saleID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepo) SumBySale(ctx context.Context, tenantID, saleID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("tenant_id = ? AND sale_id = ?", tenantID, saleID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *paymentRepo) DeleteByReference(ctx context.Context, tenantID, saleID uuid.UUID, reference string) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND sale_id = ? AND payment_reference = ?", tenantID, saleID, reference).
		Delete(&model.Payment{}).Error
}

func (r *paymentRepo) DB() *gorm.DB { return r.db }
