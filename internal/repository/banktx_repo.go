package repository

import (
	"context"
	"time"

	"distriflow/internal/dto"
	"distriflow/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BankTransactionRepository interface {
	Create(ctx context.Context, tx *model.BankTransaction) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.BankTransaction, error)
	// Exists checks the (tenant, date, amount, description) de-duplication key.
	Exists(ctx context.Context, tenantID uuid.UUID, date time.Time, amount decimal.Decimal, description string) (bool, error)
	List(ctx context.Context, tenantID uuid.UUID, filter dto.TransactionFilter) ([]model.BankTransaction, int64, error)
	FindPendingCredits(ctx context.Context, tenantID uuid.UUID) ([]model.BankTransaction, error)
	// CountMatchedBySale enforces single-sale match exclusivity.
	CountMatchedBySale(ctx context.Context, tenantID, saleID uuid.UUID) (int64, error)
	Update(ctx context.Context, tx *model.BankTransaction) error
}

type bankTxRepo struct{ db *gorm.DB }

func NewBankTransactionRepository(db *gorm.DB) BankTransactionRepository { return &bankTxRepo{db: db} }

func (r *bankTxRepo) Create(ctx context.Context, t *model.BankTransaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *bankTxRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.BankTransaction, error) {
	var t model.BankTransaction
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&t).Error
	return &t, err
}

func (r *bankTxRepo) Exists(ctx context.Context, tenantID uuid.UUID, date time.Time, amount decimal.Decimal, description string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.BankTransaction{}).
		Where("tenant_id = ? AND date = ? AND amount = ? AND description = ?", tenantID, date, amount, description).
		Count(&count).Error
	return count > 0, err
}

func (r *bankTxRepo) List(ctx context.Context, tenantID uuid.UUID, filter dto.TransactionFilter) ([]model.BankTransaction, int64, error) {
	var txs []model.BankTransaction
	var total int64

	q := r.db.WithContext(ctx).Model(&model.BankTransaction{}).Where("tenant_id = ?", tenantID)
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("date DESC, created_at DESC").
		Limit(filter.Limit).Offset(offset).
		Find(&txs).Error
	return txs, total, err
}

func (r *bankTxRepo) FindPendingCredits(ctx context.Context, tenantID uuid.UUID) ([]model.BankTransaction, error) {
	var txs []model.BankTransaction
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND transaction_type = ?", tenantID, model.TxPending, model.TxTypeCredit).
		Order("date ASC").
		Find(&txs).Error
	return txs, err
}

func (r *bankTxRepo) CountMatchedBySale(ctx context.Context, tenantID, saleID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.BankTransaction{}).
		Where("tenant_id = ? AND matched_sale_id = ? AND status = ?", tenantID, saleID, model.TxMatched).
		Count(&count).Error
	return count, err
}

func (r *bankTxRepo) Update(ctx context.Context, t *model.BankTransaction) error {
	return r.db.WithContext(ctx).Save(t).Error
}
