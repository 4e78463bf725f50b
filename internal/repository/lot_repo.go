package repository

import (
	"context"

	"distriflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LotRepository is the data access contract for the lot ledger. TotalStock is
// always the live sum over lots; nothing caches a counter.
type LotRepository interface {
	CreateTx(tx *gorm.DB, l *model.Lot) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Lot, error)
	// FindFIFO returns the product's lots with quantity_current > 0 ordered
	// ascending by (created_at, id). Reads through tx when one is open so a
	// commit sees its own decrements.
	FindFIFO(ctx context.Context, tx *gorm.DB, tenantID, productID uuid.UUID) ([]model.Lot, error)
	SetQuantityTx(tx *gorm.DB, tenantID, lotID uuid.UUID, quantity int) error
	TotalStock(ctx context.Context, tx *gorm.DB, tenantID, productID uuid.UUID) (int, error)
	CountByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error)
	DB() *gorm.DB
}

type lotRepo struct{ db *gorm.DB }

func NewLotRepository(db *gorm.DB) LotRepository { return &lotRepo{db: db} }

func (r *lotRepo) CreateTx(tx *gorm.DB, l *model.Lot) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(l).Error
}

func (r *lotRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Lot, error) {
	var l model.Lot
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&l).Error
	return &l, err
}

func (r *lotRepo) FindFIFO(ctx context.Context, tx *gorm.DB, tenantID, productID uuid.UUID) ([]model.Lot, error) {
	if tx == nil {
		tx = r.db
	}
	var lots []model.Lot
	err := tx.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND quantity_current > 0", tenantID, productID).
		Order("created_at ASC, id ASC").
		Find(&lots).Error
	return lots, err
}

func (r *lotRepo) SetQuantityTx(tx *gorm.DB, tenantID, lotID uuid.UUID, quantity int) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Model(&model.Lot{}).
		Where("tenant_id = ? AND id = ?", tenantID, lotID).
		Update("quantity_current", quantity).Error
}

func (r *lotRepo) TotalStock(ctx context.Context, tx *gorm.DB, tenantID, productID uuid.UUID) (int, error) {
	if tx == nil {
		tx = r.db
	}
	var total int64
	err := tx.WithContext(ctx).Model(&model.Lot{}).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Select("COALESCE(SUM(quantity_current), 0)").
		Scan(&total).Error
	return int(total), err
}

func (r *lotRepo) CountByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Lot{}).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Count(&count).Error
	return count, err
}

func (r *lotRepo) DB() *gorm.DB { return r.db }
