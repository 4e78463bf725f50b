package repository

import (
	"context"
	"time"

	"distriflow/internal/dto"
	"distriflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, o *model.InboundOrder) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.InboundOrder, error)
	List(ctx context.Context, tenantID uuid.UUID, filter dto.OrderFilter) ([]model.InboundOrder, int64, error)
	UpdateStatusTx(tx *gorm.DB, tenantID, id uuid.UUID, status string, dateReceived *time.Time) error
	UpdateItemReceivedTx(tx *gorm.DB, tenantID, itemID uuid.UUID, quantityReceived int) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// FindAdjustmentOrder locates the synthetic daily adjustment order by its
	// invoice number convention; services create one on demand.
	FindAdjustmentOrder(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*model.InboundOrder, error)
	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) Create(ctx context.Context, o *model.InboundOrder) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.InboundOrder, error) {
	var o model.InboundOrder
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&o).Error
	return &o, err
}

func (r *orderRepo) List(ctx context.Context, tenantID uuid.UUID, filter dto.OrderFilter) ([]model.InboundOrder, int64, error) {
	var orders []model.InboundOrder
	var total int64

	q := r.db.WithContext(ctx).Model(&model.InboundOrder{}).Where("tenant_id = ?", tenantID)
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Limit(filter.Limit).Offset(offset).
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) UpdateStatusTx(tx *gorm.DB, tenantID, id uuid.UUID, status string, dateReceived *time.Time) error {
	if tx == nil {
		tx = r.db
	}
	updates := map[string]interface{}{"status": status}
	if dateReceived != nil {
		updates["date_received"] = dateReceived
	}
	return tx.Model(&model.InboundOrder{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(updates).Error
}

func (r *orderRepo) UpdateItemReceivedTx(tx *gorm.DB, tenantID, itemID uuid.UUID, quantityReceived int) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Model(&model.OrderItem{}).
		Where("tenant_id = ? AND id = ?", tenantID, itemID).
		Update("quantity_received", quantityReceived).Error
}

func (r *orderRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND order_id = ?", tenantID, id).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&model.InboundOrder{}).Error
	})
}

func (r *orderRepo) FindAdjustmentOrder(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*model.InboundOrder, error) {
	var o model.InboundOrder
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_number = ?", tenantID, invoiceNumber).
		First(&o).Error
	return &o, err
}

func (r *orderRepo) DB() *gorm.DB { return r.db }
