package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lot is a batch of units of a single product and the FIFO unit of the
// ledger. CreatedAt is the FIFO key; ties break by ID.
// Invariant: 0 <= QuantityCurrent <= QuantityInitial.
type Lot struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_lots_fifo,priority:1"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_lots_fifo,priority:2"`
	OrderID         *uuid.UUID `gorm:"type:uuid;index"`
	LotCode         string     `gorm:"not null"`
	QuantityInitial int        `gorm:"not null"`
	QuantityCurrent int        `gorm:"not null"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ExpiryDate      *time.Time
	CreatedAt       time.Time `gorm:"index:idx_lots_fifo,priority:3"`

	Product *Product      `gorm:"foreignKey:ProductID"`
	Order   *InboundOrder `gorm:"foreignKey:OrderID"`
}
