package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Inbound order status values.
const (
	OrderStatusPending           = "pending"
	OrderStatusPartiallyReceived = "partially_received"
	OrderStatusReceived          = "received"
	OrderStatusPaid              = "paid"
)

// InboundOrder is a purchase order from a supplier. Confirming reception
// (possibly partially) turns its line items into lots.
type InboundOrder struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	SupplierID    *uuid.UUID `gorm:"type:uuid;index"`
	SupplierName  string     // free-text fallback when no supplier record exists
	InvoiceNumber string     `gorm:"not null"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending'"`
	Total         decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Notes         string
	DateReceived  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Supplier *Supplier   `gorm:"foreignKey:SupplierID"`
	Items    []OrderItem `gorm:"foreignKey:OrderID"`
}

// OrderItem is an inbound order line. QuantityReceived is monotonically
// non-decreasing and clamped at QuantityOrdered.
type OrderItem struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID         uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderID          uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID `gorm:"type:uuid;not null"`
	ProductName      string
	ProductSKU       string
	QuantityOrdered  int             `gorm:"not null"` // >= 1
	QuantityReceived int             `gorm:"not null;default:0"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Position         int             `gorm:"not null;default:0"` // ordering within the parent

	Product *Product `gorm:"foreignKey:ProductID"`
}
