package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale type values.
const (
	SaleTypeDelivery = "con_despacho"
	SaleTypeInStore  = "en_local"
)

// Delivery status values. Forward chain: pendiente → en_preparacion →
// en_transito → entregado. cancelado is reachable from any non-terminal
// state; con_observaciones from en_transito or entregado.
const (
	DeliveryPending     = "pendiente"
	DeliveryPreparing   = "en_preparacion"
	DeliveryInTransit   = "en_transito"
	DeliveryDelivered   = "entregado"
	DeliveryObservation = "con_observaciones"
	DeliveryCancelled   = "cancelado"
)

// Payment status values, always derived from totalPaid vs totalAmount.
const (
	PaymentPending = "pendiente"
	PaymentPartial = "parcial"
	PaymentPaid    = "pagado"
)

// Sales channel values.
const (
	ChannelManual    = "manual"
	ChannelWhatsapp  = "whatsapp"
	ChannelShopify   = "shopify"
	ChannelWeb       = "web"
	ChannelWholesale = "mayorista"
)

// Sale is an outbound order. Items are always fetched with their parent.
// TotalAmount is persisted at commit time but redundant with the item sum.
type Sale struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID       uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_sales_tenant_shopify"`
	CustomerName   string    `gorm:"not null"`
	Address        string
	Phone          string
	SaleType       string          `gorm:"type:varchar(20);not null;default:'con_despacho'"`
	SalesChannel   string          `gorm:"type:varchar(20);not null;default:'manual'"`
	DeliveryStatus string          `gorm:"type:varchar(30);not null;default:'pendiente'"`
	PaymentStatus  string          `gorm:"type:varchar(20);not null;default:'pendiente'"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	ShopifyOrderID *string         `gorm:"uniqueIndex:idx_sales_tenant_shopify"`
	DateDelivered  *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Items    []SaleItem `gorm:"foreignKey:SaleID"`
	Payments []Payment  `gorm:"foreignKey:SaleID"`
}

// SaleItem is one sale line priced at the product's base price at commit.
type SaleItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity  int             `gorm:"not null"` // >= 1
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Position  int             `gorm:"not null;default:0"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

// IsTerminalDelivery reports whether no further delivery transition is
// allowed from the given status.
func IsTerminalDelivery(status string) bool {
	return status == DeliveryCancelled
}
