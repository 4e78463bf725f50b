package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Stock is never stored here: the quantity on
// hand is always the sum of the product's lots (see repository.LotRepository).
// A product acting as the parent side of at least one BundleComponent edge is
// a bundle.
type Product struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_products_tenant_sku"`
	SKU           string    `gorm:"not null;uniqueIndex:idx_products_tenant_sku"`
	Name          string    `gorm:"index;not null"`
	Description   *string
	Category      string
	BasePrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CriticalStock int             `gorm:"not null;default:5"`
	ExpiryDate    *time.Time
	ShopifyID     *string `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Tenant *Tenant `gorm:"foreignKey:TenantID"`
}

// BundleComponent is one edge of the bundle graph: consuming the bundle
// consumes Quantity units of the component. Components may themselves be
// bundles; cycles are rejected at expansion time.
type BundleComponent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index"`
	BundleID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bundle_component"`
	ComponentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bundle_component"`
	Quantity    int       `gorm:"not null"` // >= 1
	CreatedAt   time.Time

	Bundle    *Product `gorm:"foreignKey:BundleID"`
	Component *Product `gorm:"foreignKey:ComponentID"`
}
