package model

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is a creditor in the receiving pipeline. RUT is the Chilean tax
// id, unique per tenant when present. Abbreviation feeds lot-code generation.
type Supplier struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Name         string    `gorm:"not null"`
	RUT          *string   `gorm:"index"`
	Abbreviation *string   `gorm:"type:varchar(10)"`
	ContactInfo  string
	IsActive     bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Tenant *Tenant `gorm:"foreignKey:TenantID"`
}

// TableName overrides GORM's default pluralization.
func (Supplier) TableName() string { return "suppliers" }
