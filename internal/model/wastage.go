package model

import (
	"time"

	"github.com/google/uuid"
)

// Wastage reason values.
const (
	WastageExpired = "vencido"
	WastageDamaged = "dañado"
	WastageLost    = "perdido"
	WastageTheft   = "robo"
	WastageOther   = "otro"
)

// Wastage records a non-sale stock decrease. Deleting a wastage record does
// not restock: it removes the audit row only.
type Wastage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity  int       `gorm:"not null"` // >= 1
	Reason    string    `gorm:"type:varchar(20);not null"`
	Notes     string
	CreatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// TableName overrides GORM's default pluralization.
func (Wastage) TableName() string { return "wastages" }
