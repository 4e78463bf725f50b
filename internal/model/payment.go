package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods.
const (
	PayViaCash     = "efectivo"
	PayViaTransfer = "transferencia"
	PayViaCheck    = "cheque"
	PayViaCard     = "tarjeta"
	PayViaOther    = "otro"
)

// Payment is one entry of a sale's payment ledger. The sum of a sale's
// payments never exceeds its total amount.
type Payment struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID         uuid.UUID `gorm:"type:uuid;not null;index:idx_payments_tenant_sale,priority:1"`
	SaleID           uuid.UUID `gorm:"type:uuid;not null;index:idx_payments_tenant_sale,priority:2"`
	Amount           decimal.Decimal `gorm:"type:decimal(14,2);not null"` // > 0
	PaymentVia       string          `gorm:"type:varchar(20);not null"`
	PaymentReference *string
	Notes            string
	CreatedBy        *uuid.UUID `gorm:"type:uuid"`
	CreatedAt        time.Time

	Sale *Sale `gorm:"foreignKey:SaleID"`
}
