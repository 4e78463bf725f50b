package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bank transaction status and match types.
const (
	TxPending = "pending"
	TxMatched = "matched"
	TxIgnored = "ignored"

	TxTypeCredit = "credit"
	TxTypeDebit  = "debit"

	MatchAuto   = "auto"
	MatchManual = "manual"
)

// BankTransaction is one imported bank-statement row. Amount is stored as an
// absolute value; the sign of the parsed figure decides TransactionType.
// (tenant, date, amount, description) must not duplicate on re-import.
type BankTransaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_banktx_dedupe,priority:1"`
	Date            time.Time       `gorm:"not null;uniqueIndex:idx_banktx_dedupe,priority:2"`
	Amount          decimal.Decimal `gorm:"type:decimal(14,2);not null;uniqueIndex:idx_banktx_dedupe,priority:3"` // > 0
	Description     string          `gorm:"uniqueIndex:idx_banktx_dedupe,priority:4"`
	Reference       string
	TransactionType string  `gorm:"type:varchar(10);not null"`
	Status          string  `gorm:"type:varchar(10);not null;default:'pending'"`
	MatchedSaleID   *uuid.UUID `gorm:"type:uuid;index"`
	MatchType       *string    `gorm:"type:varchar(10)"`
	MatchedAt       *time.Time
	MatchedBy       *uuid.UUID `gorm:"type:uuid"`
	SourceFile      string
	RowNumber       int
	CreatedAt       time.Time

	MatchedSale *Sale `gorm:"foreignKey:MatchedSaleID"`
}

// TableName overrides GORM's default pluralization.
func (BankTransaction) TableName() string { return "bank_transactions" }
