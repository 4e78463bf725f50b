package model

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the top-level isolation boundary. Every other record carries an
// immutable TenantID and every query filters by it.
type Tenant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Slug      string    `gorm:"uniqueIndex;not null"` // URL-safe, unique
	CreatedAt time.Time
	UpdatedAt time.Time
}
