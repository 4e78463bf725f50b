package model

import (
	"time"

	"github.com/google/uuid"
)

// User stores system users with role-based access.
// Role: "admin" | "manager" | "warehouse" | "sales" | "driver"
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_users_tenant_username"`
	Username     string    `gorm:"not null;uniqueIndex:idx_users_tenant_username"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"type:varchar(20);not null"`
	IsActive     bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Tenant *Tenant `gorm:"foreignKey:TenantID"`
}
