package model

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLog is the append-only audit trail. Core APIs never edit or delete
// entries; persistence happens on the worker queue off the commit path.
type ActivityLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID      *uuid.UUID `gorm:"type:uuid"`
	Module      string     `gorm:"type:varchar(30);not null;index"`
	Action      string     `gorm:"type:varchar(30);not null"`
	Description string
	TargetID    *uuid.UUID `gorm:"type:uuid"`
	TargetType  *string
	Details     string `gorm:"type:jsonb;default:'{}'"`
	IPAddress   string
	CreatedAt   time.Time

	User *User `gorm:"foreignKey:UserID"`
}

// TableName overrides GORM's default pluralization.
func (ActivityLog) TableName() string { return "activity_logs" }
