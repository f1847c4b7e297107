package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreate   = "CREATE"
	ActionUpdate   = "UPDATE"
	ActionArchive  = "ARCHIVE"
	ActionRestore  = "RESTORE"
	ActionPurge    = "PURGE"
	ActionRenumber = "RENUMBER"
	ActionLogin    = "LOGIN"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for anonymous callers
	User       *User      `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL;" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityKind EntityKind `gorm:"type:varchar(32);index" json:"entity_kind"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
