package model

import (
	"time"

	"github.com/google/uuid"
)

// Shared Active/Inactive status values for service types, groups and users.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// ServiceType is a sellable service (printing, lamination, ...).
type ServiceType struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code        string     `gorm:"type:varchar(32);index" json:"code"`
	Name        string     `gorm:"type:varchar(255);not null;index" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	CategoryID  *uuid.UUID `gorm:"type:uuid;index" json:"category_id"`
	Category    *Category  `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Status      string     `gorm:"type:varchar(20);not null;default:'Active'" json:"status"`
	UsesPages   bool       `gorm:"not null;default:false" json:"uses_pages"` // stock is consumed per page
	ArchiveState
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
