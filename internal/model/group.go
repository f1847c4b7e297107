package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Group levels
const (
	GroupLevelAdmin = 0
	GroupLevelStaff = 1
)

// Group is a user role.
type Group struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name   string    `gorm:"type:varchar(100);not null;index" json:"name"`
	Level  int       `gorm:"type:int;not null" json:"level"`
	Status string    `gorm:"type:varchar(20);not null;default:'Active'" json:"status"`
	ArchiveState
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsStaff reports whether members of the group are staff.
func (g *Group) IsStaff() bool {
	return strings.Contains(strings.ToLower(g.Name), "staff")
}
