package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account that can log in.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string     `gorm:"type:varchar(255);not null" json:"name"`
	Username     string     `gorm:"type:varchar(255);not null;index" json:"username"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	GroupID      *uuid.UUID `gorm:"type:uuid;index" json:"group_id"`
	Group        *Group     `gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Status       string     `gorm:"type:varchar(20);not null;default:'Active'" json:"status"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	ArchiveState
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Staff holds academic details of a user whose group is a staff role.
type Staff struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User          *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	StudentNumber string    `gorm:"type:varchar(50)" json:"student_number"`
	Course        string    `gorm:"type:varchar(100)" json:"course"`
	Section       string    `gorm:"type:varchar(50)" json:"section"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
