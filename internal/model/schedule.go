package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Schedule is a staff shift. Schedules are never archived.
type Schedule struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Day       string     `gorm:"type:varchar(16);not null;index" json:"day"`
	StartTime string     `gorm:"type:varchar(5);not null" json:"start_time"` // HH:MM
	EndTime   string     `gorm:"type:varchar(5);not null" json:"end_time"`
	StaffID   *uuid.UUID `gorm:"type:uuid;index" json:"staff_id"`
	Staff     *User      `gorm:"foreignKey:StaffID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Weekdays are the accepted schedule days.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// NormalizeDay returns the canonical weekday name, matching case-insensitively.
func NormalizeDay(day string) (string, bool) {
	for _, d := range Weekdays {
		if strings.EqualFold(strings.TrimSpace(day), d) {
			return d, true
		}
	}
	return "", false
}

// ParseClock parses an HH:MM time of day into minutes after midnight.
func ParseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
