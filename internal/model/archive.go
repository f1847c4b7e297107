package model

import "time"

// EntityKind names a collection that takes part in the archive lifecycle,
// dependency checks or code allocation.
type EntityKind string

const (
	KindCategory    EntityKind = "category"
	KindProduct     EntityKind = "product"
	KindServiceType EntityKind = "service_type"
	KindGroup       EntityKind = "group"
	KindUser        EntityKind = "user"
	KindSchedule    EntityKind = "schedule"
	KindTransaction EntityKind = "transaction"
)

// Label is the human readable name of the kind used in error messages.
func (k EntityKind) Label() string {
	switch k {
	case KindServiceType:
		return "service type"
	default:
		return string(k)
	}
}

// Plural is used for response keys ("products", "service_types", ...).
func (k EntityKind) Plural() string {
	switch k {
	case KindCategory:
		return "categories"
	default:
		return string(k) + "s"
	}
}

// KeyField names the field that must be unique among active records.
func (k EntityKind) KeyField() string {
	if k == KindUser {
		return "username"
	}
	return "name"
}

// Archivable reports whether the kind supports archive/restore.
// Schedules only support hard deletion.
func (k EntityKind) Archivable() bool {
	return k != KindSchedule
}

// ArchiveState is the soft-delete envelope embedded in every archivable model.
// archived_at is kept after a restore as history.
type ArchiveState struct {
	IsArchived bool       `gorm:"not null;default:false;index" json:"is_archived"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	RestoredAt *time.Time `json:"restored_at,omitempty"`
}

func (s *ArchiveState) MarkArchived(now time.Time) {
	s.IsArchived = true
	s.ArchivedAt = &now
}

func (s *ArchiveState) MarkRestored(now time.Time) {
	s.IsArchived = false
	s.RestoredAt = &now
}
