package repository

import (
	"copycorner/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListFilter narrows list queries. Fields a repository does not know about are ignored.
type ListFilter struct {
	Archived   bool
	Search     string
	CategoryID *uuid.UUID
	Status     string
}

func whereArchived(db *gorm.DB, f ListFilter) *gorm.DB {
	return db.Where("is_archived = ?", f.Archived)
}

// orderArchived sorts active rows oldest first and archived rows most
// recently archived first.
func orderArchived(db *gorm.DB, f ListFilter) *gorm.DB {
	if f.Archived {
		return db.Order("archived_at desc").Order("id asc")
	}
	return db.Order("created_at asc").Order("id asc")
}

// paginate counts the filtered rows, clamps page against the total and applies
// offset and limit. A nil page returns every row.
func paginate(db *gorm.DB, page *pagination.Params) (*gorm.DB, int64, error) {
	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page == nil {
		return db, total, nil
	}
	page.Clamp(total)
	return db.Offset(page.Offset).Limit(page.PerPage), total, nil
}
