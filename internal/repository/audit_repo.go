package repository

import (
	"context"

	"copycorner/internal/model"
	"copycorner/pkg/pagination"

	"gorm.io/gorm"
)

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, page *pagination.Params) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Omit("User").Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, page *pagination.Params) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog

	db, total, err := paginate(GetDB(ctx, r.db).Model(&model.AuditLog{}), page)
	if err != nil {
		return nil, 0, err
	}
	if err := db.Preload("User").Order("created_at desc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
