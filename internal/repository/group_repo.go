package repository

import (
	"context"

	"copycorner/internal/model"
	"copycorner/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	Update(ctx context.Context, group *model.Group) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Group, error)
	List(ctx context.Context, filter ListFilter, page *pagination.Params) ([]model.Group, int64, error)
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, group *model.Group) error {
	return GetDB(ctx, r.db).Create(group).Error
}

func (r *groupRepository) Update(ctx context.Context, group *model.Group) error {
	return GetDB(ctx, r.db).Save(group).Error
}

func (r *groupRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Group, error) {
	var group model.Group
	if err := GetDB(ctx, r.db).First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) List(ctx context.Context, filter ListFilter, page *pagination.Params) ([]model.Group, int64, error) {
	var groups []model.Group

	db := whereArchived(GetDB(ctx, r.db).Model(&model.Group{}), filter)
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	db, total, err := paginate(db, page)
	if err != nil {
		return nil, 0, err
	}
	if err := orderArchived(db, filter).Find(&groups).Error; err != nil {
		return nil, 0, err
	}

	return groups, total, nil
}
