package repository

import (
	"context"

	"copycorner/internal/model"
	"copycorner/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceTypeRepository interface {
	Create(ctx context.Context, st *model.ServiceType) error
	Update(ctx context.Context, st *model.ServiceType) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ServiceType, error)
	List(ctx context.Context, filter ListFilter, page *pagination.Params) ([]model.ServiceType, int64, error)
}

type serviceTypeRepository struct {
	db *gorm.DB
}

func NewServiceTypeRepository(db *gorm.DB) ServiceTypeRepository {
	return &serviceTypeRepository{db: db}
}

func (r *serviceTypeRepository) Create(ctx context.Context, st *model.ServiceType) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(st).Error
}

func (r *serviceTypeRepository) Update(ctx context.Context, st *model.ServiceType) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(st).Error
}

func (r *serviceTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ServiceType, error) {
	var st model.ServiceType
	if err := GetDB(ctx, r.db).Preload("Category").First(&st, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *serviceTypeRepository) List(ctx context.Context, filter ListFilter, page *pagination.Params) ([]model.ServiceType, int64, error) {
	var types []model.ServiceType

	db := whereArchived(GetDB(ctx, r.db).Model(&model.ServiceType{}), filter)
	if filter.Search != "" {
		db = db.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.CategoryID != nil {
		db = db.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	db, total, err := paginate(db, page)
	if err != nil {
		return nil, 0, err
	}
	if err := orderArchived(db, filter).Preload("Category").Find(&types).Error; err != nil {
		return nil, 0, err
	}

	return types, total, nil
}
