package repository

import (
	"context"

	"copycorner/internal/model"
	"copycorner/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	List(ctx context.Context, filter ListFilter, page *pagination.Params) ([]model.Category, int64, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return GetDB(ctx, r.db).Create(category).Error
}

func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	return GetDB(ctx, r.db).Save(category).Error
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := GetDB(ctx, r.db).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context, filter ListFilter, page *pagination.Params) ([]model.Category, int64, error) {
	var categories []model.Category

	db := whereArchived(GetDB(ctx, r.db).Model(&model.Category{}), filter)
	if filter.Search != "" {
		db = db.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	db, total, err := paginate(db, page)
	if err != nil {
		return nil, 0, err
	}
	if err := orderArchived(db, filter).Find(&categories).Error; err != nil {
		return nil, 0, err
	}

	return categories, total, nil
}
