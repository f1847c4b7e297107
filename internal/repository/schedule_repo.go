package repository

import (
	"context"

	"copycorner/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.Schedule) error
	Update(ctx context.Context, schedule *model.Schedule) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Schedule, error)
	List(ctx context.Context) ([]model.Schedule, error)
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *model.Schedule) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(schedule).Error
}

func (r *scheduleRepository) Update(ctx context.Context, schedule *model.Schedule) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(schedule).Error
}

func (r *scheduleRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Schedule{})
	return res.RowsAffected > 0, res.Error
}

func (r *scheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	var schedule model.Schedule
	if err := GetDB(ctx, r.db).Preload("Staff").First(&schedule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepository) List(ctx context.Context) ([]model.Schedule, error) {
	var schedules []model.Schedule
	if err := GetDB(ctx, r.db).Preload("Staff").Order("created_at asc").Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}
