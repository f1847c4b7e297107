package repository

import (
	"context"

	"copycorner/internal/model"
	"copycorner/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StaffRepository reads staff accounts and their academic details.
type StaffRepository interface {
	// ListStaffUsers returns active users whose group name contains "staff".
	ListStaffUsers(ctx context.Context, page *pagination.Params) ([]model.User, int64, error)
	FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]model.Staff, error)
	Upsert(ctx context.Context, staff *model.Staff) error
}

type staffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) ListStaffUsers(ctx context.Context, page *pagination.Params) ([]model.User, int64, error) {
	var users []model.User

	db := GetDB(ctx, r.db).Model(&model.User{}).
		Joins("JOIN groups ON groups.id = users.group_id").
		Where("users.is_archived = ? AND groups.name ILIKE ?", false, "%staff%")

	db, total, err := paginate(db, page)
	if err != nil {
		return nil, 0, err
	}
	if err := db.Preload("Group").Order("users.created_at asc").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *staffRepository) FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]model.Staff, error) {
	res := make(map[uuid.UUID]model.Staff, len(userIDs))
	if len(userIDs) == 0 {
		return res, nil
	}
	var rows []model.Staff
	if err := GetDB(ctx, r.db).Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, s := range rows {
		res[s.UserID] = s
	}
	return res, nil
}

func (r *staffRepository) Upsert(ctx context.Context, staff *model.Staff) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"student_number", "course", "section", "updated_at"}),
	}).Create(staff).Error
}
