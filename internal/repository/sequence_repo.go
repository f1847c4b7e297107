package repository

import (
	"context"

	"copycorner/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceRepository backs the sequential code allocator.
type SequenceRepository interface {
	// Lock creates the kind's sequence row if needed and locks it FOR UPDATE.
	Lock(ctx context.Context, kind model.EntityKind) (*model.Sequence, error)
	Save(ctx context.Context, seq *model.Sequence) error
	CountActive(ctx context.Context, kind model.EntityKind) (int64, error)
	// ActiveCodes returns active rows in creation order.
	ActiveCodes(ctx context.Context, kind model.EntityKind) ([]model.CodedRecord, error)
	SetCode(ctx context.Context, kind model.EntityKind, id uuid.UUID, code string) error
}

type sequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) Lock(ctx context.Context, kind model.EntityKind) (*model.Sequence, error) {
	db := GetDB(ctx, r.db)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Sequence{Kind: kind}).Error; err != nil {
		return nil, err
	}

	var seq model.Sequence
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("kind = ?", kind).First(&seq).Error; err != nil {
		return nil, err
	}
	return &seq, nil
}

func (r *sequenceRepository) Save(ctx context.Context, seq *model.Sequence) error {
	return GetDB(ctx, r.db).Save(seq).Error
}

func (r *sequenceRepository) CountActive(ctx context.Context, kind model.EntityKind) (int64, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	var n int64
	err = GetDB(ctx, r.db).Table(t.table).Where("is_archived = ?", false).Count(&n).Error
	return n, err
}

func (r *sequenceRepository) ActiveCodes(ctx context.Context, kind model.EntityKind) ([]model.CodedRecord, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	var rows []model.CodedRecord
	err = GetDB(ctx, r.db).Table(t.table).
		Select("id", "code", "created_at").
		Where("is_archived = ?", false).
		Order("created_at asc").Order("id asc").
		Find(&rows).Error
	return rows, err
}

func (r *sequenceRepository) SetCode(ctx context.Context, kind model.EntityKind, id uuid.UUID, code string) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	return GetDB(ctx, r.db).Table(t.table).Where("id = ?", id).Update("code", code).Error
}
