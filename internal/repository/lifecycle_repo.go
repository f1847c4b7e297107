package repository

import (
	"context"
	"fmt"
	"time"

	"copycorner/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type kindTable struct {
	table  string
	key    string // unique among active rows, empty when the kind has none
	label  string // SQL expression naming a row in messages
	parent string // required-parent column, empty when none
}

var kindTables = map[model.EntityKind]kindTable{
	model.KindCategory:    {table: "categories", key: "name", label: "name"},
	model.KindProduct:     {table: "products", key: "name", label: "name", parent: "category_id"},
	model.KindServiceType: {table: "service_types", key: "name", label: "name", parent: "category_id"},
	model.KindGroup:       {table: "groups", key: "name", label: "name"},
	model.KindUser:        {table: "users", key: "username", label: "username", parent: "group_id"},
	model.KindTransaction: {table: "transactions", label: "code"},
	model.KindSchedule:    {table: "schedules", label: "day || ' ' || start_time"},
}

func tableFor(kind model.EntityKind) (kindTable, error) {
	t, ok := kindTables[kind]
	if !ok {
		return kindTable{}, fmt.Errorf("unknown entity kind %q", kind)
	}
	return t, nil
}

// LifecycleRepository reads and flips the archive state of any kind without
// knowing its concrete model.
type LifecycleRepository interface {
	// LockForUpdate loads the row and holds an exclusive row lock until the
	// surrounding transaction ends.
	LockForUpdate(ctx context.Context, kind model.EntityKind, id uuid.UUID) (*model.LifecycleRecord, error)
	// LockForShare loads the row and blocks concurrent archive/purge of it.
	LockForShare(ctx context.Context, kind model.EntityKind, id uuid.UUID) (*model.LifecycleRecord, error)
	KeyTaken(ctx context.Context, kind model.EntityKind, key string, exclude uuid.UUID) (bool, error)
	SetState(ctx context.Context, kind model.EntityKind, id uuid.UUID, state model.ArchiveState, now time.Time) error
	Purge(ctx context.Context, kind model.EntityKind, id uuid.UUID) (bool, error)
}

type lifecycleRepository struct {
	db *gorm.DB
}

func NewLifecycleRepository(db *gorm.DB) LifecycleRepository {
	return &lifecycleRepository{db: db}
}

type lifecycleRow struct {
	ID         uuid.UUID  `gorm:"column:id"`
	RecordKey  string     `gorm:"column:record_key"`
	Label      string     `gorm:"column:record_label"`
	ParentID   *uuid.UUID `gorm:"column:parent_id"`
	IsArchived bool       `gorm:"column:is_archived"`
	ArchivedAt *time.Time `gorm:"column:archived_at"`
	RestoredAt *time.Time `gorm:"column:restored_at"`
}

func (r *lifecycleRepository) lock(ctx context.Context, kind model.EntityKind, id uuid.UUID, strength string) (*model.LifecycleRecord, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	cols := []string{"id", t.label + " AS record_label"}
	if t.key != "" {
		cols = append(cols, t.key+" AS record_key")
	} else {
		cols = append(cols, "'' AS record_key")
	}
	if t.parent != "" {
		cols = append(cols, t.parent+" AS parent_id")
	} else {
		cols = append(cols, "NULL::uuid AS parent_id")
	}
	if kind.Archivable() {
		cols = append(cols, "is_archived", "archived_at", "restored_at")
	} else {
		cols = append(cols, "false AS is_archived", "NULL::timestamptz AS archived_at", "NULL::timestamptz AS restored_at")
	}

	var row lifecycleRow
	err = GetDB(ctx, r.db).Table(t.table).Select(cols).
		Clauses(clause.Locking{Strength: strength}).
		Where("id = ?", id).Take(&row).Error
	if err != nil {
		return nil, err
	}

	return &model.LifecycleRecord{
		ID:       row.ID,
		Key:      row.RecordKey,
		Label:    row.Label,
		ParentID: row.ParentID,
		ArchiveState: model.ArchiveState{
			IsArchived: row.IsArchived,
			ArchivedAt: row.ArchivedAt,
			RestoredAt: row.RestoredAt,
		},
	}, nil
}

func (r *lifecycleRepository) LockForUpdate(ctx context.Context, kind model.EntityKind, id uuid.UUID) (*model.LifecycleRecord, error) {
	return r.lock(ctx, kind, id, "UPDATE")
}

func (r *lifecycleRepository) LockForShare(ctx context.Context, kind model.EntityKind, id uuid.UUID) (*model.LifecycleRecord, error) {
	return r.lock(ctx, kind, id, "SHARE")
}

func (r *lifecycleRepository) KeyTaken(ctx context.Context, kind model.EntityKind, key string, exclude uuid.UUID) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	if t.key == "" {
		return false, nil
	}

	var n int64
	err = GetDB(ctx, r.db).Table(t.table).
		Where(t.key+" = ? AND is_archived = ? AND id <> ?", key, false, exclude).
		Count(&n).Error
	return n > 0, err
}

func (r *lifecycleRepository) SetState(ctx context.Context, kind model.EntityKind, id uuid.UUID, state model.ArchiveState, now time.Time) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	return GetDB(ctx, r.db).Table(t.table).Where("id = ?", id).Updates(map[string]interface{}{
		"is_archived": state.IsArchived,
		"archived_at": state.ArchivedAt,
		"restored_at": state.RestoredAt,
		"updated_at":  now,
	}).Error
}

func (r *lifecycleRepository) Purge(ctx context.Context, kind model.EntityKind, id uuid.UUID) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	res := GetDB(ctx, r.db).Exec("DELETE FROM ? WHERE id = ?", clause.Table{Name: t.table}, id)
	return res.RowsAffected > 0, res.Error
}
