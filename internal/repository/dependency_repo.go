package repository

import (
	"context"
	"fmt"

	"copycorner/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// dependentSource tells the resolver how to count and describe rows of a dependent kind.
type dependentSource struct {
	table   string
	active  string // extra predicate for "live" rows, empty when every row counts
	label   string
	context string
}

var dependentSources = map[model.EntityKind]dependentSource{
	model.KindProduct: {
		table: "products", active: "is_archived = false",
		label: "name", context: "code || ' · stock ' || stock_quantity",
	},
	model.KindServiceType: {
		table: "service_types", active: "is_archived = false AND status = 'Active'",
		label: "name", context: "code",
	},
	model.KindTransaction: {
		table: "transactions", active: "is_archived = false",
		label: "code", context: "customer_name || ' · ' || status",
	},
	model.KindUser: {
		table: "users", active: "is_archived = false",
		label: "username", context: "name",
	},
	// schedules have no archive flag, every row counts
	model.KindSchedule: {
		table: "schedules",
		label: "day", context: "start_time || '-' || end_time",
	},
}

// DependencyRepository counts and samples live records that reference a parent.
type DependencyRepository interface {
	Count(ctx context.Context, rule model.DependencyRule, parentIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	Sample(ctx context.Context, rule model.DependencyRule, parentID uuid.UUID, limit int) ([]model.DependentRef, error)
}

type dependencyRepository struct {
	db *gorm.DB
}

func NewDependencyRepository(db *gorm.DB) DependencyRepository {
	return &dependencyRepository{db: db}
}

func (r *dependencyRepository) source(rule model.DependencyRule) (dependentSource, error) {
	src, ok := dependentSources[rule.Dependent]
	if !ok {
		return dependentSource{}, fmt.Errorf("no dependent source for %q", rule.Dependent)
	}
	return src, nil
}

func (r *dependencyRepository) Count(ctx context.Context, rule model.DependencyRule, parentIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(parentIDs))
	if len(parentIDs) == 0 {
		return counts, nil
	}
	src, err := r.source(rule)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ParentID uuid.UUID
		Total    int64
	}
	db := GetDB(ctx, r.db).Table(src.table).
		Select(rule.Field+" AS parent_id, COUNT(*) AS total").
		Where(rule.Field+" IN ?", parentIDs)
	if src.active != "" {
		db = db.Where(src.active)
	}
	if err := db.Group(rule.Field).Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.ParentID] = row.Total
	}
	return counts, nil
}

func (r *dependencyRepository) Sample(ctx context.Context, rule model.DependencyRule, parentID uuid.UUID, limit int) ([]model.DependentRef, error) {
	src, err := r.source(rule)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ID      uuid.UUID
		Label   string
		Context string
	}
	db := GetDB(ctx, r.db).Table(src.table).
		Select("id, "+src.label+" AS label, "+src.context+" AS context").
		Where(rule.Field+" = ?", parentID)
	if src.active != "" {
		db = db.Where(src.active)
	}
	if err := db.Order("created_at asc").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, err
	}

	refs := make([]model.DependentRef, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, model.DependentRef{
			Kind:    rule.Dependent,
			ID:      row.ID,
			Label:   row.Label,
			Context: row.Context,
		})
	}
	return refs, nil
}
