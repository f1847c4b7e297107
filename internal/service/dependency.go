package service

import (
	"context"
	"fmt"

	"copycorner/internal/apperror"
	"copycorner/internal/model"
	"copycorner/internal/repository"

	"github.com/google/uuid"
)

// DependencyReport summarizes the live records referencing one entity.
type DependencyReport struct {
	Total  int64
	Counts map[model.EntityKind]int64
	Sample []model.DependentRef
}

// DependencyResolver counts live dependents per model.DependencyRules, for
// guarding destructive transitions and for enriching read responses.
type DependencyResolver interface {
	Resolve(ctx context.Context, kind model.EntityKind, id uuid.UUID) (*DependencyReport, error)
	// Guard fails with DependencyConflict when the entity has live dependents.
	Guard(ctx context.Context, kind model.EntityKind, id uuid.UUID, name, op string) error
	// Counts batches dependent counts for many parents of one kind.
	Counts(ctx context.Context, kind model.EntityKind, ids []uuid.UUID) (map[uuid.UUID]map[model.EntityKind]int64, error)
}

type dependencyResolver struct {
	depRepo repository.DependencyRepository
}

func NewDependencyResolver(depRepo repository.DependencyRepository) DependencyResolver {
	return &dependencyResolver{depRepo: depRepo}
}

func (r *dependencyResolver) Resolve(ctx context.Context, kind model.EntityKind, id uuid.UUID) (*DependencyReport, error) {
	report := &DependencyReport{Counts: make(map[model.EntityKind]int64)}

	for _, rule := range model.RulesFor(kind) {
		counts, err := r.depRepo.Count(ctx, rule, []uuid.UUID{id})
		if err != nil {
			return nil, fmt.Errorf("failed to count %s of %s: %w", rule.Dependent.Plural(), kind, err)
		}
		n := counts[id]
		report.Counts[rule.Dependent] += n
		report.Total += n

		if n == 0 || len(report.Sample) >= apperror.MaxSample {
			continue
		}
		refs, err := r.depRepo.Sample(ctx, rule, id, apperror.MaxSample-len(report.Sample))
		if err != nil {
			return nil, fmt.Errorf("failed to sample %s of %s: %w", rule.Dependent.Plural(), kind, err)
		}
		report.Sample = append(report.Sample, refs...)
	}

	return report, nil
}

func (r *dependencyResolver) Guard(ctx context.Context, kind model.EntityKind, id uuid.UUID, name, op string) error {
	report, err := r.Resolve(ctx, kind, id)
	if err != nil {
		return err
	}
	if report.Total > 0 {
		return apperror.DependencyConflict(kind, name, op, report.Total, report.Sample)
	}
	return nil
}

func (r *dependencyResolver) Counts(ctx context.Context, kind model.EntityKind, ids []uuid.UUID) (map[uuid.UUID]map[model.EntityKind]int64, error) {
	out := make(map[uuid.UUID]map[model.EntityKind]int64, len(ids))
	for _, id := range ids {
		out[id] = make(map[model.EntityKind]int64)
	}
	if len(ids) == 0 {
		return out, nil
	}

	for _, rule := range model.RulesFor(kind) {
		counts, err := r.depRepo.Count(ctx, rule, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s of %s: %w", rule.Dependent.Plural(), kind.Plural(), err)
		}
		for id, n := range counts {
			if m, ok := out[id]; ok {
				m[rule.Dependent] += n
			}
		}
	}
	return out, nil
}
