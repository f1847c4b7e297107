package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"copycorner/internal/apperror"
	"copycorner/internal/model"
	"copycorner/internal/pkg/clock"
	"copycorner/internal/repository"
	"copycorner/pkg/pagination"

	"github.com/google/uuid"
)

// DTOs
type CategoryRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
}

type CategoryResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	ProductCount     int64  `json:"product_count"`
	ServiceTypeCount int64  `json:"service_type_count"`
	ArchiveFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CategoryService interface {
	List(ctx context.Context, search string, page *pagination.Params) ([]CategoryResponse, int64, error)
	ListArchived(ctx context.Context, page *pagination.Params) ([]CategoryResponse, int64, error)
	Get(ctx context.Context, id string) (*CategoryResponse, error)
	Create(ctx context.Context, userID string, req CategoryRequest) (*CategoryResponse, error)
	Update(ctx context.Context, userID, id string, req CategoryRequest) (*CategoryResponse, error)
	Archive(ctx context.Context, userID, id string) (*CategoryResponse, error)
	Restore(ctx context.Context, userID, id string) (*CategoryResponse, error)
	Purge(ctx context.Context, userID, id string, force bool) error
}

type categoryService struct {
	categoryRepo  repository.CategoryRepository
	lifecycleRepo repository.LifecycleRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	resolver      DependencyResolver
	lifecycle     Lifecycle
	clock         clock.Clock
}

func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	lifecycleRepo repository.LifecycleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	resolver DependencyResolver,
	lifecycle Lifecycle,
	clk clock.Clock,
) CategoryService {
	return &categoryService{
		categoryRepo:  categoryRepo,
		lifecycleRepo: lifecycleRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		resolver:      resolver,
		lifecycle:     lifecycle,
		clock:         clk,
	}
}

func (s *categoryService) List(ctx context.Context, search string, page *pagination.Params) ([]CategoryResponse, int64, error) {
	return s.list(ctx, repository.ListFilter{Search: search}, page)
}

func (s *categoryService) ListArchived(ctx context.Context, page *pagination.Params) ([]CategoryResponse, int64, error) {
	return s.list(ctx, repository.ListFilter{Archived: true}, page)
}

func (s *categoryService) list(ctx context.Context, filter repository.ListFilter, page *pagination.Params) ([]CategoryResponse, int64, error) {
	categories, total, err := s.categoryRepo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list categories: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}
	counts, err := s.resolver.Counts(ctx, model.KindCategory, ids)
	if err != nil {
		return nil, 0, err
	}

	res := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		res = append(res, toCategoryResponse(&categories[i], counts[categories[i].ID]))
	}
	return res, total, nil
}

func (s *categoryService) Get(ctx context.Context, id string) (*CategoryResponse, error) {
	categoryID, err := parseID(model.KindCategory, id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, categoryID)
}

func (s *categoryService) load(ctx context.Context, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, model.KindCategory)
	}
	counts, err := s.resolver.Counts(ctx, model.KindCategory, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	res := toCategoryResponse(category, counts[id])
	return &res, nil
}

func (s *categoryService) Create(ctx context.Context, userID string, req CategoryRequest) (*CategoryResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Category name is required")
	}

	category := model.Category{Name: name, Description: strings.TrimSpace(req.Description)}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		taken, err := s.lifecycleRepo.KeyTaken(txCtx, model.KindCategory, name, uuid.Nil)
		if err != nil {
			return fmt.Errorf("failed to check category name: %w", err)
		}
		if taken {
			return apperror.Duplicate(model.KindCategory, "name", name)
		}

		if err := s.categoryRepo.Create(txCtx, &category); err != nil {
			return saveErr(err, model.KindCategory, "name", name)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreate, model.KindCategory, category.ID.String(), category.Name, req)
	})
	if err != nil {
		return nil, err
	}

	res := toCategoryResponse(&category, nil)
	return &res, nil
}

// Update renames or re-describes a category. A rename is refused while live
// products or service types reference the category.
func (s *categoryService) Update(ctx context.Context, userID, id string, req CategoryRequest) (*CategoryResponse, error) {
	categoryID, err := parseID(model.KindCategory, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Category name is required")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rec, err := s.lifecycleRepo.LockForUpdate(txCtx, model.KindCategory, categoryID)
		if err != nil {
			return notFoundOr(err, model.KindCategory)
		}
		if rec.IsArchived {
			return apperror.InvalidState("Archived categories cannot be edited, restore it first")
		}

		category, err := s.categoryRepo.FindByID(txCtx, categoryID)
		if err != nil {
			return notFoundOr(err, model.KindCategory)
		}

		if name != category.Name {
			if err := s.resolver.Guard(txCtx, model.KindCategory, categoryID, category.Name, "rename"); err != nil {
				return err
			}
			taken, err := s.lifecycleRepo.KeyTaken(txCtx, model.KindCategory, name, categoryID)
			if err != nil {
				return fmt.Errorf("failed to check category name: %w", err)
			}
			if taken {
				return apperror.Duplicate(model.KindCategory, "name", name)
			}
		}

		category.Name = name
		category.Description = strings.TrimSpace(req.Description)
		category.UpdatedAt = s.clock.Now()
		if err := s.categoryRepo.Update(txCtx, category); err != nil {
			return saveErr(err, model.KindCategory, "name", name)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdate, model.KindCategory, id, name, req)
	})
	if err != nil {
		return nil, err
	}

	return s.load(ctx, categoryID)
}

func (s *categoryService) Archive(ctx context.Context, userID, id string) (*CategoryResponse, error) {
	categoryID, err := parseID(model.KindCategory, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Archive(ctx, userID, model.KindCategory, categoryID); err != nil {
		return nil, err
	}
	return s.load(ctx, categoryID)
}

func (s *categoryService) Restore(ctx context.Context, userID, id string) (*CategoryResponse, error) {
	categoryID, err := parseID(model.KindCategory, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Restore(ctx, userID, model.KindCategory, categoryID); err != nil {
		return nil, err
	}
	return s.load(ctx, categoryID)
}

func (s *categoryService) Purge(ctx context.Context, userID, id string, force bool) error {
	categoryID, err := parseID(model.KindCategory, id)
	if err != nil {
		return err
	}
	return s.lifecycle.Purge(ctx, userID, model.KindCategory, categoryID, force)
}

func toCategoryResponse(c *model.Category, counts map[model.EntityKind]int64) CategoryResponse {
	return CategoryResponse{
		ID:               c.ID.String(),
		Name:             c.Name,
		Description:      c.Description,
		ProductCount:     counts[model.KindProduct],
		ServiceTypeCount: counts[model.KindServiceType],
		ArchiveFields:    archiveFields(c.ArchiveState),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}
