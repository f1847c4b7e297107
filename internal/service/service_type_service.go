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
type ServiceTypeRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description string  `json:"description"`
	CategoryID  *string `json:"category_id" binding:"omitempty,uuid"`
	Status      string  `json:"status" binding:"omitempty,oneof=Active Inactive"`
	UsesPages   *bool   `json:"uses_pages"`
}

type ServiceTypeResponse struct {
	ID               string  `json:"id"`
	Code             string  `json:"code"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	CategoryID       *string `json:"category_id"`
	CategoryName     string  `json:"category_name"`
	Status           string  `json:"status"`
	UsesPages        bool    `json:"uses_pages"`
	TransactionCount int64   `json:"transaction_count"`
	ArchiveFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServiceTypeSettings lists the service names that consume stock per page
// when the client does not say otherwise.
type ServiceTypeSettings struct {
	PaperServices []string
}

func (s ServiceTypeSettings) usesPages(name string) bool {
	for _, p := range s.PaperServices {
		if strings.EqualFold(strings.TrimSpace(p), name) {
			return true
		}
	}
	return false
}

type ServiceTypeService interface {
	List(ctx context.Context, search string, page *pagination.Params) ([]ServiceTypeResponse, int64, error)
	ListArchived(ctx context.Context, page *pagination.Params) ([]ServiceTypeResponse, int64, error)
	ListByCategory(ctx context.Context, categoryID string) ([]ServiceTypeResponse, error)
	ListProducts(ctx context.Context, id string) ([]ProductResponse, error)
	Get(ctx context.Context, id string) (*ServiceTypeResponse, error)
	Create(ctx context.Context, userID string, req ServiceTypeRequest) (*ServiceTypeResponse, error)
	Update(ctx context.Context, userID, id string, req ServiceTypeRequest) (*ServiceTypeResponse, error)
	Archive(ctx context.Context, userID, id string) (*ServiceTypeResponse, error)
	Restore(ctx context.Context, userID, id string) (*ServiceTypeResponse, error)
	Purge(ctx context.Context, userID, id string, force bool) error
	Renumber(ctx context.Context, userID string) (int, error)
}

type serviceTypeService struct {
	serviceTypeRepo repository.ServiceTypeRepository
	productRepo     repository.ProductRepository
	lifecycleRepo   repository.LifecycleRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
	allocator       CodeAllocator
	resolver        DependencyResolver
	lifecycle       Lifecycle
	clock           clock.Clock
	settings        ServiceTypeSettings
}

func NewServiceTypeService(
	serviceTypeRepo repository.ServiceTypeRepository,
	productRepo repository.ProductRepository,
	lifecycleRepo repository.LifecycleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	allocator CodeAllocator,
	resolver DependencyResolver,
	lifecycle Lifecycle,
	clk clock.Clock,
	settings ServiceTypeSettings,
) ServiceTypeService {
	return &serviceTypeService{
		serviceTypeRepo: serviceTypeRepo,
		productRepo:     productRepo,
		lifecycleRepo:   lifecycleRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
		allocator:       allocator,
		resolver:        resolver,
		lifecycle:       lifecycle,
		clock:           clk,
		settings:        settings,
	}
}

func (s *serviceTypeService) List(ctx context.Context, search string, page *pagination.Params) ([]ServiceTypeResponse, int64, error) {
	return s.list(ctx, repository.ListFilter{Search: search}, page)
}

func (s *serviceTypeService) ListArchived(ctx context.Context, page *pagination.Params) ([]ServiceTypeResponse, int64, error) {
	return s.list(ctx, repository.ListFilter{Archived: true}, page)
}

// ListByCategory returns the live, Active service types of one category.
func (s *serviceTypeService) ListByCategory(ctx context.Context, categoryID string) ([]ServiceTypeResponse, error) {
	id, err := parseID(model.KindCategory, categoryID)
	if err != nil {
		return nil, err
	}
	res, _, err := s.list(ctx, repository.ListFilter{CategoryID: &id, Status: model.StatusActive}, nil)
	return res, err
}

// ListProducts returns the live products that share the service type's category.
func (s *serviceTypeService) ListProducts(ctx context.Context, id string) ([]ProductResponse, error) {
	stID, err := parseID(model.KindServiceType, id)
	if err != nil {
		return nil, err
	}
	st, err := s.serviceTypeRepo.FindByID(ctx, stID)
	if err != nil {
		return nil, notFoundOr(err, model.KindServiceType)
	}
	if st.CategoryID == nil {
		return []ProductResponse{}, nil
	}

	products, _, err := s.productRepo.List(ctx, repository.ListFilter{CategoryID: st.CategoryID}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}
	return res, nil
}

func (s *serviceTypeService) list(ctx context.Context, filter repository.ListFilter, page *pagination.Params) ([]ServiceTypeResponse, int64, error) {
	types, total, err := s.serviceTypeRepo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list service types: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(types))
	for _, t := range types {
		ids = append(ids, t.ID)
	}
	counts, err := s.resolver.Counts(ctx, model.KindServiceType, ids)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ServiceTypeResponse, 0, len(types))
	for i := range types {
		res = append(res, toServiceTypeResponse(&types[i], counts[types[i].ID]))
	}
	return res, total, nil
}

func (s *serviceTypeService) Get(ctx context.Context, id string) (*ServiceTypeResponse, error) {
	stID, err := parseID(model.KindServiceType, id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, stID)
}

func (s *serviceTypeService) load(ctx context.Context, id uuid.UUID) (*ServiceTypeResponse, error) {
	st, err := s.serviceTypeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, model.KindServiceType)
	}
	counts, err := s.resolver.Counts(ctx, model.KindServiceType, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	res := toServiceTypeResponse(st, counts[id])
	return &res, nil
}

func (s *serviceTypeService) Create(ctx context.Context, userID string, req ServiceTypeRequest) (*ServiceTypeResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Service type name is required")
	}
	categoryID, err := parseOptionalID(model.KindCategory, req.CategoryID)
	if err != nil {
		return nil, err
	}

	st := model.ServiceType{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CategoryID:  categoryID,
		Status:      statusOrActive(req.Status),
		UsesPages:   s.settings.usesPages(name),
	}
	if req.UsesPages != nil {
		st.UsesPages = *req.UsesPages
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		alloc, err := s.allocator.Next(txCtx, model.KindServiceType)
		if err != nil {
			return err
		}
		st.Code = alloc.Code

		if categoryID != nil {
			if _, err := requireLive(txCtx, s.lifecycleRepo, model.KindCategory, *categoryID); err != nil {
				return err
			}
		}

		taken, err := s.lifecycleRepo.KeyTaken(txCtx, model.KindServiceType, name, uuid.Nil)
		if err != nil {
			return fmt.Errorf("failed to check service type name: %w", err)
		}
		if taken {
			return apperror.Duplicate(model.KindServiceType, "name", name)
		}

		if err := s.serviceTypeRepo.Create(txCtx, &st); err != nil {
			return saveErr(err, model.KindServiceType, "name", name)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreate, model.KindServiceType, st.ID.String(), st.Name, req)
	})
	if err != nil {
		return nil, err
	}

	return s.load(ctx, st.ID)
}

// Update edits a service type. Renaming is refused while live transactions
// reference it.
func (s *serviceTypeService) Update(ctx context.Context, userID, id string, req ServiceTypeRequest) (*ServiceTypeResponse, error) {
	stID, err := parseID(model.KindServiceType, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Service type name is required")
	}
	categoryID, err := parseOptionalID(model.KindCategory, req.CategoryID)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rec, err := s.lifecycleRepo.LockForUpdate(txCtx, model.KindServiceType, stID)
		if err != nil {
			return notFoundOr(err, model.KindServiceType)
		}
		if rec.IsArchived {
			return apperror.InvalidState("Archived service types cannot be edited, restore it first")
		}

		st, err := s.serviceTypeRepo.FindByID(txCtx, stID)
		if err != nil {
			return notFoundOr(err, model.KindServiceType)
		}

		if name != st.Name {
			if err := s.resolver.Guard(txCtx, model.KindServiceType, stID, st.Name, "rename"); err != nil {
				return err
			}
			taken, err := s.lifecycleRepo.KeyTaken(txCtx, model.KindServiceType, name, stID)
			if err != nil {
				return fmt.Errorf("failed to check service type name: %w", err)
			}
			if taken {
				return apperror.Duplicate(model.KindServiceType, "name", name)
			}
		}
		if categoryID != nil && !sameID(categoryID, st.CategoryID) {
			if _, err := requireLive(txCtx, s.lifecycleRepo, model.KindCategory, *categoryID); err != nil {
				return err
			}
		}

		st.Name = name
		st.Description = strings.TrimSpace(req.Description)
		st.CategoryID = categoryID
		st.Category = nil
		if req.Status != "" {
			st.Status = req.Status
		}
		if req.UsesPages != nil {
			st.UsesPages = *req.UsesPages
		}
		st.UpdatedAt = s.clock.Now()
		if err := s.serviceTypeRepo.Update(txCtx, st); err != nil {
			return saveErr(err, model.KindServiceType, "name", name)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdate, model.KindServiceType, id, name, req)
	})
	if err != nil {
		return nil, err
	}

	return s.load(ctx, stID)
}

func (s *serviceTypeService) Archive(ctx context.Context, userID, id string) (*ServiceTypeResponse, error) {
	stID, err := parseID(model.KindServiceType, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Archive(ctx, userID, model.KindServiceType, stID); err != nil {
		return nil, err
	}
	return s.load(ctx, stID)
}

func (s *serviceTypeService) Restore(ctx context.Context, userID, id string) (*ServiceTypeResponse, error) {
	stID, err := parseID(model.KindServiceType, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Restore(ctx, userID, model.KindServiceType, stID); err != nil {
		return nil, err
	}
	return s.load(ctx, stID)
}

func (s *serviceTypeService) Purge(ctx context.Context, userID, id string, force bool) error {
	stID, err := parseID(model.KindServiceType, id)
	if err != nil {
		return err
	}
	return s.lifecycle.Purge(ctx, userID, model.KindServiceType, stID, force)
}

func (s *serviceTypeService) Renumber(ctx context.Context, userID string) (int, error) {
	return s.lifecycle.Renumber(ctx, userID, model.KindServiceType)
}

func statusOrActive(status string) string {
	if status == "" {
		return model.StatusActive
	}
	return status
}

func toServiceTypeResponse(st *model.ServiceType, counts map[model.EntityKind]int64) ServiceTypeResponse {
	res := ServiceTypeResponse{
		ID:               st.ID.String(),
		Code:             model.DisplayCode(st.Code, st.IsArchived),
		Name:             st.Name,
		Description:      st.Description,
		Status:           st.Status,
		UsesPages:        st.UsesPages,
		TransactionCount: counts[model.KindTransaction],
		ArchiveFields:    archiveFields(st.ArchiveState),
		CreatedAt:        st.CreatedAt,
		UpdatedAt:        st.UpdatedAt,
	}
	if st.CategoryID != nil {
		cid := st.CategoryID.String()
		res.CategoryID = &cid
	}
	if st.Category != nil {
		res.CategoryName = st.Category.Name
	}
	return res
}
