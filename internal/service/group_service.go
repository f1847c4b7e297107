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

type GroupRequest struct {
	Name   string `json:"name" binding:"required,max=100"`
	Level  *int   `json:"level" binding:"required,oneof=0 1"`
	Status string `json:"status" binding:"omitempty,oneof=Active Inactive"`
}

type GroupResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Level     int    `json:"level"`
	Status    string `json:"status"`
	UserCount int64  `json:"user_count"`
	ArchiveFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleOption is a group offered when assigning users.
type RoleOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

type GroupService interface {
	List(ctx context.Context, page *pagination.Params) ([]GroupResponse, int64, error)
	ListArchived(ctx context.Context, page *pagination.Params) ([]GroupResponse, int64, error)
	ListRoles(ctx context.Context) ([]RoleOption, error)
	Get(ctx context.Context, id string) (*GroupResponse, error)
	Create(ctx context.Context, userID string, req GroupRequest) (*GroupResponse, error)
	Update(ctx context.Context, userID, id string, req GroupRequest) (*GroupResponse, error)
	Archive(ctx context.Context, userID, id string) (*GroupResponse, error)
	Restore(ctx context.Context, userID, id string) (*GroupResponse, error)
	Purge(ctx context.Context, userID, id string, force bool) error
}

type groupService struct {
	groupRepo     repository.GroupRepository
	lifecycleRepo repository.LifecycleRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	resolver      DependencyResolver
	lifecycle     Lifecycle
	clock         clock.Clock
}

func NewGroupService(
	groupRepo repository.GroupRepository,
	lifecycleRepo repository.LifecycleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	resolver DependencyResolver,
	lifecycle Lifecycle,
	clk clock.Clock,
) GroupService {
	return &groupService{
		groupRepo:     groupRepo,
		lifecycleRepo: lifecycleRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		resolver:      resolver,
		lifecycle:     lifecycle,
		clock:         clk,
	}
}

func (s *groupService) List(ctx context.Context, page *pagination.Params) ([]GroupResponse, int64, error) {
	return s.list(ctx, repository.ListFilter{}, page)
}

func (s *groupService) ListArchived(ctx context.Context, page *pagination.Params) ([]GroupResponse, int64, error) {
	return s.list(ctx, repository.ListFilter{Archived: true}, page)
}

func (s *groupService) ListRoles(ctx context.Context) ([]RoleOption, error) {
	groups, _, err := s.groupRepo.List(ctx, repository.ListFilter{Status: model.StatusActive}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	res := make([]RoleOption, 0, len(groups))
	for _, g := range groups {
		res = append(res, RoleOption{ID: g.ID.String(), Name: g.Name, Level: g.Level})
	}
	return res, nil
}

func (s *groupService) list(ctx context.Context, filter repository.ListFilter, page *pagination.Params) ([]GroupResponse, int64, error) {
	groups, total, err := s.groupRepo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	counts, err := s.resolver.Counts(ctx, model.KindGroup, ids)
	if err != nil {
		return nil, 0, err
	}

	res := make([]GroupResponse, 0, len(groups))
	for i := range groups {
		res = append(res, toGroupResponse(&groups[i], counts[groups[i].ID]))
	}
	return res, total, nil
}

func (s *groupService) Get(ctx context.Context, id string) (*GroupResponse, error) {
	groupID, err := parseID(model.KindGroup, id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, groupID)
}

func (s *groupService) load(ctx context.Context, id uuid.UUID) (*GroupResponse, error) {
	g, err := s.groupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, model.KindGroup)
	}
	counts, err := s.resolver.Counts(ctx, model.KindGroup, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	res := toGroupResponse(g, counts[id])
	return &res, nil
}

func (s *groupService) Create(ctx context.Context, userID string, req GroupRequest) (*GroupResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Level == nil {
		return nil, apperror.Validation("Group name and level are required")
	}

	g := model.Group{Name: name, Level: *req.Level, Status: statusOrActive(req.Status)}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		taken, err := s.lifecycleRepo.KeyTaken(txCtx, model.KindGroup, name, uuid.Nil)
		if err != nil {
			return fmt.Errorf("failed to check group name: %w", err)
		}
		if taken {
			return apperror.Duplicate(model.KindGroup, "name", name)
		}
		if err := s.groupRepo.Create(txCtx, &g); err != nil {
			return saveErr(err, model.KindGroup, "name", name)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreate, model.KindGroup, g.ID.String(), name, req)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, g.ID)
}

func (s *groupService) Update(ctx context.Context, userID, id string, req GroupRequest) (*GroupResponse, error) {
	groupID, err := parseID(model.KindGroup, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Level == nil {
		return nil, apperror.Validation("Group name and level are required")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rec, err := s.lifecycleRepo.LockForUpdate(txCtx, model.KindGroup, groupID)
		if err != nil {
			return notFoundOr(err, model.KindGroup)
		}
		if rec.IsArchived {
			return apperror.InvalidState("Archived groups cannot be edited, restore it first")
		}

		g, err := s.groupRepo.FindByID(txCtx, groupID)
		if err != nil {
			return notFoundOr(err, model.KindGroup)
		}
		if name != g.Name {
			taken, err := s.lifecycleRepo.KeyTaken(txCtx, model.KindGroup, name, groupID)
			if err != nil {
				return fmt.Errorf("failed to check group name: %w", err)
			}
			if taken {
				return apperror.Duplicate(model.KindGroup, "name", name)
			}
		}

		g.Name = name
		g.Level = *req.Level
		if req.Status != "" {
			g.Status = req.Status
		}
		g.UpdatedAt = s.clock.Now()
		if err := s.groupRepo.Update(txCtx, g); err != nil {
			return saveErr(err, model.KindGroup, "name", name)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdate, model.KindGroup, id, name, req)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, groupID)
}

func (s *groupService) Archive(ctx context.Context, userID, id string) (*GroupResponse, error) {
	groupID, err := parseID(model.KindGroup, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Archive(ctx, userID, model.KindGroup, groupID); err != nil {
		return nil, err
	}
	return s.load(ctx, groupID)
}

func (s *groupService) Restore(ctx context.Context, userID, id string) (*GroupResponse, error) {
	groupID, err := parseID(model.KindGroup, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Restore(ctx, userID, model.KindGroup, groupID); err != nil {
		return nil, err
	}
	return s.load(ctx, groupID)
}

func (s *groupService) Purge(ctx context.Context, userID, id string, force bool) error {
	groupID, err := parseID(model.KindGroup, id)
	if err != nil {
		return err
	}
	return s.lifecycle.Purge(ctx, userID, model.KindGroup, groupID, force)
}

func toGroupResponse(g *model.Group, counts map[model.EntityKind]int64) GroupResponse {
	return GroupResponse{
		ID:            g.ID.String(),
		Name:          g.Name,
		Level:         g.Level,
		Status:        g.Status,
		UserCount:     counts[model.KindUser],
		ArchiveFields: archiveFields(g.ArchiveState),
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}
