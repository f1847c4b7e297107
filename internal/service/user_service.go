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
	"github.com/rs/zerolog/log"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Name     string  `json:"name" binding:"required,max=255"`
	Username string  `json:"username" binding:"required,max=255"`
	Password string  `json:"password" binding:"required,min=6"`
	GroupID  *string `json:"group_id" binding:"omitempty,uuid"`
	Status   string  `json:"status" binding:"omitempty,oneof=Active Inactive"`
}

type UpdateUserRequest struct {
	Name     string  `json:"name" binding:"required,max=255"`
	Username string  `json:"username" binding:"required,max=255"`
	Password string  `json:"password" binding:"omitempty,min=6"`
	GroupID  *string `json:"group_id" binding:"omitempty,uuid"`
	Status   string  `json:"status" binding:"omitempty,oneof=Active Inactive"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	RoleLevel *int   `json:"role_level"`
}

// DTO for returning User without exposing the password hash
type UserResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Username      string     `json:"username"`
	GroupID       *string    `json:"group_id"`
	GroupName     string     `json:"group_name"`
	Status        string     `json:"status"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	ScheduleCount int64      `json:"schedule_count"`
	ArchiveFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserService defines the business logic of accounts and login.
type UserService interface {
	List(ctx context.Context, search string, page *pagination.Params) ([]UserResponse, int64, error)
	ListArchived(ctx context.Context, page *pagination.Params) ([]UserResponse, int64, error)
	Get(ctx context.Context, id string) (*UserResponse, error)
	Create(ctx context.Context, userID string, req CreateUserRequest) (*UserResponse, error)
	Update(ctx context.Context, userID, id string, req UpdateUserRequest) (*UserResponse, error)
	UpdateLastLogin(ctx context.Context, id string) (*UserResponse, error)
	Archive(ctx context.Context, userID, id string) (*UserResponse, error)
	Restore(ctx context.Context, userID, id string) (*UserResponse, error)
	Purge(ctx context.Context, userID, id string, force bool) error
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type userService struct {
	userRepo      repository.UserRepository
	lifecycleRepo repository.LifecycleRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	resolver      DependencyResolver
	lifecycle     Lifecycle
	hasher        PasswordHasher
	clock         clock.Clock
}

// NewUserService returns a new instance of UserService
func NewUserService(
	userRepo repository.UserRepository,
	lifecycleRepo repository.LifecycleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	resolver DependencyResolver,
	lifecycle Lifecycle,
	hasher PasswordHasher,
	clk clock.Clock,
) UserService {
	return &userService{
		userRepo:      userRepo,
		lifecycleRepo: lifecycleRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		resolver:      resolver,
		lifecycle:     lifecycle,
		hasher:        hasher,
		clock:         clk,
	}
}

func (s *userService) List(ctx context.Context, search string, page *pagination.Params) ([]UserResponse, int64, error) {
	return s.list(ctx, repository.ListFilter{Search: search}, page)
}

func (s *userService) ListArchived(ctx context.Context, page *pagination.Params) ([]UserResponse, int64, error) {
	return s.list(ctx, repository.ListFilter{Archived: true}, page)
}

func (s *userService) list(ctx context.Context, filter repository.ListFilter, page *pagination.Params) ([]UserResponse, int64, error) {
	users, total, err := s.userRepo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	counts, err := s.resolver.Counts(ctx, model.KindUser, ids)
	if err != nil {
		return nil, 0, err
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, toUserResponse(&users[i], counts[users[i].ID]))
	}
	return res, total, nil
}

func (s *userService) Get(ctx context.Context, id string) (*UserResponse, error) {
	uid, err := parseID(model.KindUser, id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, uid)
}

func (s *userService) load(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, model.KindUser)
	}
	counts, err := s.resolver.Counts(ctx, model.KindUser, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	res := toUserResponse(u, counts[id])
	return &res, nil
}

func (s *userService) Create(ctx context.Context, userID string, req CreateUserRequest) (*UserResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, apperror.Validation("Username and password are required")
	}
	groupID, err := parseOptionalID(model.KindGroup, req.GroupID)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := model.User{
		Name:         strings.TrimSpace(req.Name),
		Username:     username,
		PasswordHash: hash,
		GroupID:      groupID,
		Status:       statusOrActive(req.Status),
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if groupID != nil {
			if _, err := requireLive(txCtx, s.lifecycleRepo, model.KindGroup, *groupID); err != nil {
				return err
			}
		}
		taken, err := s.lifecycleRepo.KeyTaken(txCtx, model.KindUser, username, uuid.Nil)
		if err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if taken {
			return apperror.Duplicate(model.KindUser, "username", username)
		}
		if err := s.userRepo.Create(txCtx, &u); err != nil {
			return saveErr(err, model.KindUser, "username", username)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreate, model.KindUser, u.ID.String(), username,
			map[string]interface{}{"name": u.Name, "username": username, "group_id": req.GroupID})
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, u.ID)
}

func (s *userService) Update(ctx context.Context, userID, id string, req UpdateUserRequest) (*UserResponse, error) {
	uid, err := parseID(model.KindUser, id)
	if err != nil {
		return nil, err
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, apperror.Validation("Username is required")
	}
	groupID, err := parseOptionalID(model.KindGroup, req.GroupID)
	if err != nil {
		return nil, err
	}

	var hash string
	if req.Password != "" {
		if hash, err = s.hasher.Hash(req.Password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rec, err := s.lifecycleRepo.LockForUpdate(txCtx, model.KindUser, uid)
		if err != nil {
			return notFoundOr(err, model.KindUser)
		}
		if rec.IsArchived {
			return apperror.InvalidState("Archived users cannot be edited, restore the account first")
		}

		u, err := s.userRepo.FindByID(txCtx, uid)
		if err != nil {
			return notFoundOr(err, model.KindUser)
		}
		if username != u.Username {
			taken, err := s.lifecycleRepo.KeyTaken(txCtx, model.KindUser, username, uid)
			if err != nil {
				return fmt.Errorf("failed to check username: %w", err)
			}
			if taken {
				return apperror.Duplicate(model.KindUser, "username", username)
			}
		}
		if groupID != nil && !sameID(groupID, u.GroupID) {
			if _, err := requireLive(txCtx, s.lifecycleRepo, model.KindGroup, *groupID); err != nil {
				return err
			}
		}

		u.Name = strings.TrimSpace(req.Name)
		u.Username = username
		u.GroupID = groupID
		u.Group = nil
		if req.Status != "" {
			u.Status = req.Status
		}
		if hash != "" {
			u.PasswordHash = hash
		}
		u.UpdatedAt = s.clock.Now()
		if err := s.userRepo.Update(txCtx, u); err != nil {
			return saveErr(err, model.KindUser, "username", username)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdate, model.KindUser, id, username,
			map[string]interface{}{"name": u.Name, "username": username, "group_id": req.GroupID, "password_changed": hash != ""})
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, uid)
}

func (s *userService) UpdateLastLogin(ctx context.Context, id string) (*UserResponse, error) {
	uid, err := parseID(model.KindUser, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindByID(ctx, uid); err != nil {
		return nil, notFoundOr(err, model.KindUser)
	}
	if err := s.userRepo.UpdateLastLogin(ctx, uid, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	return s.load(ctx, uid)
}

func (s *userService) Archive(ctx context.Context, userID, id string) (*UserResponse, error) {
	uid, err := parseID(model.KindUser, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Archive(ctx, userID, model.KindUser, uid); err != nil {
		return nil, err
	}
	return s.load(ctx, uid)
}

func (s *userService) Restore(ctx context.Context, userID, id string) (*UserResponse, error) {
	uid, err := parseID(model.KindUser, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Restore(ctx, userID, model.KindUser, uid); err != nil {
		return nil, err
	}
	return s.load(ctx, uid)
}

func (s *userService) Purge(ctx context.Context, userID, id string, force bool) error {
	uid, err := parseID(model.KindUser, id)
	if err != nil {
		return err
	}
	return s.lifecycle.Purge(ctx, userID, model.KindUser, uid, force)
}

// Login checks the account state before the password so that archived and
// disabled accounts get a clear answer.
func (s *userService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.Unauthorized("Invalid username or password")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if u.IsArchived {
		return nil, apperror.Forbidden("Your account has been archived. Please contact an administrator.")
	}
	if u.Status != model.StatusActive {
		return nil, apperror.Forbidden("Your account is inactive. Please contact an administrator.")
	}

	ok, rehash := s.hasher.Verify(req.Password, u.PasswordHash)
	if !ok {
		return nil, apperror.Unauthorized("Invalid username or password")
	}

	res := &LoginResponse{ID: u.ID.String(), Username: u.Username, Name: u.Name}
	if u.Group != nil {
		if u.Group.IsArchived || u.Group.Status != model.StatusActive {
			return nil, apperror.Forbidden("Your role has been disabled. Please contact an administrator.")
		}
		level := u.Group.Level
		res.Role = u.Group.Name
		res.RoleLevel = &level
	}

	now := s.clock.Now()
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if rehash {
			hash, err := s.hasher.Hash(req.Password)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			u.PasswordHash = hash
			u.Group = nil
			if err := s.userRepo.Update(txCtx, u); err != nil {
				return fmt.Errorf("failed to upgrade password hash: %w", err)
			}
			log.Info().Str("user_id", u.ID.String()).Msg("Upgraded legacy password hash")
		}
		if err := s.userRepo.UpdateLastLogin(txCtx, u.ID, now); err != nil {
			return fmt.Errorf("failed to update last login: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, u.ID.String(), model.ActionLogin, model.KindUser, u.ID.String(), u.Username, nil)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Helper: parse model to standard json API response
func toUserResponse(u *model.User, counts map[model.EntityKind]int64) UserResponse {
	res := UserResponse{
		ID:            u.ID.String(),
		Name:          u.Name,
		Username:      u.Username,
		Status:        u.Status,
		LastLogin:     u.LastLogin,
		ScheduleCount: counts[model.KindSchedule],
		ArchiveFields: archiveFields(u.ArchiveState),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if u.GroupID != nil {
		gid := u.GroupID.String()
		res.GroupID = &gid
	}
	if u.Group != nil {
		res.GroupName = u.Group.Name
	}
	return res
}
