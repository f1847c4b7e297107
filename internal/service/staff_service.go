package service

import (
	"context"
	"fmt"
	"strings"

	"copycorner/internal/apperror"
	"copycorner/internal/model"
	"copycorner/internal/pkg/clock"
	"copycorner/internal/repository"
	"copycorner/pkg/pagination"

	"github.com/google/uuid"
)

type StaffRequest struct {
	StudentNumber string `json:"student_number" binding:"max=50"`
	Course        string `json:"course" binding:"max=100"`
	Section       string `json:"section" binding:"max=50"`
}

type StaffResponse struct {
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	GroupName     string `json:"group_name"`
	Status        string `json:"status"`
	StudentNumber string `json:"student_number"`
	Course        string `json:"course"`
	Section       string `json:"section"`
}

// StaffService manages the academic details of staff accounts.
type StaffService interface {
	List(ctx context.Context, page *pagination.Params) ([]StaffResponse, int64, error)
	Get(ctx context.Context, userID string) (*StaffResponse, error)
	Update(ctx context.Context, actor, userID string, req StaffRequest) (*StaffResponse, error)
}

type staffService struct {
	staffRepo repository.StaffRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	clock     clock.Clock
}

func NewStaffService(
	staffRepo repository.StaffRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	clk clock.Clock,
) StaffService {
	return &staffService{
		staffRepo: staffRepo,
		userRepo:  userRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		clock:     clk,
	}
}

func (s *staffService) List(ctx context.Context, page *pagination.Params) ([]StaffResponse, int64, error) {
	users, total, err := s.staffRepo.ListStaffUsers(ctx, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list staff: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	details, err := s.staffRepo.FindByUserIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load staff details: %w", err)
	}

	res := make([]StaffResponse, 0, len(users))
	for i := range users {
		d := details[users[i].ID]
		res = append(res, toStaffResponse(&users[i], &d))
	}
	return res, total, nil
}

func (s *staffService) Get(ctx context.Context, userID string) (*StaffResponse, error) {
	u, err := s.staffUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	details, err := s.staffRepo.FindByUserIDs(ctx, []uuid.UUID{u.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load staff details: %w", err)
	}
	d := details[u.ID]
	res := toStaffResponse(u, &d)
	return &res, nil
}

func (s *staffService) Update(ctx context.Context, actor, userID string, req StaffRequest) (*StaffResponse, error) {
	u, err := s.staffUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.IsArchived {
		return nil, apperror.InvalidState("Archived users cannot be edited, restore the account first")
	}

	staff := model.Staff{
		UserID:        u.ID,
		StudentNumber: strings.TrimSpace(req.StudentNumber),
		Course:        strings.TrimSpace(req.Course),
		Section:       strings.TrimSpace(req.Section),
		UpdatedAt:     s.clock.Now(),
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.staffRepo.Upsert(txCtx, &staff); err != nil {
			return fmt.Errorf("failed to save staff details: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdate, model.KindUser, u.ID.String(), u.Username, req)
	})
	if err != nil {
		return nil, err
	}

	res := toStaffResponse(u, &staff)
	return &res, nil
}

func (s *staffService) staffUser(ctx context.Context, userID string) (*model.User, error) {
	uid, err := parseID(model.KindUser, userID)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, notFoundOr(err, model.KindUser)
	}
	if u.Group == nil || !u.Group.IsStaff() {
		return nil, apperror.Validation("User is not a staff member")
	}
	return u, nil
}

func toStaffResponse(u *model.User, d *model.Staff) StaffResponse {
	res := StaffResponse{
		UserID:   u.ID.String(),
		Name:     u.Name,
		Username: u.Username,
		Status:   u.Status,
	}
	if u.Group != nil {
		res.GroupName = u.Group.Name
	}
	if d != nil {
		res.StudentNumber = d.StudentNumber
		res.Course = d.Course
		res.Section = d.Section
	}
	return res
}
