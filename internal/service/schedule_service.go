package service

import (
	"context"
	"fmt"
	"time"

	"copycorner/internal/apperror"
	"copycorner/internal/model"
	"copycorner/internal/pkg/clock"
	"copycorner/internal/repository"

	"github.com/google/uuid"
)

type ScheduleRequest struct {
	Day       string  `json:"day" binding:"required,weekday"`
	StartTime string  `json:"start_time" binding:"required,clock"`
	EndTime   string  `json:"end_time" binding:"required,clock"`
	StaffID   *string `json:"staff_id" binding:"omitempty,uuid"`
}

type ScheduleResponse struct {
	ID        string    `json:"id"`
	Day       string    `json:"day"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	StaffID   *string   `json:"staff_id"`
	StaffName string    `json:"staff_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StaffOption is a staff account offered when assigning shifts.
type StaffOption struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type ScheduleService interface {
	List(ctx context.Context) ([]ScheduleResponse, error)
	Get(ctx context.Context, id string) (*ScheduleResponse, error)
	Create(ctx context.Context, userID string, req ScheduleRequest) (*ScheduleResponse, error)
	Update(ctx context.Context, userID, id string, req ScheduleRequest) (*ScheduleResponse, error)
	Delete(ctx context.Context, userID, id string) error
	ListStaffOptions(ctx context.Context) ([]StaffOption, error)
}

type scheduleService struct {
	scheduleRepo  repository.ScheduleRepository
	staffRepo     repository.StaffRepository
	lifecycleRepo repository.LifecycleRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	clock         clock.Clock
}

func NewScheduleService(
	scheduleRepo repository.ScheduleRepository,
	staffRepo repository.StaffRepository,
	lifecycleRepo repository.LifecycleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	clk clock.Clock,
) ScheduleService {
	return &scheduleService{
		scheduleRepo:  scheduleRepo,
		staffRepo:     staffRepo,
		lifecycleRepo: lifecycleRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		clock:         clk,
	}
}

func (s *scheduleService) List(ctx context.Context) ([]ScheduleResponse, error) {
	schedules, err := s.scheduleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	res := make([]ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		res = append(res, toScheduleResponse(&schedules[i]))
	}
	return res, nil
}

func (s *scheduleService) Get(ctx context.Context, id string) (*ScheduleResponse, error) {
	sid, err := parseID(model.KindSchedule, id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, sid)
}

func (s *scheduleService) load(ctx context.Context, id uuid.UUID) (*ScheduleResponse, error) {
	sc, err := s.scheduleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, model.KindSchedule)
	}
	res := toScheduleResponse(sc)
	return &res, nil
}

func (s *scheduleService) Create(ctx context.Context, userID string, req ScheduleRequest) (*ScheduleResponse, error) {
	sc, err := scheduleFromRequest(req)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if sc.StaffID != nil {
			if _, err := requireLive(txCtx, s.lifecycleRepo, model.KindUser, *sc.StaffID); err != nil {
				return err
			}
		}
		if err := s.scheduleRepo.Create(txCtx, sc); err != nil {
			return fmt.Errorf("failed to create schedule: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreate, model.KindSchedule, sc.ID.String(), sc.Day, req)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, sc.ID)
}

func (s *scheduleService) Update(ctx context.Context, userID, id string, req ScheduleRequest) (*ScheduleResponse, error) {
	sid, err := parseID(model.KindSchedule, id)
	if err != nil {
		return nil, err
	}
	next, err := scheduleFromRequest(req)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.lifecycleRepo.LockForUpdate(txCtx, model.KindSchedule, sid); err != nil {
			return notFoundOr(err, model.KindSchedule)
		}
		sc, err := s.scheduleRepo.FindByID(txCtx, sid)
		if err != nil {
			return notFoundOr(err, model.KindSchedule)
		}
		if next.StaffID != nil && !sameID(next.StaffID, sc.StaffID) {
			if _, err := requireLive(txCtx, s.lifecycleRepo, model.KindUser, *next.StaffID); err != nil {
				return err
			}
		}

		sc.Day = next.Day
		sc.StartTime = next.StartTime
		sc.EndTime = next.EndTime
		sc.StaffID = next.StaffID
		sc.Staff = nil
		sc.UpdatedAt = s.clock.Now()
		if err := s.scheduleRepo.Update(txCtx, sc); err != nil {
			return fmt.Errorf("failed to update schedule: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdate, model.KindSchedule, id, sc.Day, req)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, sid)
}

// Delete removes a schedule. Schedules are never archived.
func (s *scheduleService) Delete(ctx context.Context, userID, id string) error {
	sid, err := parseID(model.KindSchedule, id)
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		deleted, err := s.scheduleRepo.Delete(txCtx, sid)
		if err != nil {
			return fmt.Errorf("failed to delete schedule: %w", err)
		}
		if !deleted {
			return apperror.NotFound(model.KindSchedule)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionPurge, model.KindSchedule, id, "", nil)
	})
}

func (s *scheduleService) ListStaffOptions(ctx context.Context) ([]StaffOption, error) {
	users, _, err := s.staffRepo.ListStaffUsers(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	res := make([]StaffOption, 0, len(users))
	for _, u := range users {
		res = append(res, StaffOption{ID: u.ID.String(), Name: u.Name, Username: u.Username})
	}
	return res, nil
}

func scheduleFromRequest(req ScheduleRequest) (*model.Schedule, error) {
	day, ok := model.NormalizeDay(req.Day)
	if !ok {
		return nil, apperror.Validation("day must be a weekday name")
	}
	start, ok1 := model.ParseClock(req.StartTime)
	end, ok2 := model.ParseClock(req.EndTime)
	if !ok1 || !ok2 {
		return nil, apperror.Validation("start_time and end_time must be HH:MM")
	}
	if end <= start {
		return nil, apperror.Validation("end_time must be after start_time")
	}
	staffID, err := parseOptionalID(model.KindUser, req.StaffID)
	if err != nil {
		return nil, err
	}
	return &model.Schedule{
		Day:       day,
		StartTime: fmt.Sprintf("%02d:%02d", start/60, start%60),
		EndTime:   fmt.Sprintf("%02d:%02d", end/60, end%60),
		StaffID:   staffID,
	}, nil
}

func toScheduleResponse(sc *model.Schedule) ScheduleResponse {
	res := ScheduleResponse{
		ID:        sc.ID.String(),
		Day:       sc.Day,
		StartTime: sc.StartTime,
		EndTime:   sc.EndTime,
		CreatedAt: sc.CreatedAt,
		UpdatedAt: sc.UpdatedAt,
	}
	if sc.StaffID != nil {
		sid := sc.StaffID.String()
		res.StaffID = &sid
	}
	if sc.Staff != nil {
		res.StaffName = sc.Staff.Name
	}
	return res
}
