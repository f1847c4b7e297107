package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"copycorner/internal/model"
	"copycorner/internal/repository"
	"copycorner/pkg/pagination"
)

type AuditLogResponse struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	Username   string           `json:"username"`
	Action     string           `json:"action"`
	EntityKind model.EntityKind `json:"entity_kind"`
	EntityID   string           `json:"entity_id"`
	EntityName string           `json:"entity_name"`
	Details    json.RawMessage  `json:"details"`
	CreatedAt  time.Time        `json:"created_at"`
}

type AuditService interface {
	List(ctx context.Context, page *pagination.Params) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// List returns audit rows newest first with the acting user preloaded.
func (s *auditService) List(ctx context.Context, page *pagination.Params) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := "System"
		userID := ""
		if l.User != nil {
			username = l.User.Username
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}
		details := json.RawMessage(l.Details)
		if !json.Valid(details) {
			details = json.RawMessage("{}")
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			Username:   username,
			Action:     l.Action,
			EntityKind: l.EntityKind,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    details,
			CreatedAt:  l.CreatedAt,
		})
	}

	return res, total, nil
}
