package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"copycorner/internal/apperror"
	"copycorner/internal/model"
	"copycorner/internal/repository"

	"github.com/google/uuid"
)

// EventPublisher pushes change notifications to connected clients.
type EventPublisher interface {
	Publish(event string, data interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

// RecordEvent is the payload of lifecycle events.
type RecordEvent struct {
	Kind model.EntityKind `json:"kind"`
	ID   string           `json:"id"`
}

// StockEvent is the payload of stock.updated.
type StockEvent struct {
	ProductID     string            `json:"product_id"`
	StockQuantity int               `json:"stock_quantity"`
	Status        model.StockStatus `json:"status"`
}

// ArchiveFields is the archive envelope repeated in every response.
type ArchiveFields struct {
	IsArchived bool       `json:"is_archived"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	RestoredAt *time.Time `json:"restored_at,omitempty"`
}

func archiveFields(s model.ArchiveState) ArchiveFields {
	return ArchiveFields{IsArchived: s.IsArchived, ArchivedAt: s.ArchivedAt, RestoredAt: s.RestoredAt}
}

func parseID(kind model.EntityKind, id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperror.Validation(fmt.Sprintf("invalid %s id", kind.Label()))
	}
	return parsed, nil
}

func parseOptionalID(kind model.EntityKind, id *string) (*uuid.UUID, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	parsed, err := parseID(kind, *id)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// notFoundOr maps gorm's not-found to a NotFound of kind and wraps anything else.
func notFoundOr(err error, kind model.EntityKind) error {
	if err == nil {
		return nil
	}
	if repository.IsNotFound(err) {
		return apperror.NotFound(kind)
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	return fmt.Errorf("database error: %w", err)
}

// saveErr maps unique index violations to DuplicateKey.
func saveErr(err error, kind model.EntityKind, field, value string) error {
	if err == nil {
		return nil
	}
	if repository.IsUniqueViolation(err) {
		return apperror.Duplicate(kind, field, value)
	}
	return fmt.Errorf("failed to save %s: %w", kind.Label(), err)
}

// requireLive locks a referenced row FOR SHARE and rejects archived ones, so the
// reference cannot be archived before the caller commits.
func requireLive(ctx context.Context, repo repository.LifecycleRepository, kind model.EntityKind, id uuid.UUID) (*model.LifecycleRecord, error) {
	rec, err := repo.LockForShare(ctx, kind, id)
	if err != nil {
		return nil, notFoundOr(err, kind)
	}
	if rec.IsArchived {
		return nil, apperror.ArchivedReference(kind, rec.Label)
	}
	return rec, nil
}

func actorID(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}

func writeAudit(ctx context.Context, repo repository.AuditRepository, userID, action string, kind model.EntityKind, entityID, name string, details interface{}) error {
	payload := []byte("{}")
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			payload = b
		}
	}
	entry := &model.AuditLog{
		UserID:     actorID(userID),
		Action:     action,
		EntityKind: kind,
		EntityID:   entityID,
		EntityName: name,
		Details:    string(payload),
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
