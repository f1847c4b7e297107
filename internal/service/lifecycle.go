package service

import (
	"context"
	"fmt"

	"copycorner/internal/apperror"
	"copycorner/internal/metrics"
	"copycorner/internal/model"
	"copycorner/internal/pkg/clock"
	"copycorner/internal/repository"
	ws "copycorner/internal/websocket"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Lifecycle is the archive state machine shared by every archivable kind.
//
// Each transition runs in one transaction: the kind's sequence lock (coded
// kinds only), then the row lock, then the guards, then the flip. Renumbering
// follows in a savepoint and never undoes the flip.
type Lifecycle interface {
	Archive(ctx context.Context, userID string, kind model.EntityKind, id uuid.UUID) (*model.LifecycleRecord, error)
	Restore(ctx context.Context, userID string, kind model.EntityKind, id uuid.UUID) (*model.LifecycleRecord, error)
	// Purge hard-deletes the row. Unless force is set it is guarded like Archive.
	Purge(ctx context.Context, userID string, kind model.EntityKind, id uuid.UUID, force bool) error
	// Renumber compacts the active codes of kind on demand.
	Renumber(ctx context.Context, userID string, kind model.EntityKind) (int, error)
}

type lifecycle struct {
	lifecycleRepo repository.LifecycleRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	resolver      DependencyResolver
	allocator     CodeAllocator
	clock         clock.Clock
	events        EventPublisher
	metrics       *metrics.Metrics
}

func NewLifecycle(
	lifecycleRepo repository.LifecycleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	resolver DependencyResolver,
	allocator CodeAllocator,
	clk clock.Clock,
	events EventPublisher,
	m *metrics.Metrics,
) Lifecycle {
	return &lifecycle{
		lifecycleRepo: lifecycleRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		resolver:      resolver,
		allocator:     allocator,
		clock:         clk,
		events:        publisherOrNoop(events),
		metrics:       m,
	}
}

func (l *lifecycle) Archive(ctx context.Context, userID string, kind model.EntityKind, id uuid.UUID) (*model.LifecycleRecord, error) {
	if !kind.Archivable() {
		return nil, apperror.InvalidState(fmt.Sprintf("%s records cannot be archived", kind.Label()))
	}

	var rec *model.LifecycleRecord
	err := l.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if kind.Sequenced() {
			if _, err := l.allocator.Lock(txCtx, kind); err != nil {
				return err
			}
		}

		r, err := l.lifecycleRepo.LockForUpdate(txCtx, kind, id)
		if err != nil {
			return notFoundOr(err, kind)
		}
		if r.IsArchived {
			return apperror.InvalidState(fmt.Sprintf("%s %q is already archived", kind.Label(), r.Label))
		}

		if err := l.resolver.Guard(txCtx, kind, id, r.Label, "archive"); err != nil {
			return err
		}

		now := l.clock.Now()
		r.MarkArchived(now)
		if err := l.lifecycleRepo.SetState(txCtx, kind, id, r.ArchiveState, now); err != nil {
			return fmt.Errorf("failed to archive %s: %w", kind.Label(), err)
		}
		if err := writeAudit(txCtx, l.auditRepo, userID, model.ActionArchive, kind, id.String(), r.Label, nil); err != nil {
			return err
		}

		l.renumberBestEffort(txCtx, kind)
		rec = r
		return nil
	})

	l.metrics.ObserveTransition(string(kind), "archive", err)
	if err != nil {
		return nil, err
	}
	l.events.Publish(ws.EventRecordArchived, RecordEvent{Kind: kind, ID: id.String()})
	return rec, nil
}

func (l *lifecycle) Restore(ctx context.Context, userID string, kind model.EntityKind, id uuid.UUID) (*model.LifecycleRecord, error) {
	if !kind.Archivable() {
		return nil, apperror.InvalidState(fmt.Sprintf("%s records cannot be restored", kind.Label()))
	}

	var rec *model.LifecycleRecord
	err := l.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if kind.Sequenced() {
			if _, err := l.allocator.Lock(txCtx, kind); err != nil {
				return err
			}
		}

		r, err := l.lifecycleRepo.LockForUpdate(txCtx, kind, id)
		if err != nil {
			return notFoundOr(err, kind)
		}
		if !r.IsArchived {
			return apperror.InvalidState(fmt.Sprintf("%s %q is not archived", kind.Label(), r.Label))
		}

		if r.Key != "" {
			taken, err := l.lifecycleRepo.KeyTaken(txCtx, kind, r.Key, r.ID)
			if err != nil {
				return fmt.Errorf("failed to check %s uniqueness: %w", kind.Label(), err)
			}
			if taken {
				return apperror.Duplicate(kind, kind.KeyField(), r.Key)
			}
		}

		if rule, ok := model.ParentOf(kind); ok && r.ParentID != nil {
			parent, err := l.lifecycleRepo.LockForShare(txCtx, rule.Parent, *r.ParentID)
			if err != nil && !repository.IsNotFound(err) {
				return fmt.Errorf("failed to load %s: %w", rule.Parent.Label(), err)
			}
			if parent != nil && parent.IsArchived {
				return apperror.ParentArchived(kind, rule.Parent, parent.Label)
			}
		}

		now := l.clock.Now()
		r.MarkRestored(now)
		if err := l.lifecycleRepo.SetState(txCtx, kind, id, r.ArchiveState, now); err != nil {
			return fmt.Errorf("failed to restore %s: %w", kind.Label(), err)
		}
		if err := writeAudit(txCtx, l.auditRepo, userID, model.ActionRestore, kind, id.String(), r.Label, nil); err != nil {
			return err
		}

		l.renumberBestEffort(txCtx, kind)
		rec = r
		return nil
	})

	l.metrics.ObserveTransition(string(kind), "restore", err)
	if err != nil {
		return nil, err
	}
	l.events.Publish(ws.EventRecordRestored, RecordEvent{Kind: kind, ID: id.String()})
	return rec, nil
}

func (l *lifecycle) Purge(ctx context.Context, userID string, kind model.EntityKind, id uuid.UUID, force bool) error {
	err := l.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if kind.Sequenced() {
			if _, err := l.allocator.Lock(txCtx, kind); err != nil {
				return err
			}
		}

		r, err := l.lifecycleRepo.LockForUpdate(txCtx, kind, id)
		if err != nil {
			return notFoundOr(err, kind)
		}

		if !force {
			if err := l.resolver.Guard(txCtx, kind, id, r.Label, "delete"); err != nil {
				return err
			}
		}

		deleted, err := l.lifecycleRepo.Purge(txCtx, kind, id)
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", kind.Label(), err)
		}
		if !deleted {
			return apperror.NotFound(kind)
		}

		actor := userID
		if kind == model.KindUser && actor == id.String() {
			actor = ""
		}
		if err := writeAudit(txCtx, l.auditRepo, actor, model.ActionPurge, kind, id.String(), r.Label,
			map[string]interface{}{"force": force}); err != nil {
			return err
		}

		l.renumberBestEffort(txCtx, kind)
		return nil
	})

	l.metrics.ObserveTransition(string(kind), "purge", err)
	if err != nil {
		return err
	}
	l.events.Publish(ws.EventRecordPurged, RecordEvent{Kind: kind, ID: id.String()})
	return nil
}

func (l *lifecycle) Renumber(ctx context.Context, userID string, kind model.EntityKind) (int, error) {
	if !kind.Sequenced() {
		return 0, apperror.Validation(fmt.Sprintf("%s records have no sequential code", kind.Label()))
	}

	changed := 0
	err := l.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		n, err := l.allocator.Renumber(txCtx, kind)
		if err != nil {
			return err
		}
		changed = n
		return writeAudit(txCtx, l.auditRepo, userID, model.ActionRenumber, kind, "", "",
			map[string]interface{}{"changed": n})
	})
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		l.events.Publish(ws.EventCodesRenumbered, map[string]interface{}{"kind": kind, "changed": changed})
	}
	return changed, nil
}

// renumberBestEffort compacts codes after a transition. A failure rolls back
// only the renumber savepoint and is logged.
func (l *lifecycle) renumberBestEffort(ctx context.Context, kind model.EntityKind) {
	if !kind.Sequenced() {
		return
	}
	if _, err := l.allocator.Renumber(ctx, kind); err != nil {
		l.metrics.ObserveRenumberFailure(string(kind))
		log.Warn().Err(err).Str("kind", string(kind)).Msg("renumbering after transition failed")
	}
}
