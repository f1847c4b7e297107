package service

import (
	"context"
	"fmt"

	"copycorner/internal/model"
	"copycorner/internal/repository"
)

// Allocation is the result of reserving the next code of a kind.
type Allocation struct {
	Code string
	// Serial is the monotonic per-kind counter. It never repeats, even after
	// archives or purges, and backs transaction queue numbers.
	Serial int64
}

// CodeAllocator hands out dense sequential codes per kind.
type CodeAllocator interface {
	// Lock takes the kind's sequence lock for the surrounding transaction.
	Lock(ctx context.Context, kind model.EntityKind) (*model.Sequence, error)
	// Next must run inside the transaction that inserts the record, so the
	// count and the insert happen under one lock.
	Next(ctx context.Context, kind model.EntityKind) (Allocation, error)
	// Renumber rewrites active codes to PREFIX_001..N in creation order and
	// returns how many rows changed.
	Renumber(ctx context.Context, kind model.EntityKind) (int, error)
}

type codeAllocator struct {
	seqRepo   repository.SequenceRepository
	txManager repository.TransactionManager
}

func NewCodeAllocator(seqRepo repository.SequenceRepository, txManager repository.TransactionManager) CodeAllocator {
	return &codeAllocator{seqRepo: seqRepo, txManager: txManager}
}

func (a *codeAllocator) Lock(ctx context.Context, kind model.EntityKind) (*model.Sequence, error) {
	seq, err := a.seqRepo.Lock(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s sequence: %w", kind, err)
	}
	return seq, nil
}

func (a *codeAllocator) Next(ctx context.Context, kind model.EntityKind) (Allocation, error) {
	if !kind.Sequenced() {
		return Allocation{}, fmt.Errorf("%s has no sequential code", kind)
	}

	seq, err := a.Lock(ctx, kind)
	if err != nil {
		return Allocation{}, err
	}

	active, err := a.seqRepo.CountActive(ctx, kind)
	if err != nil {
		return Allocation{}, fmt.Errorf("failed to count active %s: %w", kind.Plural(), err)
	}

	seq.Issued++
	if err := a.seqRepo.Save(ctx, seq); err != nil {
		return Allocation{}, fmt.Errorf("failed to advance %s sequence: %w", kind, err)
	}

	return Allocation{Code: model.FormatCode(kind, int(active)+1), Serial: seq.Issued}, nil
}

func (a *codeAllocator) Renumber(ctx context.Context, kind model.EntityKind) (int, error) {
	if !kind.Sequenced() {
		return 0, nil
	}

	changed := 0
	err := a.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		changed = 0
		if _, err := a.Lock(txCtx, kind); err != nil {
			return err
		}

		records, err := a.seqRepo.ActiveCodes(txCtx, kind)
		if err != nil {
			return fmt.Errorf("failed to load active %s: %w", kind.Plural(), err)
		}

		for i, rec := range records {
			code := model.FormatCode(kind, i+1)
			if rec.Code == code {
				continue
			}
			if err := a.seqRepo.SetCode(txCtx, kind, rec.ID, code); err != nil {
				return fmt.Errorf("failed to renumber %s %s: %w", kind, rec.ID, err)
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
