package service

import (
	"context"
	"fmt"

	"copycorner/internal/metrics"
	"copycorner/internal/model"
	"copycorner/internal/pkg/clock"
	"copycorner/internal/repository"

	"github.com/google/uuid"
)

// StockService applies atomic stock changes. Every adjustment locks the
// product row, floors the quantity at zero, reclassifies and records a movement.
type StockService interface {
	// Deduct removes up to qty units and returns how many were actually removed.
	Deduct(ctx context.Context, productID uuid.UUID, qty int, txnID *uuid.UUID) (int, *model.Product, error)
	Restore(ctx context.Context, productID uuid.UUID, qty int, txnID *uuid.UUID) (*model.Product, error)
	// Set overwrites the quantity (manual edit) and records the difference.
	Set(ctx context.Context, productID uuid.UUID, qty int) (*model.Product, error)
}

type stockService struct {
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	txManager    repository.TransactionManager
	clock        clock.Clock
	metrics      *metrics.Metrics
}

func NewStockService(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	txManager repository.TransactionManager,
	clk clock.Clock,
	m *metrics.Metrics,
) StockService {
	return &stockService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		txManager:    txManager,
		clock:        clk,
		metrics:      m,
	}
}

func (s *stockService) Deduct(ctx context.Context, productID uuid.UUID, qty int, txnID *uuid.UUID) (int, *model.Product, error) {
	if qty <= 0 {
		p, err := s.productRepo.FindByID(ctx, productID)
		return 0, p, notFoundOr(err, model.KindProduct)
	}
	var applied int
	p, err := s.adjust(ctx, productID, txnID, func(current int) int {
		next := current - qty
		if next < 0 {
			next = 0
		}
		applied = current - next
		return next
	})
	if err != nil {
		return 0, nil, err
	}
	return applied, p, nil
}

func (s *stockService) Restore(ctx context.Context, productID uuid.UUID, qty int, txnID *uuid.UUID) (*model.Product, error) {
	if qty <= 0 {
		p, err := s.productRepo.FindByID(ctx, productID)
		return p, notFoundOr(err, model.KindProduct)
	}
	return s.adjust(ctx, productID, txnID, func(current int) int { return current + qty })
}

func (s *stockService) Set(ctx context.Context, productID uuid.UUID, qty int) (*model.Product, error) {
	if qty < 0 {
		qty = 0
	}
	return s.adjust(ctx, productID, nil, func(int) int { return qty })
}

func (s *stockService) adjust(ctx context.Context, productID uuid.UUID, txnID *uuid.UUID, next func(current int) int) (*model.Product, error) {
	var product *model.Product
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.productRepo.FindByIDForUpdate(txCtx, productID)
		if err != nil {
			return notFoundOr(err, model.KindProduct)
		}

		before := p.StockQuantity
		p.StockQuantity = next(before)
		p.Reclassify()
		p.UpdatedAt = s.clock.Now()
		if err := s.productRepo.Update(txCtx, p); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}

		if delta := p.StockQuantity - before; delta != 0 {
			direction := model.MovementIn
			if delta < 0 {
				direction = model.MovementOut
				delta = -delta
			}
			movement := &model.StockMovement{
				ProductID:       p.ID,
				TransactionID:   txnID,
				Direction:       direction,
				QuantityChanged: delta,
				StockAfter:      p.StockQuantity,
			}
			if err := s.movementRepo.Create(txCtx, movement); err != nil {
				return fmt.Errorf("failed to record stock movement: %w", err)
			}
			s.metrics.ObserveStock(direction, delta)
		}

		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}
