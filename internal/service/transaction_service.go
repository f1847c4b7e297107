package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"copycorner/internal/apperror"
	"copycorner/internal/model"
	"copycorner/internal/pkg/clock"
	"copycorner/internal/repository"
	ws "copycorner/internal/websocket"
	"copycorner/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionRequest struct {
	CustomerName  string           `json:"customer_name" binding:"required,max=255"`
	ServiceTypeID *string          `json:"service_type_id" binding:"omitempty,uuid"`
	ProductID     *string          `json:"product_id" binding:"omitempty,uuid"`
	TotalPages    int              `json:"total_pages" binding:"gte=0"`
	Quantity      int              `json:"quantity" binding:"required,gte=1"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	TotalAmount   *decimal.Decimal `json:"total_amount"`
	Date          *time.Time       `json:"date"`
	Status        string           `json:"status" binding:"omitempty,oneof=Pending Completed"`
}

type TransactionResponse struct {
	ID               string          `json:"id"`
	Code             string          `json:"code"`
	QueueNumber      string          `json:"queue_number"`
	CustomerName     string          `json:"customer_name"`
	ServiceTypeID    *string         `json:"service_type_id"`
	ServiceType      string          `json:"service_type"`
	ProductID        *string         `json:"product_id"`
	ProductName      string          `json:"product_name"`
	TotalPages       int             `json:"total_pages"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Date             time.Time       `json:"date"`
	Status           string          `json:"status"`
	DeductedQuantity int             `json:"deducted_quantity"`
	ArchiveFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TransactionService interface {
	List(ctx context.Context, search string, page *pagination.Params) ([]TransactionResponse, int64, error)
	ListArchived(ctx context.Context, page *pagination.Params) ([]TransactionResponse, int64, error)
	ListByStatus(ctx context.Context, status string, page *pagination.Params) ([]TransactionResponse, int64, error)
	Get(ctx context.Context, id string) (*TransactionResponse, error)
	Create(ctx context.Context, userID string, req TransactionRequest) (*TransactionResponse, error)
	Update(ctx context.Context, userID, id string, req TransactionRequest) (*TransactionResponse, error)
	Archive(ctx context.Context, userID, id string) (*TransactionResponse, error)
	Restore(ctx context.Context, userID, id string) (*TransactionResponse, error)
	Purge(ctx context.Context, userID, id string, force bool) error
	Renumber(ctx context.Context, userID string) (int, error)
}

type transactionService struct {
	txnRepo         repository.TransactionRepository
	serviceTypeRepo repository.ServiceTypeRepository
	lifecycleRepo   repository.LifecycleRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
	allocator       CodeAllocator
	lifecycle       Lifecycle
	stock           StockService
	clock           clock.Clock
	events          EventPublisher
}

func NewTransactionService(
	txnRepo repository.TransactionRepository,
	serviceTypeRepo repository.ServiceTypeRepository,
	lifecycleRepo repository.LifecycleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	allocator CodeAllocator,
	lifecycle Lifecycle,
	stock StockService,
	clk clock.Clock,
	events EventPublisher,
) TransactionService {
	return &transactionService{
		txnRepo:         txnRepo,
		serviceTypeRepo: serviceTypeRepo,
		lifecycleRepo:   lifecycleRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
		allocator:       allocator,
		lifecycle:       lifecycle,
		stock:           stock,
		clock:           clk,
		events:          publisherOrNoop(events),
	}
}

func (s *transactionService) List(ctx context.Context, search string, page *pagination.Params) ([]TransactionResponse, int64, error) {
	return s.list(ctx, repository.ListFilter{Search: search}, page)
}

func (s *transactionService) ListArchived(ctx context.Context, page *pagination.Params) ([]TransactionResponse, int64, error) {
	return s.list(ctx, repository.ListFilter{Archived: true}, page)
}

func (s *transactionService) ListByStatus(ctx context.Context, status string, page *pagination.Params) ([]TransactionResponse, int64, error) {
	status, ok := normalizeTransactionStatus(status)
	if !ok {
		return nil, 0, apperror.Validation("status must be Pending or Completed")
	}
	return s.list(ctx, repository.ListFilter{Status: status}, page)
}

func (s *transactionService) list(ctx context.Context, filter repository.ListFilter, page *pagination.Params) ([]TransactionResponse, int64, error) {
	txns, total, err := s.txnRepo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	res := make([]TransactionResponse, 0, len(txns))
	for i := range txns {
		res = append(res, toTransactionResponse(&txns[i]))
	}
	return res, total, nil
}

func (s *transactionService) Get(ctx context.Context, id string) (*TransactionResponse, error) {
	tid, err := parseID(model.KindTransaction, id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, tid)
}

func (s *transactionService) load(ctx context.Context, id uuid.UUID) (*TransactionResponse, error) {
	txn, err := s.txnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, model.KindTransaction)
	}
	res := toTransactionResponse(txn)
	return &res, nil
}

// Create records an order. A Completed order takes its stock at once.
func (s *transactionService) Create(ctx context.Context, userID string, req TransactionRequest) (*TransactionResponse, error) {
	txn, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	if txn.Status == "" {
		txn.Status = model.TransactionPending
	}

	var touched []*model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		alloc, err := s.allocator.Next(txCtx, model.KindTransaction)
		if err != nil {
			return err
		}
		txn.Code = alloc.Code
		txn.QueueNumber = model.FormatQueueNumber(alloc.Serial)

		var held map[uuid.UUID]*model.LifecycleRecord
		if txn.Status == model.TransactionCompleted {
			if held, err = s.lockStock(txCtx, txn.ProductID); err != nil {
				return err
			}
		}
		usesPages, err := s.checkReferences(txCtx, txn, nil, held)
		if err != nil {
			return err
		}

		if err := s.txnRepo.Create(txCtx, txn); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		if txn.Status == model.TransactionCompleted && txn.ProductID != nil {
			applied, p, err := s.stock.Deduct(txCtx, *txn.ProductID, stockAmount(txn, usesPages), &txn.ID)
			if err != nil {
				return err
			}
			txn.DeductedQuantity = applied
			if err := s.txnRepo.Update(txCtx, txn); err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}
			touched = append(touched, p)
		}

		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreate, model.KindTransaction, txn.ID.String(), txn.Code, req)
	})
	if err != nil {
		return nil, err
	}

	s.publishStock(touched)
	return s.load(ctx, txn.ID)
}

// Update edits an order and reconciles stock.
//
// A Completed order that changes product, service type, pages or quantity
// first gives back what it took, then takes the new amount. Moving back to
// Pending gives the stock back.
func (s *transactionService) Update(ctx context.Context, userID, id string, req TransactionRequest) (*TransactionResponse, error) {
	tid, err := parseID(model.KindTransaction, id)
	if err != nil {
		return nil, err
	}
	next, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}

	var touched []*model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		txn, err := s.txnRepo.FindByIDForUpdate(txCtx, tid)
		if err != nil {
			return notFoundOr(err, model.KindTransaction)
		}
		if txn.IsArchived {
			return apperror.InvalidState("Archived transactions cannot be edited, restore it first")
		}

		prev := *txn
		if next.Status == "" {
			next.Status = prev.Status
		}
		if req.Date == nil {
			next.Date = prev.Date
		}

		wasCompleted := prev.Status == model.TransactionCompleted
		isCompleted := next.Status == model.TransactionCompleted
		changed := !sameID(prev.ProductID, next.ProductID) ||
			!sameID(prev.ServiceTypeID, next.ServiceTypeID) ||
			prev.Quantity != next.Quantity ||
			prev.TotalPages != next.TotalPages

		var giveBack, take *uuid.UUID
		if wasCompleted && (!isCompleted || changed) && prev.DeductedQuantity > 0 {
			giveBack = prev.ProductID
		}
		if isCompleted && (!wasCompleted || changed) {
			take = next.ProductID
		}
		held, err := s.lockStock(txCtx, giveBack, take)
		if err != nil {
			return err
		}

		usesPages, err := s.checkReferences(txCtx, next, &prev, held)
		if err != nil {
			return err
		}

		txn.CustomerName = next.CustomerName
		txn.ServiceTypeID = next.ServiceTypeID
		txn.ProductID = next.ProductID
		txn.TotalPages = next.TotalPages
		txn.Quantity = next.Quantity
		txn.UnitPrice = next.UnitPrice
		txn.TotalAmount = next.TotalAmount
		txn.Date = next.Date
		txn.Status = next.Status

		if wasCompleted && (!isCompleted || changed) {
			if prev.ProductID != nil && prev.DeductedQuantity > 0 {
				p, err := s.stock.Restore(txCtx, *prev.ProductID, prev.DeductedQuantity, &txn.ID)
				if err != nil {
					return err
				}
				touched = append(touched, p)
			}
			txn.DeductedQuantity = 0
		}
		if isCompleted && (!wasCompleted || changed) && txn.ProductID != nil {
			applied, p, err := s.stock.Deduct(txCtx, *txn.ProductID, stockAmount(txn, usesPages), &txn.ID)
			if err != nil {
				return err
			}
			txn.DeductedQuantity = applied
			touched = append(touched, p)
		}

		txn.UpdatedAt = s.clock.Now()
		if err := s.txnRepo.Update(txCtx, txn); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdate, model.KindTransaction, id, txn.Code, req)
	})
	if err != nil {
		return nil, err
	}

	s.publishStock(touched)
	return s.load(ctx, tid)
}

// Archive hides a transaction. Stock is left as it is.
func (s *transactionService) Archive(ctx context.Context, userID, id string) (*TransactionResponse, error) {
	tid, err := parseID(model.KindTransaction, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Archive(ctx, userID, model.KindTransaction, tid); err != nil {
		return nil, err
	}
	return s.load(ctx, tid)
}

func (s *transactionService) Restore(ctx context.Context, userID, id string) (*TransactionResponse, error) {
	tid, err := parseID(model.KindTransaction, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Restore(ctx, userID, model.KindTransaction, tid); err != nil {
		return nil, err
	}
	return s.load(ctx, tid)
}

func (s *transactionService) Purge(ctx context.Context, userID, id string, force bool) error {
	tid, err := parseID(model.KindTransaction, id)
	if err != nil {
		return err
	}
	return s.lifecycle.Purge(ctx, userID, model.KindTransaction, tid, force)
}

func (s *transactionService) Renumber(ctx context.Context, userID string) (int, error) {
	return s.lifecycle.Renumber(ctx, userID, model.KindTransaction)
}

func (s *transactionService) fromRequest(req TransactionRequest) (*model.Transaction, error) {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, apperror.Validation("Customer name is required")
	}
	if req.Quantity < 1 {
		return nil, apperror.Validation("quantity must be at least 1")
	}
	if req.TotalPages < 0 {
		return nil, apperror.Validation("total_pages cannot be negative")
	}
	if req.UnitPrice.IsNegative() {
		return nil, apperror.Validation("unit_price cannot be negative")
	}

	status := ""
	if req.Status != "" {
		var ok bool
		if status, ok = normalizeTransactionStatus(req.Status); !ok {
			return nil, apperror.Validation("status must be Pending or Completed")
		}
	}

	serviceTypeID, err := parseOptionalID(model.KindServiceType, req.ServiceTypeID)
	if err != nil {
		return nil, err
	}
	productID, err := parseOptionalID(model.KindProduct, req.ProductID)
	if err != nil {
		return nil, err
	}

	total := req.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))
	if req.TotalAmount != nil {
		total = *req.TotalAmount
	}
	date := s.clock.Now()
	if req.Date != nil {
		date = req.Date.UTC()
	}

	return &model.Transaction{
		CustomerName:  name,
		ServiceTypeID: serviceTypeID,
		ProductID:     productID,
		TotalPages:    req.TotalPages,
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		TotalAmount:   total,
		Date:          date,
		Status:        status,
	}, nil
}

// lockStock takes the exclusive lock on every product whose stock the order
// will move, in id order, before anything else locks those rows. Taking a
// share lock first and upgrading later deadlocks two orders on one product.
func (s *transactionService) lockStock(ctx context.Context, ids ...*uuid.UUID) (map[uuid.UUID]*model.LifecycleRecord, error) {
	var distinct []uuid.UUID
	for _, id := range ids {
		if id != nil && !slices.Contains(distinct, *id) {
			distinct = append(distinct, *id)
		}
	}
	slices.SortFunc(distinct, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })

	held := make(map[uuid.UUID]*model.LifecycleRecord, len(distinct))
	for _, id := range distinct {
		rec, err := s.lifecycleRepo.LockForUpdate(ctx, model.KindProduct, id)
		if err != nil {
			return nil, notFoundOr(err, model.KindProduct)
		}
		held[id] = rec
	}
	return held, nil
}

// checkReferences locks newly referenced rows, rejecting archived ones,
// and reports whether the order's service type is paper based. References
// unchanged from prev are allowed to point at archived rows. Products already
// in held are checked under that lock instead of a share lock.
func (s *transactionService) checkReferences(ctx context.Context, txn *model.Transaction, prev *model.Transaction, held map[uuid.UUID]*model.LifecycleRecord) (bool, error) {
	if txn.ProductID != nil && (prev == nil || !sameID(txn.ProductID, prev.ProductID)) {
		if rec, ok := held[*txn.ProductID]; ok {
			if rec.IsArchived {
				return false, apperror.ArchivedReference(model.KindProduct, rec.Label)
			}
		} else if _, err := requireLive(ctx, s.lifecycleRepo, model.KindProduct, *txn.ProductID); err != nil {
			return false, err
		}
	}
	if txn.ServiceTypeID == nil {
		return false, nil
	}
	if prev == nil || !sameID(txn.ServiceTypeID, prev.ServiceTypeID) {
		if _, err := requireLive(ctx, s.lifecycleRepo, model.KindServiceType, *txn.ServiceTypeID); err != nil {
			return false, err
		}
	}
	st, err := s.serviceTypeRepo.FindByID(ctx, *txn.ServiceTypeID)
	if err != nil {
		return false, notFoundOr(err, model.KindServiceType)
	}
	return st.UsesPages, nil
}

func (s *transactionService) publishStock(products []*model.Product) {
	for _, p := range products {
		if p == nil {
			continue
		}
		s.events.Publish(ws.EventStockUpdated, StockEvent{
			ProductID:     p.ID.String(),
			StockQuantity: p.StockQuantity,
			Status:        model.ClassifyStock(p.StockQuantity, p.MinimumStock),
		})
	}
}

// stockAmount is pages × quantity for paper services and quantity otherwise.
func stockAmount(txn *model.Transaction, usesPages bool) int {
	if usesPages && txn.TotalPages > 0 {
		return txn.TotalPages * txn.Quantity
	}
	return txn.Quantity
}

func normalizeTransactionStatus(status string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "pending":
		return model.TransactionPending, true
	case "completed":
		return model.TransactionCompleted, true
	}
	return "", false
}

func toTransactionResponse(t *model.Transaction) TransactionResponse {
	res := TransactionResponse{
		ID:               t.ID.String(),
		Code:             model.DisplayCode(t.Code, t.IsArchived),
		QueueNumber:      t.QueueNumber,
		CustomerName:     t.CustomerName,
		TotalPages:       t.TotalPages,
		Quantity:         t.Quantity,
		UnitPrice:        t.UnitPrice,
		TotalAmount:      t.TotalAmount,
		Date:             t.Date,
		Status:           t.Status,
		DeductedQuantity: t.DeductedQuantity,
		ArchiveFields:    archiveFields(t.ArchiveState),
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
	if t.ServiceTypeID != nil {
		id := t.ServiceTypeID.String()
		res.ServiceTypeID = &id
	}
	if t.ServiceType != nil {
		res.ServiceType = t.ServiceType.Name
	}
	if t.ProductID != nil {
		id := t.ProductID.String()
		res.ProductID = &id
	}
	if t.Product != nil {
		res.ProductName = t.Product.Name
	}
	return res
}
