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
	ws "copycorner/internal/websocket"
	"copycorner/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs
type CreateProductRequest struct {
	Name          string          `json:"name" binding:"required,max=255"`
	CategoryID    *string         `json:"category_id" binding:"omitempty,uuid"`
	StockQuantity int             `json:"stock_quantity" binding:"min=0"`
	MinimumStock  *int            `json:"minimum_stock" binding:"omitempty,min=0"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

type UpdateProductRequest struct {
	Name          string          `json:"name" binding:"required,max=255"`
	CategoryID    *string         `json:"category_id" binding:"omitempty,uuid"`
	StockQuantity *int            `json:"stock_quantity" binding:"omitempty,min=0"`
	MinimumStock  *int            `json:"minimum_stock" binding:"omitempty,min=0"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

type ProductResponse struct {
	ID            string            `json:"id"`
	Code          string            `json:"code"`
	Name          string            `json:"name"`
	CategoryID    *string           `json:"category_id"`
	CategoryName  string            `json:"category_name"`
	StockQuantity int               `json:"stock_quantity"`
	MinimumStock  int               `json:"minimum_stock"`
	UnitPrice     decimal.Decimal   `json:"unit_price"`
	Status        model.StockStatus `json:"status"`
	ArchiveFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductSettings carries configurable product defaults.
type ProductSettings struct {
	DefaultMinimumStock int
}

type ProductService interface {
	List(ctx context.Context, search, categoryID string, page *pagination.Params) ([]ProductResponse, int64, error)
	ListArchived(ctx context.Context, page *pagination.Params) ([]ProductResponse, int64, error)
	Get(ctx context.Context, id string) (*ProductResponse, error)
	Create(ctx context.Context, userID string, req CreateProductRequest) (*ProductResponse, error)
	Update(ctx context.Context, userID, id string, req UpdateProductRequest) (*ProductResponse, error)
	Archive(ctx context.Context, userID, id string) (*ProductResponse, error)
	Restore(ctx context.Context, userID, id string) (*ProductResponse, error)
	Purge(ctx context.Context, userID, id string, force bool) error
	Renumber(ctx context.Context, userID string) (int, error)
}

type productService struct {
	productRepo   repository.ProductRepository
	lifecycleRepo repository.LifecycleRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	allocator     CodeAllocator
	lifecycle     Lifecycle
	stock         StockService
	clock         clock.Clock
	events        EventPublisher
	settings      ProductSettings
}

func NewProductService(
	productRepo repository.ProductRepository,
	lifecycleRepo repository.LifecycleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	allocator CodeAllocator,
	lifecycle Lifecycle,
	stock StockService,
	clk clock.Clock,
	events EventPublisher,
	settings ProductSettings,
) ProductService {
	if settings.DefaultMinimumStock < 0 {
		settings.DefaultMinimumStock = 5
	}
	return &productService{
		productRepo:   productRepo,
		lifecycleRepo: lifecycleRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		allocator:     allocator,
		lifecycle:     lifecycle,
		stock:         stock,
		clock:         clk,
		events:        publisherOrNoop(events),
		settings:      settings,
	}
}

func (s *productService) List(ctx context.Context, search, categoryID string, page *pagination.Params) ([]ProductResponse, int64, error) {
	filter := repository.ListFilter{Search: search}
	if categoryID != "" {
		id, err := parseID(model.KindCategory, categoryID)
		if err != nil {
			return nil, 0, err
		}
		filter.CategoryID = &id
	}
	return s.list(ctx, filter, page)
}

func (s *productService) ListArchived(ctx context.Context, page *pagination.Params) ([]ProductResponse, int64, error) {
	return s.list(ctx, repository.ListFilter{Archived: true}, page)
}

func (s *productService) list(ctx context.Context, filter repository.ListFilter, page *pagination.Params) ([]ProductResponse, int64, error) {
	products, total, err := s.productRepo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}
	return res, total, nil
}

func (s *productService) Get(ctx context.Context, id string) (*ProductResponse, error) {
	productID, err := parseID(model.KindProduct, id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, productID)
}

func (s *productService) load(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, model.KindProduct)
	}
	res := toProductResponse(product)
	return &res, nil
}

func (s *productService) Create(ctx context.Context, userID string, req CreateProductRequest) (*ProductResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Product name is required")
	}
	if req.UnitPrice.IsNegative() {
		return nil, apperror.Validation("Unit price cannot be negative")
	}
	categoryID, err := parseOptionalID(model.KindCategory, req.CategoryID)
	if err != nil {
		return nil, err
	}

	minimum := s.settings.DefaultMinimumStock
	if req.MinimumStock != nil {
		minimum = *req.MinimumStock
	}

	product := model.Product{
		Name:          name,
		CategoryID:    categoryID,
		StockQuantity: req.StockQuantity,
		MinimumStock:  minimum,
		UnitPrice:     req.UnitPrice,
	}
	product.Reclassify()

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		alloc, err := s.allocator.Next(txCtx, model.KindProduct)
		if err != nil {
			return err
		}
		product.Code = alloc.Code

		if categoryID != nil {
			if _, err := requireLive(txCtx, s.lifecycleRepo, model.KindCategory, *categoryID); err != nil {
				return err
			}
		}

		taken, err := s.lifecycleRepo.KeyTaken(txCtx, model.KindProduct, name, uuid.Nil)
		if err != nil {
			return fmt.Errorf("failed to check product name: %w", err)
		}
		if taken {
			return apperror.Duplicate(model.KindProduct, "name", name)
		}

		if err := s.productRepo.Create(txCtx, &product); err != nil {
			return saveErr(err, model.KindProduct, "name", name)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreate, model.KindProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}

	return s.load(ctx, product.ID)
}

func (s *productService) Update(ctx context.Context, userID, id string, req UpdateProductRequest) (*ProductResponse, error) {
	productID, err := parseID(model.KindProduct, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Product name is required")
	}
	if req.UnitPrice.IsNegative() {
		return nil, apperror.Validation("Unit price cannot be negative")
	}
	categoryID, err := parseOptionalID(model.KindCategory, req.CategoryID)
	if err != nil {
		return nil, err
	}

	var stockChanged bool
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByIDForUpdate(txCtx, productID)
		if err != nil {
			return notFoundOr(err, model.KindProduct)
		}
		if product.IsArchived {
			return apperror.InvalidState("Archived products cannot be edited, restore it first")
		}

		if name != product.Name {
			taken, err := s.lifecycleRepo.KeyTaken(txCtx, model.KindProduct, name, productID)
			if err != nil {
				return fmt.Errorf("failed to check product name: %w", err)
			}
			if taken {
				return apperror.Duplicate(model.KindProduct, "name", name)
			}
		}
		if categoryID != nil && !sameID(categoryID, product.CategoryID) {
			if _, err := requireLive(txCtx, s.lifecycleRepo, model.KindCategory, *categoryID); err != nil {
				return err
			}
		}

		product.Name = name
		product.CategoryID = categoryID
		product.UnitPrice = req.UnitPrice
		if req.MinimumStock != nil {
			product.MinimumStock = *req.MinimumStock
		}
		product.Reclassify()
		product.UpdatedAt = s.clock.Now()
		if err := s.productRepo.Update(txCtx, product); err != nil {
			return saveErr(err, model.KindProduct, "name", name)
		}

		if req.StockQuantity != nil && *req.StockQuantity != product.StockQuantity {
			if _, err := s.stock.Set(txCtx, productID, *req.StockQuantity); err != nil {
				return err
			}
			stockChanged = true
		}

		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdate, model.KindProduct, id, name, req)
	})
	if err != nil {
		return nil, err
	}

	res, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	if stockChanged {
		s.events.Publish(ws.EventStockUpdated, StockEvent{ProductID: res.ID, StockQuantity: res.StockQuantity, Status: res.Status})
	}
	return res, nil
}

func (s *productService) Archive(ctx context.Context, userID, id string) (*ProductResponse, error) {
	productID, err := parseID(model.KindProduct, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Archive(ctx, userID, model.KindProduct, productID); err != nil {
		return nil, err
	}
	return s.load(ctx, productID)
}

func (s *productService) Restore(ctx context.Context, userID, id string) (*ProductResponse, error) {
	productID, err := parseID(model.KindProduct, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.lifecycle.Restore(ctx, userID, model.KindProduct, productID); err != nil {
		return nil, err
	}
	return s.load(ctx, productID)
}

func (s *productService) Purge(ctx context.Context, userID, id string, force bool) error {
	productID, err := parseID(model.KindProduct, id)
	if err != nil {
		return err
	}
	return s.lifecycle.Purge(ctx, userID, model.KindProduct, productID, force)
}

func (s *productService) Renumber(ctx context.Context, userID string) (int, error) {
	return s.lifecycle.Renumber(ctx, userID, model.KindProduct)
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func toProductResponse(p *model.Product) ProductResponse {
	res := ProductResponse{
		ID:            p.ID.String(),
		Code:          model.DisplayCode(p.Code, p.IsArchived),
		Name:          p.Name,
		StockQuantity: p.StockQuantity,
		MinimumStock:  p.MinimumStock,
		UnitPrice:     p.UnitPrice,
		Status:        model.ClassifyStock(p.StockQuantity, p.MinimumStock),
		ArchiveFields: archiveFields(p.ArchiveState),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.CategoryID != nil {
		cid := p.CategoryID.String()
		res.CategoryID = &cid
	}
	if p.Category != nil {
		res.CategoryName = p.Category.Name
	}
	return res
}
