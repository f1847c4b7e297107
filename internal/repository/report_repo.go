package repository

import (
	"context"
	"fmt"

	"copycorner/internal/model"

	"gorm.io/gorm"
)

// stockStatusSQL derives the stock status in SQL with the same thresholds
// as model.ClassifyStock.
const stockStatusSQL = `CASE
	WHEN stock_quantity <= 0 THEN 'Out of Stock'
	WHEN stock_quantity <= minimum_stock THEN 'Low Stock'
	ELSE 'In Stock' END`

type ReportRepository interface {
	// StockCounts counts active products per derived stock status.
	StockCounts(ctx context.Context) (map[model.StockStatus]int64, error)
	// ProductsByStockStatus lists active products in one derived status, lowest stock first.
	ProductsByStockStatus(ctx context.Context, status model.StockStatus) ([]model.Product, error)
	// TransactionCounts counts active transactions per status.
	TransactionCounts(ctx context.Context) (map[string]int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) StockCounts(ctx context.Context) (map[model.StockStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := GetDB(ctx, r.db).Table("products").
		Select(stockStatusSQL+" AS status, COUNT(*) AS count").
		Where("is_archived = ?", false).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count stock statuses: %w", err)
	}

	res := map[model.StockStatus]int64{
		model.StockOutOfStock: 0,
		model.StockLow: 0,
		model.StockIn:  0,
	}
	for _, row := range rows {
		res[model.StockStatus(row.Status)] = row.Count
	}
	return res, nil
}

func (r *reportRepository) ProductsByStockStatus(ctx context.Context, status model.StockStatus) ([]model.Product, error) {
	var products []model.Product
	if err := GetDB(ctx, r.db).Model(&model.Product{}).
		Preload("Category").
		Where("is_archived = ?", false).
		Where("("+stockStatusSQL+") = ?", string(status)).
		Order("stock_quantity asc").Order("name asc").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s products: %w", status, err)
	}
	return products, nil
}

func (r *reportRepository) TransactionCounts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := GetDB(ctx, r.db).Table("transactions").
		Select("status, COUNT(*) AS count").
		Where("is_archived = ?", false).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	res := map[string]int64{
		model.TransactionPending:   0,
		model.TransactionCompleted: 0,
	}
	for _, row := range rows {
		res[row.Status] = row.Count
	}
	return res, nil
}
