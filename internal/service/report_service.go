package service

import (
	"context"

	"copycorner/internal/model"
	"copycorner/internal/repository"
)

// InventoryReport summarizes active stock.
type InventoryReport struct {
	TotalProducts     int64                       `json:"total_products"`
	StatusCounts      map[model.StockStatus]int64 `json:"status_counts"`
	LowStock          []ProductResponse           `json:"low_stock"`
	OutOfStock        []ProductResponse           `json:"out_of_stock"`
	TransactionCounts map[string]int64            `json:"transaction_counts"`
}

type ReportService interface {
	Inventory(ctx context.Context) (*InventoryReport, error)
}

type reportService struct {
	repo repository.ReportRepository
}

func NewReportService(repo repository.ReportRepository) ReportService {
	return &reportService{repo: repo}
}

func (s *reportService) Inventory(ctx context.Context) (*InventoryReport, error) {
	counts, err := s.repo.StockCounts(ctx)
	if err != nil {
		return nil, err
	}
	low, err := s.repo.ProductsByStockStatus(ctx, model.StockLow)
	if err != nil {
		return nil, err
	}
	out, err := s.repo.ProductsByStockStatus(ctx, model.StockOutOfStock)
	if err != nil {
		return nil, err
	}
	txns, err := s.repo.TransactionCounts(ctx)
	if err != nil {
		return nil, err
	}

	report := &InventoryReport{
		StatusCounts:      counts,
		LowStock:          make([]ProductResponse, 0, len(low)),
		OutOfStock:        make([]ProductResponse, 0, len(out)),
		TransactionCounts: txns,
	}
	for _, n := range counts {
		report.TotalProducts += n
	}
	for i := range low {
		report.LowStock = append(report.LowStock, toProductResponse(&low[i]))
	}
	for i := range out {
		report.OutOfStock = append(report.OutOfStock, toProductResponse(&out[i]))
	}
	return report, nil
}
