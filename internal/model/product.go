package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockStatus is derived from quantity and minimum stock, never edited directly.
type StockStatus string

const (
	StockOutOfStock StockStatus = "Out of Stock"
	StockLow        StockStatus = "Low Stock"
	StockIn         StockStatus = "In Stock"
)

// ClassifyStock maps a quantity and its minimum to a stock status.
// A quantity equal to the minimum counts as low.
func ClassifyStock(quantity, minimum int) StockStatus {
	switch {
	case quantity <= 0:
		return StockOutOfStock
	case quantity <= minimum:
		return StockLow
	default:
		return StockIn
	}
}

// Product represents an item in the inventory
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code          string          `gorm:"type:varchar(32);index" json:"code"`
	Name          string          `gorm:"type:varchar(255);not null;index" json:"name"`
	CategoryID    *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	Category      *Category       `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	StockQuantity int             `gorm:"type:int;default:0;not null" json:"stock_quantity"`
	MinimumStock  int             `gorm:"type:int;not null" json:"minimum_stock"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"unit_price"`
	Status        StockStatus     `gorm:"type:varchar(20);not null" json:"status"`
	ArchiveState
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reclassify recomputes Status from the current quantities.
func (p *Product) Reclassify() {
	p.Status = ClassifyStock(p.StockQuantity, p.MinimumStock)
}

// Stock movement directions
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// StockMovement records every stock change strictly
type StockMovement struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	TransactionID   *uuid.UUID `gorm:"type:uuid;index" json:"transaction_id"` // nil for manual edits
	Direction       string     `gorm:"type:varchar(10);not null" json:"direction"`
	QuantityChanged int        `gorm:"type:int;not null" json:"quantity_changed"`
	StockAfter      int        `gorm:"type:int;not null" json:"stock_after"`
	CreatedAt       time.Time  `json:"created_at"`
}
