package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction statuses
const (
	TransactionPending   = "Pending"
	TransactionCompleted = "Completed"
)

// Transaction is a customer order for a service.
type Transaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code          string          `gorm:"type:varchar(32);index" json:"code"`
	QueueNumber   string          `gorm:"type:varchar(16);not null" json:"queue_number"`
	CustomerName  string          `gorm:"type:varchar(255);not null" json:"customer_name"`
	ServiceTypeID *uuid.UUID      `gorm:"type:uuid;index" json:"service_type_id"`
	ServiceType   *ServiceType    `gorm:"foreignKey:ServiceTypeID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	ProductID     *uuid.UUID      `gorm:"type:uuid;index" json:"product_id"`
	Product       *Product        `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	TotalPages    int             `gorm:"type:int;not null;default:0" json:"total_pages"`
	Quantity      int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"unit_price"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	Date          time.Time       `gorm:"index" json:"date"`
	Status        string          `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	// DeductedQuantity is what was actually taken from stock when the
	// transaction completed, after flooring at zero.
	DeductedQuantity int `gorm:"type:int;not null;default:0" json:"deducted_quantity"`
	ArchiveState
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
