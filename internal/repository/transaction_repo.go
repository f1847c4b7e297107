package repository

import (
	"context"

	"copycorner/internal/model"
	"copycorner/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) error
	Update(ctx context.Context, txn *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, filter ListFilter, page *pagination.Params) ([]model.Transaction, int64, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *model.Transaction) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Create(txn).Error
}

func (r *transactionRepository) Update(ctx context.Context, txn *model.Transaction) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(txn).Error
}

func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var txn model.Transaction
	if err := GetDB(ctx, r.db).Preload("ServiceType").Preload("Product").
		First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var txn model.Transaction
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) List(ctx context.Context, filter ListFilter, page *pagination.Params) ([]model.Transaction, int64, error) {
	var txns []model.Transaction

	db := whereArchived(GetDB(ctx, r.db).Model(&model.Transaction{}), filter)
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		db = db.Where("customer_name ILIKE ?", "%"+filter.Search+"%")
	}

	db, total, err := paginate(db, page)
	if err != nil {
		return nil, 0, err
	}
	if err := orderArchived(db, filter).Preload("ServiceType").Preload("Product").Find(&txns).Error; err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}
