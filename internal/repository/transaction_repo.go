package repository

import (
	"context"
	"time"

	"go-distribution-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionRepository interface {
	Create(tx *gorm.DB, trx *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]model.Transaction, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]model.Transaction, error)
	MarkCompleted(tx *gorm.DB, id uuid.UUID) (bool, error)
	UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.TransactionStatus) (bool, error)
	SumRevenue(ctx context.Context, sellerIDs []uuid.UUID, from, to time.Time) (decimal.Decimal, error)
	CountSales(ctx context.Context, sellerID uuid.UUID, from, to time.Time) (int64, error)
	CountPurchases(ctx context.Context, buyerID uuid.UUID, from, to time.Time) (int64, error)
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

// withParties loads the product even after it was deleted, so history stays readable.
func withParties(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Seller").
		Preload("Buyer")
}

func (r *transactionRepo) Create(tx *gorm.DB, trx *model.Transaction) error {
	return tx.Omit(clause.Associations).Create(trx).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var trx model.Transaction
	if err := withParties(r.db.WithContext(ctx)).First(&trx, "id = ?", id).Error; err != nil {
		return nil, classify(err, "transaction "+id.String()+" not found", "")
	}
	return &trx, nil
}

func (r *transactionRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]model.Transaction, error) {
	return r.list(ctx, "seller_id = ?", sellerID, limit)
}

func (r *transactionRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]model.Transaction, error) {
	return r.list(ctx, "buyer_id = ?", buyerID, limit)
}

func (r *transactionRepo) list(ctx context.Context, cond string, userID uuid.UUID, limit int) ([]model.Transaction, error) {
	var transactions []model.Transaction
	q := withParties(r.db.WithContext(ctx)).Where(cond, userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&transactions).Error
	return transactions, err
}

// MarkCompleted flips the status to completed unless it already is. The
// returned flag is false when another call got there first.
func (r *transactionRepo) MarkCompleted(tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := tx.Model(&model.Transaction{}).
		Where("id = ? AND status <> ?", id, model.StatusCompleted).
		Update("status", model.StatusCompleted)
	return res.RowsAffected == 1, res.Error
}

// UpdateStatus changes a status that is not yet completed.
func (r *transactionRepo) UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.TransactionStatus) (bool, error) {
	res := tx.Model(&model.Transaction{}).
		Where("id = ? AND status <> ?", id, model.StatusCompleted).
		Update("status", status)
	return res.RowsAffected == 1, res.Error
}

func (r *transactionRepo) SumRevenue(ctx context.Context, sellerIDs []uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	if len(sellerIDs) == 0 {
		return total, nil
	}
	err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("seller_id IN ? AND created_at >= ? AND created_at < ?", sellerIDs, from, to).
		Select("COALESCE(SUM(total_price), 0)").
		Row().Scan(&total)
	return total, err
}

func (r *transactionRepo) CountSales(ctx context.Context, sellerID uuid.UUID, from, to time.Time) (int64, error) {
	return r.count(ctx, "seller_id = ?", sellerID, from, to)
}

func (r *transactionRepo) CountPurchases(ctx context.Context, buyerID uuid.UUID, from, to time.Time) (int64, error) {
	return r.count(ctx, "buyer_id = ?", buyerID, from, to)
}

func (r *transactionRepo) count(ctx context.Context, cond string, userID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where(cond, userID).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&count).Error
	return count, err
}
