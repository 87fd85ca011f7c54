package repository

import (
	"context"

	"go-distribution-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DebtRepository interface {
	Create(tx *gorm.DB, debt *model.Debt) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Debt, error)
	ApplyPayment(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) (bool, error)
	AppendPayment(tx *gorm.DB, payment *model.DebtPayment) error
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]model.Debt, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]model.Debt, error)
	TotalOwedBy(ctx context.Context, buyerID uuid.UUID) (decimal.Decimal, error)
	TotalOwedTo(ctx context.Context, sellerID uuid.UUID) (decimal.Decimal, error)
}

type debtRepo struct {
	db *gorm.DB
}

func NewDebtRepo(db *gorm.DB) DebtRepository {
	return &debtRepo{db}
}

func (r *debtRepo) Create(tx *gorm.DB, debt *model.Debt) error {
	return tx.Omit(clause.Associations).Create(debt).Error
}

func (r *debtRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Debt, error) {
	var debt model.Debt
	err := r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Seller").
		Preload("Buyer").
		First(&debt, "id = ?", id).Error
	if err != nil {
		return nil, classify(err, "debt "+id.String()+" not found", "")
	}
	return &debt, nil
}

// ApplyPayment lowers the balance only when it still covers amount. is_paid is
// computed from the pre-update balance in the same statement.
func (r *debtRepo) ApplyPayment(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	res := tx.Model(&model.Debt{}).
		Where("id = ? AND amount >= ?", id, amount).
		Updates(map[string]interface{}{
			"amount":  gorm.Expr("amount - ?", amount),
			"is_paid": gorm.Expr("amount - ? = 0", amount),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *debtRepo) AppendPayment(tx *gorm.DB, payment *model.DebtPayment) error {
	return tx.Create(payment).Error
}

func (r *debtRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]model.Debt, error) {
	return r.list(ctx, "buyer_id = ?", buyerID, limit)
}

func (r *debtRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]model.Debt, error) {
	return r.list(ctx, "seller_id = ?", sellerID, limit)
}

func (r *debtRepo) list(ctx context.Context, cond string, userID uuid.UUID, limit int) ([]model.Debt, error) {
	var debts []model.Debt
	q := r.db.WithContext(ctx).
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Seller").
		Preload("Buyer").
		Where(cond, userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&debts).Error
	return debts, err
}

func (r *debtRepo) TotalOwedBy(ctx context.Context, buyerID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(ctx, "buyer_id = ?", buyerID)
}

func (r *debtRepo) TotalOwedTo(ctx context.Context, sellerID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(ctx, "seller_id = ?", sellerID)
}

func (r *debtRepo) sum(ctx context.Context, cond string, userID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.db.WithContext(ctx).Model(&model.Debt{}).
		Where(cond, userID).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&total)
	return total, err
}
