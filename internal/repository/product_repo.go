package repository

import (
	"context"
	"strings"
	"time"

	"go-distribution-ws/internal/apperr"
	"go-distribution-ws/internal/model"
	"go-distribution-ws/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductFilter struct {
	Category string
	Name     string
	Limit    int
}

type ProductStats struct {
	TotalProducts int64 `json:"total_products"`
	TotalQuantity int64 `json:"total_quantity"`
	ExpiringSoon  int64 `json:"expiring_soon"`
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	ExistsForOwner(ctx context.Context, ownerID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filter ProductFilter) ([]model.Product, error)
	Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	DecrementStock(tx *gorm.DB, id uuid.UUID, qty int) error
	IncrementOrCreateForOwner(tx *gorm.DB, ownerID uuid.UUID, template *model.Product, qty int) (*model.Product, error)
	Stats(ctx context.Context, ownerID uuid.UUID, now time.Time) (*ProductStats, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
	return classify(err, "product not found", "product with this name already exists")
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := tx.First(&product, "id = ?", id).Error; err != nil {
		return nil, classify(err, "product "+id.String()+" not found", "")
	}
	return &product, nil
}

func (r *productRepo) ExistsForOwner(ctx context.Context, ownerID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("user_id = ? AND name = ?", ownerID, name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *productRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter ProductFilter) ([]model.Product, error) {
	var products []model.Product
	q := r.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(filter.Name))+"%")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Order("created_at DESC").Find(&products).Error
	return products, err
}

// Update writes only the given columns. Quantity is never touched unless the
// caller names it, so sales committed meanwhile are kept.
func (r *productRepo) Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return classify(res.Error, "product not found", "product with this name already exists")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("product %s not found", id)
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("product %s not found", id)
	}
	return nil
}

// DecrementStock takes qty out of stock in a single conditional statement, so
// concurrent sellers can never drive the quantity below zero.
func (r *productRepo) DecrementStock(tx *gorm.DB, id uuid.UUID, qty int) error {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND quantity >= ?", id, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var exists int64
	if err := tx.Model(&model.Product{}).Where("id = ?", id).Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return apperr.NotFound("product %s not found", id)
	}
	return apperr.InsufficientStock("insufficient stock for product %s", id)
}

// IncrementOrCreateForOwner merges qty into the owner's product of the same
// name, or clones template for the owner when there is none.
func (r *productRepo) IncrementOrCreateForOwner(tx *gorm.DB, ownerID uuid.UUID, template *model.Product, qty int) (*model.Product, error) {
	var existing model.Product
	err := tx.Where("user_id = ? AND name = ?", ownerID, template.Name).First(&existing).Error
	if err == nil {
		res := tx.Model(&existing).Update("quantity", gorm.Expr("quantity + ?", qty))
		if res.Error != nil {
			return nil, res.Error
		}
		existing.Quantity += qty
		return &existing, nil
	}
	if !database.IsNotFound(err) {
		return nil, err
	}

	clone := &model.Product{
		UserID:        ownerID,
		Name:          template.Name,
		Category:      template.Category,
		ProductPrice:  template.ProductPrice,
		PurchasePrice: template.PurchasePrice,
		HET:           template.HET,
		Quantity:      qty,
		ExpiredDate:   template.ExpiredDate,
		Position:      template.Position,
	}
	if clone.Position == "" {
		clone.Position = model.DefaultPosition
	}
	if err := tx.Omit(clause.Associations).Create(clone).Error; err != nil {
		return nil, classify(err, "", "buyer product was created concurrently, please retry")
	}
	return clone, nil
}

func (r *productRepo) Stats(ctx context.Context, ownerID uuid.UUID, now time.Time) (*ProductStats, error) {
	var stats ProductStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Where("user_id = ?", ownerID).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Where("user_id = ?", ownerID).
		Select("COALESCE(SUM(quantity), 0)").Row().Scan(&stats.TotalQuantity); err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).
		Where("user_id = ? AND expired_date BETWEEN ? AND ?", ownerID, now, now.AddDate(0, 0, 30)).
		Count(&stats.ExpiringSoon).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
