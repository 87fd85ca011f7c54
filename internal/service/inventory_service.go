package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-distribution-ws/internal/apperr"
	"go-distribution-ws/internal/model"
	"go-distribution-ws/internal/notify"
	"go-distribution-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpiryLayout is the dd-mm-yyyy date format used by product input and imports.
const ExpiryLayout = "02-01-2006"

type ProductInput struct {
	Name          string          `json:"name" validate:"required"`
	Category      string          `json:"category" validate:"required"`
	ProductPrice  decimal.Decimal `json:"product_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	HET           decimal.Decimal `json:"het"`
	Quantity      int             `json:"quantity" validate:"gte=0"`
	ExpiredDate   string          `json:"expired_date" validate:"omitempty,datetime=02-01-2006"`
	Position      string          `json:"position"`
}

// ProductUpdate is a partial edit; nil fields keep their stored value.
type ProductUpdate struct {
	Name          *string          `json:"name"`
	Category      *string          `json:"category"`
	ProductPrice  *decimal.Decimal `json:"product_price"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	HET           *decimal.Decimal `json:"het"`
	Quantity      *int             `json:"quantity" validate:"omitempty,gte=0"`
	ExpiredDate   *string          `json:"expired_date" validate:"omitempty,datetime=02-01-2006"`
	Position      *string          `json:"position"`
}

// ImportRow is one spreadsheet row, every cell still as text.
type ImportRow struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	ProductPrice  string `json:"productPrice"`
	PurchasePrice string `json:"purchasePrice"`
	HET           string `json:"het"`
	Quantity      string `json:"quantity"`
	Position      string `json:"position"`
	ExpiredDate   string `json:"expiredDate"`
}

type ImportResult struct {
	Row     int
	Product *model.Product
	Err     error
}

type InventoryService interface {
	CreateProduct(ctx context.Context, ownerID uuid.UUID, req *ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, ownerID, id uuid.UUID, req *ProductUpdate) (*model.Product, error)
	DeleteProduct(ctx context.Context, ownerID, id uuid.UUID) error
	GetProducts(ctx context.Context, ownerID uuid.UUID, filter repository.ProductFilter) ([]model.Product, error)
	GetProduct(ctx context.Context, ownerID, id uuid.UUID) (*model.Product, error)
	ImportProducts(ctx context.Context, ownerID uuid.UUID, rows []ImportRow) []ImportResult
}

type inventoryService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	sink        *notify.Sink
}

func NewInventoryService(db *gorm.DB, productRepo repository.ProductRepository, userRepo repository.UserRepository, sink *notify.Sink) InventoryService {
	return &inventoryService{
		db:          db,
		productRepo: productRepo,
		userRepo:    userRepo,
		sink:        sink,
	}
}

func (s *inventoryService) CreateProduct(ctx context.Context, ownerID uuid.UUID, req *ProductInput) (*model.Product, error) {
	product, err := buildProduct(req)
	if err != nil {
		return nil, err
	}

	// Duplicate names are rejected, never merged
	exists, err := s.productRepo.ExistsForOwner(ctx, ownerID, product.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("product %q already exists", product.Name)
	}

	product.UserID = ownerID
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, ownerID, id uuid.UUID, req *ProductUpdate) (*model.Product, error) {
	existing, err := s.GetProduct(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	changes, err := req.columns()
	if err != nil {
		return nil, err
	}

	if name, ok := changes["name"].(string); ok && name != existing.Name {
		taken, err := s.productRepo.ExistsForOwner(ctx, ownerID, name, existing.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Conflict("product %q already exists", name)
		}
	}

	if err := s.productRepo.Update(ctx, existing.ID, changes); err != nil {
		return nil, err
	}
	updated, err := s.productRepo.FindByID(ctx, existing.ID)
	if err != nil {
		return nil, err
	}

	if err := s.notifyCreator(ctx, ownerID); err != nil {
		return nil, err
	}
	return updated, nil
}

// columns maps the fields present in the edit to product columns.
func (u *ProductUpdate) columns() (map[string]interface{}, error) {
	if err := validateRequest(u); err != nil {
		return nil, err
	}
	changes := map[string]interface{}{}

	for _, f := range []struct {
		column string
		value  *string
	}{
		{"name", u.Name},
		{"category", u.Category},
	} {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if v == "" {
			return nil, apperr.Validation("%s must not be empty", f.column)
		}
		changes[f.column] = v
	}

	for _, f := range []struct {
		column string
		value  *decimal.Decimal
	}{
		{"product_price", u.ProductPrice},
		{"purchase_price", u.PurchasePrice},
		{"het", u.HET},
	} {
		if f.value == nil {
			continue
		}
		if f.value.IsNegative() {
			return nil, apperr.Validation("%s must not be negative", f.column)
		}
		changes[f.column] = *f.value
	}

	if u.Quantity != nil {
		changes["quantity"] = *u.Quantity
	}
	if u.Position != nil {
		pos := strings.TrimSpace(*u.Position)
		if pos == "" {
			pos = model.DefaultPosition
		}
		changes["position"] = pos
	}
	if u.ExpiredDate != nil {
		// an empty string clears the expiry
		changes["expired_date"] = nil
		if raw := strings.TrimSpace(*u.ExpiredDate); raw != "" {
			expiry, err := time.Parse(ExpiryLayout, raw)
			if err != nil {
				return nil, apperr.Validation("expired_date must use the format dd-mm-yyyy")
			}
			changes["expired_date"] = expiry
		}
	}

	if len(changes) == 0 {
		return nil, apperr.Validation("at least one field must be provided")
	}
	return changes, nil
}

// notifyCreator tells the account that onboarded the owner about the change.
func (s *inventoryService) notifyCreator(ctx context.Context, ownerID uuid.UUID) error {
	owner, err := s.userRepo.FindByID(ctx, ownerID)
	if err != nil {
		return err
	}
	if owner.CreatedByID == nil {
		return nil
	}
	var note *model.Notification
	err = repository.RunInTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		note, err = s.sink.Record(tx, owner.ID, *owner.CreatedByID, model.NotifProductUpdated)
		return err
	})
	if err != nil {
		return err
	}
	s.sink.Push(note)
	return nil
}

func (s *inventoryService) DeleteProduct(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.GetProduct(ctx, ownerID, id); err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, id)
}

func (s *inventoryService) GetProducts(ctx context.Context, ownerID uuid.UUID, filter repository.ProductFilter) ([]model.Product, error) {
	return s.productRepo.ListByOwner(ctx, ownerID, filter)
}

func (s *inventoryService) GetProduct(ctx context.Context, ownerID, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.UserID != ownerID {
		return nil, apperr.Permission("product %s belongs to another account", id)
	}
	return product, nil
}

// ImportProducts adds each row through the single-product path. Rows are
// independent; Row in each result is 1-based like the spreadsheet.
func (s *inventoryService) ImportProducts(ctx context.Context, ownerID uuid.UUID, rows []ImportRow) []ImportResult {
	results := make([]ImportResult, 0, len(rows))
	for i, row := range rows {
		res := ImportResult{Row: i + 1}
		input, err := row.toInput()
		if err == nil {
			res.Product, err = s.CreateProduct(ctx, ownerID, input)
		}
		if err != nil {
			res.Err = fmt.Errorf("row %d: %w", i+1, err)
		}
		results = append(results, res)
	}
	return results
}

func (r ImportRow) toInput() (*ProductInput, error) {
	required := []struct{ field, value string }{
		{"name", r.Name},
		{"category", r.Category},
		{"productPrice", r.ProductPrice},
		{"quantity", r.Quantity},
		{"expiredDate", r.ExpiredDate},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return nil, apperr.Validation("%s is required", f.field)
		}
	}

	price, err := parseMoney("productPrice", r.ProductPrice)
	if err != nil {
		return nil, err
	}
	cost, err := parseMoney("purchasePrice", r.PurchasePrice)
	if err != nil {
		return nil, err
	}
	het, err := parseMoney("het", r.HET)
	if err != nil {
		return nil, err
	}
	qty, err := strconv.Atoi(strings.TrimSpace(r.Quantity))
	if err != nil {
		return nil, apperr.Validation("quantity must be a whole number")
	}

	return &ProductInput{
		Name:          r.Name,
		Category:      r.Category,
		ProductPrice:  price,
		PurchasePrice: cost,
		HET:           het,
		Quantity:      qty,
		ExpiredDate:   strings.TrimSpace(r.ExpiredDate),
		Position:      r.Position,
	}, nil
}

// parseMoney treats an empty cell as zero.
func parseMoney(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperr.Validation("%s must be a number", field)
	}
	return d, nil
}

func buildProduct(req *ProductInput) (*model.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	for _, p := range []struct {
		field string
		value decimal.Decimal
	}{
		{"product_price", req.ProductPrice},
		{"purchase_price", req.PurchasePrice},
		{"het", req.HET},
	} {
		if p.value.IsNegative() {
			return nil, apperr.Validation("%s must not be negative", p.field)
		}
	}

	product := &model.Product{
		Name:          req.Name,
		Category:      req.Category,
		ProductPrice:  req.ProductPrice,
		PurchasePrice: req.PurchasePrice,
		HET:           req.HET,
		Quantity:      req.Quantity,
		Position:      strings.TrimSpace(req.Position),
	}
	if product.Position == "" {
		product.Position = model.DefaultPosition
	}
	if req.ExpiredDate != "" {
		expiry, err := time.Parse(ExpiryLayout, req.ExpiredDate)
		if err != nil {
			return nil, apperr.Validation("expired_date must use the format dd-mm-yyyy")
		}
		product.ExpiredDate = &expiry
	}
	return product, nil
}
