package service

import (
	"context"

	"go-distribution-ws/internal/apperr"
	"go-distribution-ws/internal/model"
	"go-distribution-ws/internal/notify"
	"go-distribution-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SellItem is one line of a sell batch. Name, Phone and Address describe a
// walk-in buyer and are only read when the seller is a reseller.
type SellItem struct {
	ProductID uuid.UUID  `json:"product_id" validate:"uuid_required"`
	BuyerID   *uuid.UUID `json:"buyer_id"`
	Quantity  int        `json:"quantity" validate:"gt=0"`
	Status    string     `json:"status"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	PayByDebt bool       `json:"pay_by_debt"`
}

// SellResult carries the outcome of the item at Index. Exactly one of
// Transaction and Err is set.
type SellResult struct {
	Index       int
	Transaction *model.Transaction
	Debt        *model.Debt
	Err         error
}

type SellService interface {
	// Sell processes items in order, each in its own storage transaction. A
	// failed item does not stop or undo the others.
	Sell(ctx context.Context, sellerID uuid.UUID, items []SellItem) []SellResult
}

type sellService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	txRepo      repository.TransactionRepository
	debtRepo    repository.DebtRepository
	resolver    *CounterpartyResolver
	sink        *notify.Sink
}

func NewSellService(
	db *gorm.DB,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	txRepo repository.TransactionRepository,
	debtRepo repository.DebtRepository,
	resolver *CounterpartyResolver,
	sink *notify.Sink,
) SellService {
	return &sellService{
		db:          db,
		productRepo: productRepo,
		userRepo:    userRepo,
		txRepo:      txRepo,
		debtRepo:    debtRepo,
		resolver:    resolver,
		sink:        sink,
	}
}

func (s *sellService) Sell(ctx context.Context, sellerID uuid.UUID, items []SellItem) []SellResult {
	results := make([]SellResult, 0, len(items))
	for i, item := range items {
		trx, debt, err := s.sellOne(ctx, sellerID, item)
		results = append(results, SellResult{Index: i, Transaction: trx, Debt: debt, Err: err})
	}
	return results
}

func (s *sellService) sellOne(ctx context.Context, sellerID uuid.UUID, item SellItem) (*model.Transaction, *model.Debt, error) {
	if err := validateRequest(&item); err != nil {
		return nil, nil, err
	}

	product, err := s.productRepo.FindByID(ctx, item.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if product.Quantity < item.Quantity {
		return nil, nil, apperr.InsufficientStock("insufficient stock for product %s: %d available, %d requested",
			product.ID, product.Quantity, item.Quantity)
	}

	seller, err := s.userRepo.FindByID(ctx, sellerID)
	if err != nil {
		return nil, nil, err
	}
	if product.UserID != seller.ID {
		return nil, nil, apperr.Permission("product %s does not belong to the seller", product.ID)
	}

	status := model.StatusShipping
	if item.Status != "" {
		st, ok := model.ParseTransactionStatus(item.Status)
		if !ok {
			return nil, nil, apperr.Validation("unknown transaction status %q", item.Status)
		}
		status = st
	}

	var buyer *model.User
	if seller.Role == model.RoleReseller {
		buyer, err = s.resolver.Resolve(ctx, seller, WalkIn{Name: item.Name, Phone: item.Phone, Address: item.Address})
		if err != nil {
			return nil, nil, err
		}
		// reseller sales hand goods over on the spot
		status = model.StatusCompleted
	} else {
		if item.BuyerID == nil || *item.BuyerID == uuid.Nil {
			return nil, nil, apperr.Validation("buyer_id is required")
		}
		buyer, err = s.userRepo.FindByID(ctx, *item.BuyerID)
		if err != nil {
			return nil, nil, err
		}
	}
	if buyer.ID == seller.ID {
		return nil, nil, apperr.Validation("seller and buyer must be different accounts")
	}

	qty := decimal.NewFromInt(int64(item.Quantity))
	totalPrice := product.ProductPrice.Mul(qty)
	profit := totalPrice.Sub(product.PurchasePrice.Mul(qty))

	var (
		trx  *model.Transaction
		debt *model.Debt
		note *model.Notification
	)
	err = repository.RunInTx(ctx, s.db, func(tx *gorm.DB) error {
		trx = &model.Transaction{
			ProductID:  product.ID,
			SellerID:   seller.ID,
			BuyerID:    buyer.ID,
			Quantity:   item.Quantity,
			TotalPrice: totalPrice,
			Profit:     profit,
			Status:     status,
		}
		if err := s.txRepo.Create(tx, trx); err != nil {
			return err
		}

		debt = nil
		if item.PayByDebt {
			debt = &model.Debt{
				SellerID:       seller.ID,
				BuyerID:        buyer.ID,
				ProductID:      product.ID,
				TransactionID:  &trx.ID,
				OriginalAmount: totalPrice,
				Amount:         totalPrice,
				IsPaid:         totalPrice.IsZero(),
			}
			if err := s.debtRepo.Create(tx, debt); err != nil {
				return err
			}
		}

		if err := s.productRepo.DecrementStock(tx, product.ID, item.Quantity); err != nil {
			return err
		}

		var err error
		note, err = s.sink.Record(tx, seller.ID, buyer.ID, model.NotifTransactionCreated)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.sink.Push(note)
	return trx, debt, nil
}
