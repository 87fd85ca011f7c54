package service

import (
	"context"

	"go-distribution-ws/internal/apperr"
	"go-distribution-ws/internal/model"
	"go-distribution-ws/internal/notify"
	"go-distribution-ws/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserTransactions splits a user's history into sales and purchases.
type UserTransactions struct {
	Penjualan []model.Transaction `json:"penjualan"`
	Pembelian []model.Transaction `json:"pembelian"`
}

type TransactionService interface {
	UpdateStatus(ctx context.Context, id, actorID uuid.UUID, status string) (*model.Transaction, error)
	GetTransaction(ctx context.Context, id, actorID uuid.UUID) (*model.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID) (*UserTransactions, error)
}

type transactionService struct {
	db          *gorm.DB
	txRepo      repository.TransactionRepository
	productRepo repository.ProductRepository
	sink        *notify.Sink
}

func NewTransactionService(db *gorm.DB, txRepo repository.TransactionRepository, productRepo repository.ProductRepository, sink *notify.Sink) TransactionService {
	return &transactionService{
		db:          db,
		txRepo:      txRepo,
		productRepo: productRepo,
		sink:        sink,
	}
}

func (s *transactionService) UpdateStatus(ctx context.Context, id, actorID uuid.UUID, raw string) (*model.Transaction, error) {
	status, ok := model.ParseTransactionStatus(raw)
	if !ok {
		return nil, apperr.Validation("unknown transaction status %q", raw)
	}

	trx, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorID != trx.SellerID && actorID != trx.BuyerID {
		return nil, apperr.Permission("only the buyer or seller can update this transaction")
	}

	if status == model.StatusCompleted {
		if actorID != trx.BuyerID {
			return nil, apperr.Permission("only the buyer can mark a transaction as completed")
		}
		if err := s.complete(ctx, trx); err != nil {
			return nil, err
		}
		return s.txRepo.FindByID(ctx, id)
	}

	if trx.Status == model.StatusCompleted {
		return nil, apperr.Validation("transaction %s is already completed", id)
	}
	err = repository.RunInTx(ctx, s.db, func(tx *gorm.DB) error {
		changed, err := s.txRepo.UpdateStatus(tx, id, status)
		if err != nil {
			return err
		}
		if !changed {
			return apperr.Validation("transaction %s is already completed", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.txRepo.FindByID(ctx, id)
}

// complete flips the status and hands the goods over to the buyer in one unit.
// A transaction that is already completed is left untouched, so the hand-off
// happens at most once however often completion is requested.
func (s *transactionService) complete(ctx context.Context, trx *model.Transaction) error {
	var note *model.Notification
	err := repository.RunInTx(ctx, s.db, func(tx *gorm.DB) error {
		note = nil
		changed, err := s.txRepo.MarkCompleted(tx, trx.ID)
		if err != nil || !changed {
			return err
		}

		product, err := s.productRepo.FindByIDTx(tx, trx.ProductID)
		if err != nil {
			return err
		}
		if _, err := s.productRepo.IncrementOrCreateForOwner(tx, trx.BuyerID, product, trx.Quantity); err != nil {
			return err
		}

		note, err = s.sink.Record(tx, trx.BuyerID, trx.SellerID, model.NotifTransactionCompleted)
		return err
	})
	if err != nil {
		return err
	}
	s.sink.Push(note)
	return nil
}

func (s *transactionService) GetTransaction(ctx context.Context, id, actorID uuid.UUID) (*model.Transaction, error) {
	trx, err := s.txRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorID != trx.SellerID && actorID != trx.BuyerID {
		return nil, apperr.Permission("only the buyer or seller can view this transaction")
	}
	return trx, nil
}

func (s *transactionService) ListByUser(ctx context.Context, userID uuid.UUID) (*UserTransactions, error) {
	sales, err := s.txRepo.ListBySeller(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	purchases, err := s.txRepo.ListByBuyer(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	return &UserTransactions{Penjualan: sales, Pembelian: purchases}, nil
}
