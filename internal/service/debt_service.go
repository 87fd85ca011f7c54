package service

import (
	"context"
	"strings"

	"go-distribution-ws/internal/apperr"
	"go-distribution-ws/internal/model"
	"go-distribution-ws/internal/notify"
	"go-distribution-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrNotDebtOwner = apperr.Permission("only the seller who holds this debt can record payments")

// DebtSummary is the ledger as seen by one user: hutang is what the user owes
// as a buyer, piutang is what others owe the user as a seller.
type DebtSummary struct {
	Hutang       []model.Debt    `json:"hutang"`
	Piutang      []model.Debt    `json:"piutang"`
	TotalHutang  decimal.Decimal `json:"total_hutang"`
	TotalPiutang decimal.Decimal `json:"total_piutang"`
}

type DebtService interface {
	ApplyPayment(ctx context.Context, debtID, actorID uuid.UUID, amount decimal.Decimal, note string) (*model.Debt, error)
	GetDebt(ctx context.Context, debtID, actorID uuid.UUID) (*model.Debt, error)
	ListByUser(ctx context.Context, userID uuid.UUID) (*DebtSummary, error)
}

type debtService struct {
	db       *gorm.DB
	debtRepo repository.DebtRepository
	sink     *notify.Sink
}

func NewDebtService(db *gorm.DB, debtRepo repository.DebtRepository, sink *notify.Sink) DebtService {
	return &debtService{db: db, debtRepo: debtRepo, sink: sink}
}

func (s *debtService) ApplyPayment(ctx context.Context, debtID, actorID uuid.UUID, amount decimal.Decimal, note string) (*model.Debt, error) {
	if !amount.IsPositive() {
		return nil, apperr.Validation("payment amount must be greater than 0")
	}

	debt, err := s.debtRepo.FindByID(ctx, debtID)
	if err != nil {
		return nil, err
	}
	if debt.SellerID != actorID {
		return nil, ErrNotDebtOwner
	}
	if amount.GreaterThan(debt.Amount) {
		return nil, apperr.Overpayment("payment %s exceeds the outstanding balance %s", amount, debt.Amount)
	}

	var notification *model.Notification
	err = repository.RunInTx(ctx, s.db, func(tx *gorm.DB) error {
		applied, err := s.debtRepo.ApplyPayment(tx, debt.ID, amount)
		if err != nil {
			return err
		}
		if !applied {
			// another payment landed first and the balance no longer covers this one
			return apperr.Overpayment("payment %s exceeds the outstanding balance", amount)
		}

		payment := &model.DebtPayment{
			DebtID:   debt.ID,
			SellerID: debt.SellerID,
			BuyerID:  debt.BuyerID,
			Amount:   amount,
			Note:     strings.TrimSpace(note),
		}
		if err := s.debtRepo.AppendPayment(tx, payment); err != nil {
			return err
		}

		notification, err = s.sink.Record(tx, debt.SellerID, debt.BuyerID, model.NotifDebtUpdated)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.sink.Push(notification)
	return s.debtRepo.FindByID(ctx, debt.ID)
}

func (s *debtService) GetDebt(ctx context.Context, debtID, actorID uuid.UUID) (*model.Debt, error) {
	debt, err := s.debtRepo.FindByID(ctx, debtID)
	if err != nil {
		return nil, err
	}
	if debt.SellerID != actorID && debt.BuyerID != actorID {
		return nil, apperr.Permission("only the buyer or seller can view this debt")
	}
	return debt, nil
}

func (s *debtService) ListByUser(ctx context.Context, userID uuid.UUID) (*DebtSummary, error) {
	owed, err := s.debtRepo.ListByBuyer(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	owing, err := s.debtRepo.ListBySeller(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	totalOwed, err := s.debtRepo.TotalOwedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	totalOwing, err := s.debtRepo.TotalOwedTo(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &DebtSummary{
		Hutang:       owed,
		Piutang:      owing,
		TotalHutang:  totalOwed,
		TotalPiutang: totalOwing,
	}, nil
}
