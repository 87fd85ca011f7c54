package service

import (
	"context"
	"time"

	"go-distribution-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DashboardStats struct {
	repository.ProductStats
	RevenueThisMonth   decimal.Decimal `json:"revenue_this_month"`
	RevenueLastMonth   decimal.Decimal `json:"revenue_last_month"`
	SalesThisMonth     int64           `json:"sales_this_month"`
	PurchasesThisMonth int64           `json:"purchases_this_month"`
	NetworkRevenue     decimal.Decimal `json:"network_revenue"`
	NetworkSize        int             `json:"network_size"`
}

type DashboardService interface {
	GetDashboardStats(ctx context.Context, userID uuid.UUID) (*DashboardStats, error)
}

type dashboardService struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	txRepo      repository.TransactionRepository
	now         func() time.Time
}

func NewDashboardService(userRepo repository.UserRepository, productRepo repository.ProductRepository, txRepo repository.TransactionRepository) DashboardService {
	return &dashboardService{
		userRepo:    userRepo,
		productRepo: productRepo,
		txRepo:      txRepo,
		now:         time.Now,
	}
}

func (s *dashboardService) GetDashboardStats(ctx context.Context, userID uuid.UUID) (*DashboardStats, error) {
	viewer, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	nextMonth := monthStart.AddDate(0, 1, 0)
	lastMonth := monthStart.AddDate(0, -1, 0)

	productStats, err := s.productRepo.Stats(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	stats := &DashboardStats{ProductStats: *productStats}

	self := []uuid.UUID{userID}
	if stats.RevenueThisMonth, err = s.txRepo.SumRevenue(ctx, self, monthStart, nextMonth); err != nil {
		return nil, err
	}
	if stats.RevenueLastMonth, err = s.txRepo.SumRevenue(ctx, self, lastMonth, monthStart); err != nil {
		return nil, err
	}
	if stats.SalesThisMonth, err = s.txRepo.CountSales(ctx, userID, monthStart, nextMonth); err != nil {
		return nil, err
	}
	if stats.PurchasesThisMonth, err = s.txRepo.CountPurchases(ctx, userID, monthStart, nextMonth); err != nil {
		return nil, err
	}

	// Network revenue rolls up the viewer and everyone visible below it.
	visible, err := s.userRepo.FindVisibleTo(ctx, viewer)
	if err != nil {
		return nil, err
	}
	network := append(self, make([]uuid.UUID, 0, len(visible))...)
	for _, u := range visible {
		network = append(network, u.ID)
	}
	stats.NetworkSize = len(visible)
	if stats.NetworkRevenue, err = s.txRepo.SumRevenue(ctx, network, monthStart, nextMonth); err != nil {
		return nil, err
	}
	return stats, nil
}
