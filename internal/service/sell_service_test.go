package service

import (
	"context"
	"sync"
	"testing"

	"go-distribution-ws/internal/apperr"
	"go-distribution-ws/internal/model"
	"go-distribution-ws/internal/repository"
	"go-distribution-ws/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSellToRegisteredBuyerWithDebt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dist := testutil.User(t, f.db, model.RoleDistributor, nil)
	agen := testutil.User(t, f.db, model.RoleAgen, dist)
	reseller := testutil.User(t, f.db, model.RoleReseller, agen)
	p := testutil.Product(t, f.db, agen, "Kopi Sachet", 1000, 600, 25)

	results := f.sell.Sell(ctx, agen.ID, []SellItem{{
		ProductID: p.ID,
		BuyerID:   &reseller.ID,
		Quantity:  10,
		PayByDebt: true,
	}})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	trx := results[0].Transaction
	assert.Equal(t, 10, trx.Quantity)
	assert.True(t, decimal.NewFromInt(10000).Equal(trx.TotalPrice))
	assert.True(t, decimal.NewFromInt(4000).Equal(trx.Profit))
	assert.Equal(t, model.StatusShipping, trx.Status)

	require.NotNil(t, results[0].Debt)
	assert.True(t, decimal.NewFromInt(10000).Equal(results[0].Debt.Amount))
	assert.False(t, results[0].Debt.IsPaid)
	assert.Equal(t, trx.ID, *results[0].Debt.TransactionID)

	got, err := f.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Quantity)

	notes := f.pub.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotifTransactionCreated, notes[0].Type)
	assert.Equal(t, agen.ID, notes[0].SenderID)
	assert.Equal(t, reseller.ID, notes[0].ReceiverID)
}

func TestSellWithoutDebtKeepsRequestedStatus(t *testing.T) {
	f := newFixture(t)
	agen := testutil.User(t, f.db, model.RoleAgen, nil)
	reseller := testutil.User(t, f.db, model.RoleReseller, agen)
	p := testutil.Product(t, f.db, agen, "Teh Celup", 500, 300, 5)

	results := f.sell.Sell(context.Background(), agen.ID, []SellItem{{
		ProductID: p.ID,
		BuyerID:   &reseller.ID,
		Quantity:  2,
		Status:    string(model.StatusCancelled),
	}})
	require.NoError(t, results[0].Err)
	assert.Nil(t, results[0].Debt)
	assert.Equal(t, model.StatusCancelled, results[0].Transaction.Status)

	var debts int64
	f.db.Model(&model.Debt{}).Count(&debts)
	assert.Zero(t, debts)
}

func TestResellerSellCreatesWalkInBuyer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agen := testutil.User(t, f.db, model.RoleAgen, nil)
	reseller := testutil.User(t, f.db, model.RoleReseller, agen)
	p := testutil.Product(t, f.db, reseller, "Sabun", 3000, 2000, 10)

	item := SellItem{
		ProductID: p.ID,
		Quantity:  1,
		Status:    string(model.StatusShipping),
		Name:      "Budi",
		Phone:     "0811",
		Address:   "Jl. A",
	}
	results := f.sell.Sell(ctx, reseller.ID, []SellItem{item, item})
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)

	first, second := results[0].Transaction, results[1].Transaction
	assert.Equal(t, model.StatusCompleted, first.Status)
	assert.Equal(t, first.BuyerID, second.BuyerID, "same phone resolves to the same buyer")

	buyer, err := f.users.FindByID(ctx, first.BuyerID)
	require.NoError(t, err)
	assert.Equal(t, model.RolePembeli, buyer.Role)
	assert.Equal(t, "Budi", buyer.Username)
	assert.Equal(t, "budi.0811@example.com", buyer.Email)
	require.NotNil(t, buyer.CreatedByID)
	assert.Equal(t, reseller.ID, *buyer.CreatedByID)

	var pembeli int64
	f.db.Model(&model.User{}).Where("role = ?", model.RolePembeli).Count(&pembeli)
	assert.EqualValues(t, 1, pembeli)
}

func TestResellerSellRequiresWalkInDetails(t *testing.T) {
	f := newFixture(t)
	agen := testutil.User(t, f.db, model.RoleAgen, nil)
	reseller := testutil.User(t, f.db, model.RoleReseller, agen)
	p := testutil.Product(t, f.db, reseller, "Sabun", 3000, 2000, 10)

	results := f.sell.Sell(context.Background(), reseller.ID, []SellItem{{
		ProductID: p.ID,
		Quantity:  1,
		Name:      "Budi",
	}})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(results[0].Err))
	assert.Zero(t, f.pub.Count())
}

func TestSellFailures(t *testing.T) {
	f := newFixture(t)
	agen := testutil.User(t, f.db, model.RoleAgen, nil)
	other := testutil.User(t, f.db, model.RoleAgen, nil)
	reseller := testutil.User(t, f.db, model.RoleReseller, agen)
	p := testutil.Product(t, f.db, agen, "Beras 5kg", 60000, 55000, 3)
	foreign := testutil.Product(t, f.db, other, "Beras 5kg", 60000, 55000, 3)

	missing := uuid.New()
	cases := []struct {
		name string
		item SellItem
		kind apperr.Kind
	}{
		{"insufficient stock", SellItem{ProductID: p.ID, BuyerID: &reseller.ID, Quantity: 4}, apperr.KindInsufficientStock},
		{"zero quantity", SellItem{ProductID: p.ID, BuyerID: &reseller.ID, Quantity: 0}, apperr.KindValidation},
		{"unknown product", SellItem{ProductID: missing, BuyerID: &reseller.ID, Quantity: 1}, apperr.KindNotFound},
		{"missing buyer", SellItem{ProductID: p.ID, Quantity: 1}, apperr.KindValidation},
		{"unknown buyer", SellItem{ProductID: p.ID, BuyerID: &missing, Quantity: 1}, apperr.KindNotFound},
		{"selling to self", SellItem{ProductID: p.ID, BuyerID: &agen.ID, Quantity: 1}, apperr.KindValidation},
		{"product of another seller", SellItem{ProductID: foreign.ID, BuyerID: &reseller.ID, Quantity: 1}, apperr.KindPermission},
		{"bad status", SellItem{ProductID: p.ID, BuyerID: &reseller.ID, Quantity: 1, Status: "lost"}, apperr.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results := f.sell.Sell(context.Background(), agen.ID, []SellItem{tc.item})
			require.Len(t, results, 1)
			assert.Nil(t, results[0].Transaction)
			assert.Equal(t, tc.kind, apperr.KindOf(results[0].Err))
		})
	}

	got, err := f.products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
	assert.Zero(t, f.pub.Count())
}

func TestSellBatchContinuesAfterFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agen := testutil.User(t, f.db, model.RoleAgen, nil)
	reseller := testutil.User(t, f.db, model.RoleReseller, agen)
	a := testutil.Product(t, f.db, agen, "Mie Instan", 3000, 2500, 10)
	b := testutil.Product(t, f.db, agen, "Susu Kental", 12000, 10000, 1)

	results := f.sell.Sell(ctx, agen.ID, []SellItem{
		{ProductID: a.ID, BuyerID: &reseller.ID, Quantity: 2},
		{ProductID: b.ID, BuyerID: &reseller.ID, Quantity: 5},
		{ProductID: a.ID, BuyerID: &reseller.ID, Quantity: 3},
	})
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
	assert.NoError(t, results[0].Err)
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(results[1].Err))
	assert.NoError(t, results[2].Err)

	got, err := f.products.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)

	var count int64
	f.db.Model(&model.Transaction{}).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestSellBelowCostRecordsNegativeProfit(t *testing.T) {
	f := newFixture(t)
	agen := testutil.User(t, f.db, model.RoleAgen, nil)
	reseller := testutil.User(t, f.db, model.RoleReseller, agen)
	p := testutil.Product(t, f.db, agen, "Clearance", 800, 1000, 5)

	results := f.sell.Sell(context.Background(), agen.ID, []SellItem{{ProductID: p.ID, BuyerID: &reseller.ID, Quantity: 5}})
	require.NoError(t, results[0].Err)
	assert.True(t, decimal.NewFromInt(-1000).Equal(results[0].Transaction.Profit))
}

func TestSellPushFailureDoesNotFailSale(t *testing.T) {
	f := newFixture(t)
	f.pub.Err = apperr.Conflict("buffer full")
	agen := testutil.User(t, f.db, model.RoleAgen, nil)
	reseller := testutil.User(t, f.db, model.RoleReseller, agen)
	p := testutil.Product(t, f.db, agen, "Garam", 2000, 1500, 5)

	results := f.sell.Sell(context.Background(), agen.ID, []SellItem{{ProductID: p.ID, BuyerID: &reseller.ID, Quantity: 1}})
	require.NoError(t, results[0].Err)

	var stored int64
	f.db.Model(&model.Notification{}).Where("receiver_id = ?", reseller.ID).Count(&stored)
	assert.EqualValues(t, 1, stored)
}

func TestConcurrentSellsNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agen := testutil.User(t, f.db, model.RoleAgen, nil)
	reseller := testutil.User(t, f.db, model.RoleReseller, agen)
	p := testutil.Product(t, f.db, agen, "Air Mineral", 4000, 3000, 5)

	const workers = 12
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sold     int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := f.sell.Sell(ctx, agen.ID, []SellItem{{ProductID: p.ID, BuyerID: &reseller.ID, Quantity: 1}})
			mu.Lock()
			defer mu.Unlock()
			if res[0].Err == nil {
				sold++
			} else if apperr.Is(res[0].Err, apperr.KindInsufficientStock) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, sold)
	assert.Equal(t, workers-5, rejected)

	got, err := f.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
}

func TestWalkInPhoneTooLong(t *testing.T) {
	f := newFixture(t)
	agen := testutil.User(t, f.db, model.RoleAgen, nil)
	reseller := testutil.User(t, f.db, model.RoleReseller, agen)
	p := testutil.Product(t, f.db, reseller, "Sabun", 3000, 2000, 10)

	results := f.sell.Sell(context.Background(), reseller.ID, []SellItem{{
		ProductID: p.ID,
		Quantity:  1,
		Name:      "Budi",
		Phone:     "0811-2222-3333-4444-5555",
		Address:   "Jl. A",
	}})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(results[0].Err))
}

// lateUsers lets another seller onboard the same phone between the lookup and
// the insert.
type lateUsers struct {
	repository.UserRepository
	db     *gorm.DB
	winner *model.User
}

func (u *lateUsers) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	if u.winner == nil {
		u.winner = &model.User{
			Username: "Budi Santoso",
			Email:    "budisantoso.0811@example.com",
			Password: "x",
			Role:     model.RolePembeli,
			Tier:     model.DefaultTier,
			Phone:    phone,
		}
		if err := u.db.Create(u.winner).Error; err != nil {
			return nil, err
		}
		return nil, apperr.NotFound("no user with phone %s", phone)
	}
	return u.UserRepository.FindByPhone(ctx, phone)
}

func TestResolveUsesConcurrentlyOnboardedBuyer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reseller := testutil.User(t, f.db, model.RoleReseller, nil)
	users := &lateUsers{UserRepository: f.users, db: f.db}

	buyer, err := NewCounterpartyResolver(users).Resolve(ctx, reseller, WalkIn{Name: "Budi", Phone: "0811", Address: "Jl. A"})
	require.NoError(t, err)
	require.NotNil(t, users.winner)
	assert.Equal(t, users.winner.ID, buyer.ID)

	var count int64
	require.NoError(t, f.db.Model(&model.User{}).Where("phone = ?", "0811").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
