package service

import (
	"context"
	"testing"

	"go-distribution-ws/internal/apperr"
	"go-distribution-ws/internal/model"
	"go-distribution-ws/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openDebt sells on credit and returns the debt for the full price.
func openDebt(t *testing.T, f *fixture, seller, buyer *model.User, price int64) *model.Debt {
	t.Helper()
	p := testutil.Product(t, f.db, seller, "Credit Item", price, price/2, 10)
	res := f.sell.Sell(context.Background(), seller.ID, []SellItem{{ProductID: p.ID, BuyerID: &buyer.ID, Quantity: 1, PayByDebt: true}})
	require.NoError(t, res[0].Err)
	require.NotNil(t, res[0].Debt)
	return res[0].Debt
}

func TestFullPaymentSettlesDebt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agen := testutil.User(t, f.db, model.RoleAgen, nil)
	reseller := testutil.User(t, f.db, model.RoleReseller, agen)
	debt := openDebt(t, f, agen, reseller, 500)

	paid, err := f.debt.ApplyPayment(ctx, debt.ID, agen.ID, decimal.NewFromInt(500), " lunas ")
	require.NoError(t, err)
	assert.True(t, paid.Amount.IsZero())
	assert.True(t, paid.IsPaid)
	require.Len(t, paid.Payments, 1)
	assert.Equal(t, "lunas", paid.Payments[0].Note)

	notes := f.pub.Notifications()
	last := notes[len(notes)-1]
	assert.Equal(t, model.NotifDebtUpdated, last.Type)
	assert.Equal(t, reseller.ID, last.ReceiverID)

	_, err = f.debt.ApplyPayment(ctx, debt.ID, agen.ID, decimal.NewFromInt(1), "")
	assert.Equal(t, apperr.KindOverpayment, apperr.KindOf(err))
}

func TestPartialPaymentsKeepBalanceConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agen := testutil.User(t, f.db, model.RoleAgen, nil)
	reseller := testutil.User(t, f.db, model.RoleReseller, agen)
	debt := openDebt(t, f, agen, reseller, 1000)

	for _, amt := range []string{"250", "249.50", "0.50"} {
		_, err := f.debt.ApplyPayment(ctx, debt.ID, agen.ID, decimal.RequireFromString(amt), "")
		require.NoError(t, err)
	}

	got, err := f.debt.GetDebt(ctx, debt.ID, reseller.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(got.Amount))
	assert.False(t, got.IsPaid)

	sum := decimal.Zero
	for _, p := range got.Payments {
		sum = sum.Add(p.Amount)
	}
	assert.True(t, got.OriginalAmount.Equal(sum.Add(got.Amount)), "payments plus balance equal the original amount")

	_, err = f.debt.ApplyPayment(ctx, debt.ID, agen.ID, decimal.NewFromInt(501), "")
	assert.Equal(t, apperr.KindOverpayment, apperr.KindOf(err))
}

func TestPaymentRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	agen := testutil.User(t, f.db, model.RoleAgen, nil)
	reseller := testutil.User(t, f.db, model.RoleReseller, agen)
	debt := openDebt(t, f, agen, reseller, 300)

	_, err := f.debt.ApplyPayment(ctx, debt.ID, reseller.ID, decimal.NewFromInt(100), "")
	assert.ErrorIs(t, err, ErrNotDebtOwner)

	_, err = f.debt.ApplyPayment(ctx, debt.ID, agen.ID, decimal.Zero, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.debt.ApplyPayment(ctx, debt.ID, agen.ID, decimal.NewFromInt(-5), "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	var payments int64
	f.db.Model(&model.DebtPayment{}).Count(&payments)
	assert.Zero(t, payments)
}

func TestDebtSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dist := testutil.User(t, f.db, model.RoleDistributor, nil)
	agen := testutil.User(t, f.db, model.RoleAgen, dist)
	reseller := testutil.User(t, f.db, model.RoleReseller, agen)
	openDebt(t, f, dist, agen, 700)
	openDebt(t, f, agen, reseller, 200)

	summary, err := f.debt.ListByUser(ctx, agen.ID)
	require.NoError(t, err)
	assert.Len(t, summary.Hutang, 1)
	assert.Len(t, summary.Piutang, 1)
	assert.True(t, decimal.NewFromInt(700).Equal(summary.TotalHutang))
	assert.True(t, decimal.NewFromInt(200).Equal(summary.TotalPiutang))

	outsider := testutil.User(t, f.db, model.RoleAgen, dist)
	_, err = f.debt.GetDebt(ctx, summary.Hutang[0].ID, outsider.ID)
	assert.Equal(t, apperr.KindPermission, apperr.KindOf(err))
}
