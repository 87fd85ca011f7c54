package service

import (
	"testing"

	"go-distribution-ws/internal/notify"
	"go-distribution-ws/internal/repository"
	"go-distribution-ws/internal/testutil"

	"gorm.io/gorm"
)

type fixture struct {
	db  *gorm.DB
	pub *testutil.Publisher

	products      repository.ProductRepository
	users         repository.UserRepository
	transactions  repository.TransactionRepository
	debts         repository.DebtRepository
	notifications repository.NotificationRepository

	sell      SellService
	trx       TransactionService
	debt      DebtService
	notif     NotificationService
	user      UserService
	inventory InventoryService
	auth      AuthService
	dashboard DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:            db,
		pub:           &testutil.Publisher{},
		products:      repository.NewProductRepo(db),
		users:         repository.NewUserRepo(db),
		transactions:  repository.NewTransactionRepo(db),
		debts:         repository.NewDebtRepo(db),
		notifications: repository.NewNotificationRepo(db),
	}
	sink := notify.NewSink(f.notifications, f.pub)

	f.sell = NewSellService(db, f.products, f.users, f.transactions, f.debts, NewCounterpartyResolver(f.users), sink)
	f.trx = NewTransactionService(db, f.transactions, f.products, sink)
	f.debt = NewDebtService(db, f.debts, sink)
	f.notif = NewNotificationService(f.notifications)
	f.user = NewUserService(f.users, f.transactions, f.debts, f.products)
	f.inventory = NewInventoryService(db, f.products, f.users, sink)
	f.auth = NewAuthService(f.users)
	f.dashboard = NewDashboardService(f.users, f.products, f.transactions)
	return f
}
