package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-distribution-ws/internal/middleware"
	"go-distribution-ws/internal/model"
	"go-distribution-ws/internal/notify"
	"go-distribution-ws/internal/repository"
	"go-distribution-ws/internal/service"
	"go-distribution-ws/internal/testutil"
	"go-distribution-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testRootToken = "root-secret"

type testApp struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.NewDB(t)

	products := repository.NewProductRepo(db)
	users := repository.NewUserRepo(db)
	transactions := repository.NewTransactionRepo(db)
	debts := repository.NewDebtRepo(db)
	notifications := repository.NewNotificationRepo(db)
	sink := notify.NewSink(notifications, &testutil.Publisher{})

	userSvc := service.NewUserService(users, transactions, debts, products)
	h := Handlers{
		Auth:      NewAuthHandler(service.NewAuthService(users), userSvc, testRootToken),
		User:      NewUserHandler(userSvc),
		Inventory: NewInventoryHandler(service.NewInventoryService(db, products, users, sink)),
		Transaction: NewTransactionHandler(
			service.NewSellService(db, products, users, transactions, debts, service.NewCounterpartyResolver(users), sink),
			service.NewTransactionService(db, transactions, products, sink),
		),
		Debt:         NewDebtHandler(service.NewDebtService(db, debts, sink)),
		Notification: NewNotificationHandler(service.NewNotificationService(notifications)),
		Dashboard:    NewDashboardHandler(service.NewDashboardService(users, products, transactions)),
	}

	noLimit := func(c *fiber.Ctx) error { return c.Next() }
	app := fiber.New()
	Mount(app, h, Guards{Auth: middleware.RequireAuth(users), LoginLimit: noLimit, SellLimit: noLimit})
	return &testApp{app: app, db: db}
}

func tokenFor(t *testing.T, u *model.User) string {
	t.Helper()
	token, err := jwt.GenerateToken(u.ID, u.Email, u.Username, string(u.Role))
	require.NoError(t, err)
	return token
}

// do sends body as JSON and decodes the response into out when out is non-nil.
func (a *testApp) do(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a := newTestApp(t)
	var body errorResponse
	status := a.do(t, http.MethodGet, "/api/v1/products", "", nil, &body)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHENTICATED", body.Kind)
}

func TestLoginAndMe(t *testing.T) {
	a := newTestApp(t)
	root := testutil.User(t, a.db, model.RolePabrik, nil)

	status := a.do(t, http.MethodPost, "/api/v1/auth/register", tokenFor(t, root), map[string]string{
		"username": "dewi",
		"email":    "dewi@example.com",
		"password": "rahasia123",
		"role":     "distributor",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var login service.LoginResponse
	status = a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "dewi@example.com",
		"password": "rahasia123",
	}, &login)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, login.Token)

	var me model.UserResponse
	status = a.do(t, http.MethodGet, "/api/v1/auth/me", login.Token, nil, &me)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "dewi", me.Username)
	assert.Equal(t, model.RoleDistributor, me.Role)

	var bad errorResponse
	status = a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "dewi@example.com",
		"password": "wrong",
	}, &bad)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHENTICATED", bad.Kind)
}

func TestRegisterRejectsInvalidRoleTransition(t *testing.T) {
	a := newTestApp(t)
	dist := testutil.User(t, a.db, model.RoleDistributor, nil)
	pembeli := testutil.User(t, a.db, model.RolePembeli, nil)

	var body errorResponse
	status := a.do(t, http.MethodPost, "/api/v1/auth/register", tokenFor(t, dist), map[string]string{
		"username": "x",
		"email":    "x@example.com",
		"password": "rahasia123",
		"role":     "reseller",
	}, &body)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "INVALID_ROLE_TRANSITION", body.Kind)

	status = a.do(t, http.MethodPost, "/api/v1/auth/register", tokenFor(t, pembeli), map[string]string{
		"username": "y",
		"email":    "y@example.com",
		"password": "rahasia123",
		"role":     "pembeli",
	}, &body)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRegisterRootNeedsToken(t *testing.T) {
	a := newTestApp(t)
	payload := map[string]string{
		"username": "pabrik",
		"email":    "pabrik@example.com",
		"password": "rahasia123",
	}

	status := a.do(t, http.MethodPost, "/api/v1/auth/register-root", "", payload, nil)
	assert.Equal(t, http.StatusForbidden, status)

	raw, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register-root", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Root-Token", testRootToken)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

type sellResponse struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Results   []struct {
		Index       int                `json:"index"`
		Transaction *model.Transaction `json:"transaction"`
		Debt        *model.Debt        `json:"debt"`
		Error       string             `json:"error"`
		Kind        string             `json:"kind"`
	} `json:"results"`
}

func TestSellCompleteAndPay(t *testing.T) {
	a := newTestApp(t)
	agen := testutil.User(t, a.db, model.RoleAgen, nil)
	reseller := testutil.User(t, a.db, model.RoleReseller, agen)
	p := testutil.Product(t, a.db, agen, "Kopi", 1000, 600, 10)
	agenToken, resellerToken := tokenFor(t, agen), tokenFor(t, reseller)

	var sold sellResponse
	status := a.do(t, http.MethodPost, "/api/v1/transactions/sell", agenToken, map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": p.ID, "buyer_id": reseller.ID, "quantity": 4, "pay_by_debt": true},
			{"product_id": p.ID, "buyer_id": reseller.ID, "quantity": 40},
		},
	}, &sold)
	require.Equal(t, http.StatusMultiStatus, status)
	assert.Equal(t, 1, sold.Succeeded)
	require.Len(t, sold.Results, 2)
	require.NotNil(t, sold.Results[0].Transaction)
	require.NotNil(t, sold.Results[0].Debt)
	assert.Equal(t, "INSUFFICIENT_STOCK", sold.Results[1].Kind)

	trxID := sold.Results[0].Transaction.ID.String()
	status = a.do(t, http.MethodPut, "/api/v1/transactions/"+trxID+"/status", agenToken, map[string]string{"status": "selesai"}, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status = a.do(t, http.MethodPut, "/api/v1/transactions/"+trxID+"/status", resellerToken, map[string]string{"status": "selesai"}, nil)
	assert.Equal(t, http.StatusOK, status)

	var owned []model.Product
	status = a.do(t, http.MethodGet, "/api/v1/products?name=kopi", resellerToken, nil, &owned)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, owned, 1)
	assert.Equal(t, 4, owned[0].Quantity)

	debtPath := "/api/v1/debts/" + sold.Results[0].Debt.ID.String() + "/payments"
	var overpaid errorResponse
	status = a.do(t, http.MethodPut, debtPath, agenToken, map[string]interface{}{"amount": 5000}, &overpaid)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "OVERPAYMENT_ERROR", overpaid.Kind)

	status = a.do(t, http.MethodPut, debtPath, resellerToken, map[string]interface{}{"amount": 1000}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var paid struct {
		Data model.Debt `json:"data"`
	}
	status = a.do(t, http.MethodPut, debtPath, agenToken, map[string]interface{}{"amount": "4000", "note": "cash"}, &paid)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, paid.Data.IsPaid)
	assert.True(t, paid.Data.Amount.IsZero())
}

func TestSingleItemSellReturnsCreated(t *testing.T) {
	a := newTestApp(t)
	agen := testutil.User(t, a.db, model.RoleAgen, nil)
	reseller := testutil.User(t, a.db, model.RoleReseller, agen)
	p := testutil.Product(t, a.db, agen, "Teh", 500, 300, 10)

	var sold sellResponse
	status := a.do(t, http.MethodPost, "/api/v1/transactions/sell", tokenFor(t, agen), map[string]interface{}{
		"product_id": p.ID, "buyer_id": reseller.ID, "quantity": 1,
	}, &sold)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 1, sold.Succeeded)
}

func TestNotificationsReadFlow(t *testing.T) {
	a := newTestApp(t)
	agen := testutil.User(t, a.db, model.RoleAgen, nil)
	reseller := testutil.User(t, a.db, model.RoleReseller, agen)
	p := testutil.Product(t, a.db, agen, "Gula", 1000, 600, 10)
	resellerToken := tokenFor(t, reseller)

	status := a.do(t, http.MethodPost, "/api/v1/transactions/sell", tokenFor(t, agen), map[string]interface{}{
		"product_id": p.ID, "buyer_id": reseller.ID, "quantity": 1,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var list []model.Notification
	status = a.do(t, http.MethodGet, "/api/v1/notifications", resellerToken, nil, &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 1)
	assert.Equal(t, model.NotifTransactionCreated, list[0].Type)

	path := "/api/v1/notifications/" + list[0].ID.String() + "/read"
	var first, second struct {
		Updated int64 `json:"updated"`
	}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, path, resellerToken, nil, &first))
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, path, resellerToken, nil, &second))
	assert.EqualValues(t, 1, first.Updated)
	assert.Zero(t, second.Updated)

	var bad errorResponse
	status = a.do(t, http.MethodPut, "/api/v1/notifications/not-a-uuid/read", resellerToken, nil, &bad)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", bad.Kind)
}

func TestProductRoutes(t *testing.T) {
	a := newTestApp(t)
	agen := testutil.User(t, a.db, model.RoleAgen, nil)
	token := tokenFor(t, agen)

	product := map[string]interface{}{
		"name": "Beras", "category": "sembako", "product_price": 12000,
		"purchase_price": 10000, "het": 13000, "quantity": 5, "expired_date": "31-12-2027",
	}
	var created struct {
		Data model.Product `json:"data"`
	}
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/products", token, product, &created))

	var edited struct {
		Data model.Product `json:"data"`
	}
	status := a.do(t, http.MethodPut, "/api/v1/products/"+created.Data.ID.String(), token,
		map[string]interface{}{"category": "pangan"}, &edited)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pangan", edited.Data.Category)
	assert.Equal(t, "Beras", edited.Data.Name)
	assert.Equal(t, 5, edited.Data.Quantity)
	assert.Equal(t, "12000", edited.Data.ProductPrice.String())

	var dup errorResponse
	assert.Equal(t, http.StatusConflict, a.do(t, http.MethodPost, "/api/v1/products", token, product, &dup))
	assert.Equal(t, "CONFLICT", dup.Kind)

	var imported struct {
		Imported int `json:"imported"`
		Failed   int `json:"failed"`
	}
	status = a.do(t, http.MethodPost, "/api/v1/products/import", token, []map[string]string{
		{"name": "Jagung", "category": "sembako", "productPrice": "8000", "quantity": "3", "expiredDate": "01-01-2028"},
		{"name": "Kedelai", "category": "sembako", "productPrice": "9000", "quantity": "3"},
	}, &imported)
	assert.Equal(t, http.StatusMultiStatus, status)
	assert.Equal(t, 1, imported.Imported)
	assert.Equal(t, 1, imported.Failed)

	var stats map[string]interface{}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/dashboard/stats", token, nil, &stats))
	assert.EqualValues(t, 2, stats["total_products"])
}

func TestUpdateOwnProfile(t *testing.T) {
	a := newTestApp(t)
	agen := testutil.User(t, a.db, model.RoleAgen, nil)
	token := tokenFor(t, agen)

	var updated struct {
		Data model.UserResponse `json:"data"`
	}
	status := a.do(t, http.MethodPut, "/api/v1/users/me", token, map[string]string{"address": "Jl. Merdeka 1"}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Jl. Merdeka 1", updated.Data.Address)
	assert.Equal(t, agen.Username, updated.Data.Username)
	assert.Equal(t, agen.Phone, updated.Data.Phone)

	var me model.UserResponse
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/auth/me", token, nil, &me))
	assert.Equal(t, "Jl. Merdeka 1", me.Address)

	var bad errorResponse
	status = a.do(t, http.MethodPut, "/api/v1/users/me", token, map[string]string{"phone": "0812345678901234567890"}, &bad)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", bad.Kind)
}
