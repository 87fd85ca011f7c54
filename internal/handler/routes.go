package handler

import (
	"go-distribution-ws/internal/middleware"
	"go-distribution-ws/internal/model"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Inventory    *InventoryHandler
	Transaction  *TransactionHandler
	Debt         *DebtHandler
	Notification *NotificationHandler
	Dashboard    *DashboardHandler
}

// Guards are the middlewares the routes depend on.
type Guards struct {
	Auth       fiber.Handler
	LoginLimit fiber.Handler
	SellLimit  fiber.Handler
}

// Mount registers the /api/v1 routes on app.
func Mount(app *fiber.App, h Handlers, g Guards) {
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", g.LoginLimit, h.Auth.Login)
	auth.Post("/register-root", g.LoginLimit, h.Auth.RegisterRoot)
	auth.Post("/validate-token", h.Auth.ValidateToken)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", g.Auth)

	// pembeli sits at the bottom and onboards nobody
	protected.Post("/auth/register", middleware.RequireRole(onboarderRoles()...), h.Auth.Register)
	protected.Get("/auth/me", h.Auth.Me)

	protected.Get("/users", h.User.GetUsers)
	protected.Get("/users/summary", h.User.GetSummary)
	protected.Put("/users/me", h.User.UpdateProfile)
	protected.Get("/users/:id", h.User.GetUser)

	protected.Get("/products", h.Inventory.GetProducts)
	protected.Post("/products", h.Inventory.CreateProduct)
	protected.Post("/products/import", h.Inventory.ImportProducts)
	protected.Get("/products/:id", h.Inventory.GetProduct)
	protected.Put("/products/:id", h.Inventory.UpdateProduct)
	protected.Delete("/products/:id", h.Inventory.DeleteProduct)

	protected.Post("/transactions/sell", g.SellLimit, h.Transaction.Sell)
	protected.Get("/transactions", h.Transaction.GetTransactions)
	protected.Get("/transactions/:id", h.Transaction.GetTransaction)
	protected.Put("/transactions/:id/status", h.Transaction.UpdateStatus)

	protected.Get("/debts", h.Debt.GetDebts)
	protected.Get("/debts/:id", h.Debt.GetDebt)
	protected.Put("/debts/:id/payments", h.Debt.ApplyPayment)

	protected.Get("/notifications", h.Notification.GetNotifications)
	protected.Put("/notifications/:id/read", h.Notification.MarkRead)

	protected.Get("/dashboard/stats", h.Dashboard.GetDashboardStats)
}

// onboarderRoles is every role that has a rank below it.
func onboarderRoles() []model.Role {
	var roles []model.Role
	for _, r := range model.AllRoles() {
		if len(model.LowerRoles(r)) > 0 {
			roles = append(roles, r)
		}
	}
	return roles
}
