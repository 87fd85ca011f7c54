package handler

import (
	"go-distribution-ws/internal/applog"
	"go-distribution-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type DebtHandler struct {
	service service.DebtService
}

func NewDebtHandler(s service.DebtService) *DebtHandler {
	return &DebtHandler{service: s}
}

type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

// GetDebts returns hutang and piutang with their outstanding totals
// GET /api/v1/debts
func (h *DebtHandler) GetDebts(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "debts.list", err)
	}
	summary, err := h.service.ListByUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, "debts.list", err)
	}
	return c.JSON(summary)
}

func (h *DebtHandler) GetDebt(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "debts.get", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, "debts.get", err)
	}

	debt, err := h.service.GetDebt(c.UserContext(), id, userID)
	if err != nil {
		return respondError(c, "debts.get", err)
	}
	return c.JSON(debt)
}

// ApplyPayment records a repayment against a debt held by the caller
// PUT /api/v1/debts/:id/payments
func (h *DebtHandler) ApplyPayment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "debts.payment", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, "debts.payment", err)
	}

	var req PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON")
	}

	debt, err := h.service.ApplyPayment(c.UserContext(), id, userID, req.Amount, req.Note)
	if err != nil {
		return respondError(c, "debts.payment", err)
	}

	applog.Info(c, "debts.payment", map[string]any{
		"debt_id": debt.ID.String(),
		"amount":  req.Amount.String(),
		"balance": debt.Amount.String(),
	})
	return c.JSON(fiber.Map{"message": "Payment recorded", "data": debt})
}
