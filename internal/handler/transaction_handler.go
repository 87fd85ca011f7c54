package handler

import (
	"go-distribution-ws/internal/apperr"
	"go-distribution-ws/internal/applog"
	"go-distribution-ws/internal/model"
	"go-distribution-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	sellService service.SellService
	trxService  service.TransactionService
}

func NewTransactionHandler(sellService service.SellService, trxService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{sellService: sellService, trxService: trxService}
}

type sellItemResult struct {
	Index       int                `json:"index"`
	Transaction *model.Transaction `json:"transaction,omitempty"`
	Debt        *model.Debt        `json:"debt,omitempty"`
	Error       string             `json:"error,omitempty"`
	Kind        apperr.Kind        `json:"kind,omitempty"`
}

// Sell records a batch of sales. Body is either a single item or {"items": [...]}.
// POST /api/v1/transactions/sell
func (h *TransactionHandler) Sell(c *fiber.Ctx) error {
	sellerID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "transactions.sell", err)
	}

	var req struct {
		service.SellItem
		Items []service.SellItem `json:"items"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON")
	}
	items := req.Items
	if len(items) == 0 {
		items = []service.SellItem{req.SellItem}
	}

	results := h.sellService.Sell(c.UserContext(), sellerID, items)
	out := make([]sellItemResult, 0, len(results))
	failed := 0
	for _, r := range results {
		item := sellItemResult{Index: r.Index, Transaction: r.Transaction, Debt: r.Debt}
		if r.Err != nil {
			failed++
			item.Error = apperr.Message(r.Err)
			item.Kind = apperr.KindOf(r.Err)
			if item.Kind == apperr.KindInternal {
				applog.Error(c, "transactions.sell_item", r.Err, map[string]any{"index": r.Index})
			}
		}
		out = append(out, item)
	}

	applog.Info(c, "transactions.sell", map[string]any{"items": len(items), "failed": failed})
	return c.Status(batchStatus(failed)).JSON(fiber.Map{
		"succeeded": len(results) - failed,
		"failed":    failed,
		"results":   out,
	})
}

// GetTransactions returns the caller's sales and purchases
// GET /api/v1/transactions
func (h *TransactionHandler) GetTransactions(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "transactions.list", err)
	}
	list, err := h.trxService.ListByUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, "transactions.list", err)
	}
	return c.JSON(list)
}

func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "transactions.get", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, "transactions.get", err)
	}

	trx, err := h.trxService.GetTransaction(c.UserContext(), id, userID)
	if err != nil {
		return respondError(c, "transactions.get", err)
	}
	return c.JSON(trx)
}

// UpdateStatus moves a transaction to a new status; "selesai" by the buyer
// hands the goods over.
// PUT /api/v1/transactions/:id/status
func (h *TransactionHandler) UpdateStatus(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "transactions.status", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, "transactions.status", err)
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON")
	}
	if req.Status == "" {
		return badRequest(c, "status is required")
	}

	trx, err := h.trxService.UpdateStatus(c.UserContext(), id, userID, req.Status)
	if err != nil {
		return respondError(c, "transactions.status", err)
	}

	applog.Info(c, "transactions.status", map[string]any{"transaction_id": trx.ID.String(), "status": string(trx.Status)})
	return c.JSON(fiber.Map{"message": "Transaction updated", "data": trx})
}
