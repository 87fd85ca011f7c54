package handler

import (
	"fmt"

	"go-distribution-ws/internal/apperr"
	"go-distribution-ws/internal/repository"
	"go-distribution-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

func (h *InventoryHandler) CreateProduct(c *fiber.Ctx) error {
	ownerID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "products.create", err)
	}

	var req service.ProductInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON")
	}

	product, err := h.service.CreateProduct(c.UserContext(), ownerID, &req)
	if err != nil {
		return respondError(c, "products.create", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

// UpdateProduct applies only the fields present in the body.
func (h *InventoryHandler) UpdateProduct(c *fiber.Ctx) error {
	ownerID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "products.update", err)
	}
	productID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, "products.update", err)
	}

	var req service.ProductUpdate
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON")
	}

	updated, err := h.service.UpdateProduct(c.UserContext(), ownerID, productID, &req)
	if err != nil {
		return respondError(c, "products.update", err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

func (h *InventoryHandler) DeleteProduct(c *fiber.Ctx) error {
	ownerID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "products.delete", err)
	}
	productID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, "products.delete", err)
	}

	if err := h.service.DeleteProduct(c.UserContext(), ownerID, productID); err != nil {
		return respondError(c, "products.delete", err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

// GetProducts lists the caller's stock.
// Query params: category, name (substring), limit
func (h *InventoryHandler) GetProducts(c *fiber.Ctx) error {
	ownerID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "products.list", err)
	}

	filter := repository.ProductFilter{
		Category: c.Query("category"),
		Name:     c.Query("name"),
		Limit:    c.QueryInt("limit", 0),
	}
	products, err := h.service.GetProducts(c.UserContext(), ownerID, filter)
	if err != nil {
		return respondError(c, "products.list", err)
	}
	return c.JSON(products)
}

func (h *InventoryHandler) GetProduct(c *fiber.Ctx) error {
	ownerID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "products.get", err)
	}
	productID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, "products.get", err)
	}

	product, err := h.service.GetProduct(c.UserContext(), ownerID, productID)
	if err != nil {
		return respondError(c, "products.get", err)
	}
	return c.JSON(product)
}

type importRowResult struct {
	Row     int         `json:"row"`
	Product interface{} `json:"product,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    apperr.Kind `json:"kind,omitempty"`
}

// ImportProducts accepts already-parsed spreadsheet rows.
// POST /api/v1/products/import
func (h *InventoryHandler) ImportProducts(c *fiber.Ctx) error {
	ownerID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "products.import", err)
	}

	var rows []service.ImportRow
	if err := c.BodyParser(&rows); err != nil {
		return badRequest(c, "invalid JSON")
	}
	if len(rows) == 0 {
		return badRequest(c, "no rows to import")
	}

	results := h.service.ImportProducts(c.UserContext(), ownerID, rows)
	out := make([]importRowResult, 0, len(results))
	failed := 0
	for _, r := range results {
		item := importRowResult{Row: r.Row}
		if r.Err != nil {
			failed++
			item.Error = fmt.Sprintf("row %d: %s", r.Row, apperr.Message(r.Err))
			item.Kind = apperr.KindOf(r.Err)
		} else {
			item.Product = r.Product
		}
		out = append(out, item)
	}

	return c.Status(batchStatus(failed)).JSON(fiber.Map{
		"imported": len(results) - failed,
		"failed":   failed,
		"results":  out,
	})
}

// batchStatus is 201 when every item succeeded and 207 otherwise.
func batchStatus(failed int) int {
	if failed == 0 {
		return fiber.StatusCreated
	}
	return fiber.StatusMultiStatus
}
