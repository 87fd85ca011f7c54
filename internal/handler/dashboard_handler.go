package handler

import (
	"go-distribution-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "dashboard.stats", err)
	}
	stats, err := h.service.GetDashboardStats(c.UserContext(), userID)
	if err != nil {
		return respondError(c, "dashboard.stats", err)
	}
	return c.JSON(stats)
}
