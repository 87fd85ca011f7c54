package handler

import (
	"go-distribution-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type NotificationHandler struct {
	service service.NotificationService
}

func NewNotificationHandler(s service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: s}
}

func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "notifications.list", err)
	}
	list, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return respondError(c, "notifications.list", err)
	}
	return c.JSON(list)
}

// MarkRead answers {"updated": 1} on the first call and {"updated": 0} after.
// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "notifications.read", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, "notifications.read", err)
	}

	count, err := h.service.MarkRead(c.UserContext(), id, userID)
	if err != nil {
		return respondError(c, "notifications.read", err)
	}
	return c.JSON(fiber.Map{"updated": count})
}
