package handler

import (
	"go-distribution-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetUsers lists the accounts visible to the caller
// GET /api/v1/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	viewerID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "users.list", err)
	}
	users, err := h.userService.ListVisible(c.UserContext(), viewerID)
	if err != nil {
		return respondError(c, "users.list", err)
	}
	return c.JSON(users)
}

// GetSummary counts visible accounts per lower role
// GET /api/v1/users/summary
func (h *UserHandler) GetSummary(c *fiber.Ctx) error {
	viewerID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "users.summary", err)
	}
	summary, err := h.userService.Summary(c.UserContext(), viewerID)
	if err != nil {
		return respondError(c, "users.summary", err)
	}
	return c.JSON(summary)
}

// UpdateProfile edits the caller's username, address or phone
// PUT /api/v1/users/me
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "users.update_profile", err)
	}

	var req service.ProfileUpdate
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON")
	}

	user, err := h.userService.UpdateProfile(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, "users.update_profile", err)
	}
	return c.JSON(fiber.Map{"message": "Profile updated", "data": user})
}

// GetUser returns a directly created account with its recent activity
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	viewerID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "users.detail", err)
	}
	targetID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, "users.detail", err)
	}

	detail, err := h.userService.Detail(c.UserContext(), viewerID, targetID)
	if err != nil {
		return respondError(c, "users.detail", err)
	}
	return c.JSON(detail)
}
