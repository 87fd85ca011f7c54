package handler

import (
	"go-distribution-ws/internal/apperr"
	"go-distribution-ws/internal/applog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindNotFound:              fiber.StatusNotFound,
	apperr.KindValidation:            fiber.StatusBadRequest,
	apperr.KindConflict:              fiber.StatusConflict,
	apperr.KindInsufficientStock:     fiber.StatusConflict,
	apperr.KindPermission:            fiber.StatusForbidden,
	apperr.KindOverpayment:           fiber.StatusUnprocessableEntity,
	apperr.KindInvalidRoleTransition: fiber.StatusForbidden,
	apperr.KindUnauthenticated:       fiber.StatusUnauthorized,
}

func statusOf(kind apperr.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// errorBody renders err as {"error": message, "kind": kind}.
func errorBody(err error) fiber.Map {
	return fiber.Map{"error": apperr.Message(err), "kind": apperr.KindOf(err)}
}

// respondError is the single place business errors become HTTP responses.
func respondError(c *fiber.Ctx, action string, err error) error {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		applog.Error(c, action, err, nil)
	}
	return c.Status(statusOf(kind)).JSON(errorBody(err))
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg, "kind": apperr.KindValidation})
}

// currentUserID reads the id RequireAuth stored for this request.
func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := c.Locals("user_id").(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Unauthenticated("unauthorized")
	}
	return id, nil
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s", name)
	}
	return id, nil
}
