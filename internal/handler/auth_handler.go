package handler

import (
	"crypto/subtle"

	"go-distribution-ws/internal/apperr"
	"go-distribution-ws/internal/applog"
	"go-distribution-ws/internal/service"
	"go-distribution-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
	rootToken   string
}

// NewAuthHandler wires login and onboarding. An empty rootToken disables
// root registration over HTTP.
func NewAuthHandler(authService service.AuthService, userService service.UserService, rootToken string) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService, rootToken: rootToken}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email and password are required")
	}

	response, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if apperr.Is(err, apperr.KindUnauthenticated) {
			applog.Warn(c, "auth.login_failed", nil, map[string]any{"email": req.Email})
		}
		return respondError(c, "auth.login", err)
	}

	applog.Info(c, "auth.login", map[string]any{"user_id": response.User.ID.String()})
	return c.JSON(response)
}

// Register onboards an account one rank below the caller.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	creatorID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "auth.register", err)
	}

	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON")
	}

	user, err := h.userService.CreateUser(c.UserContext(), creatorID, &req)
	if err != nil {
		return respondError(c, "auth.register", err)
	}

	applog.Info(c, "auth.register", map[string]any{"new_user_id": user.ID.String(), "role": string(user.Role)})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"data":    user.ToResponse(),
	})
}

// RegisterRoot creates a creator-less pabrik account. The caller must present
// the deployment's root token in X-Root-Token.
// POST /api/v1/auth/register-root
func (h *AuthHandler) RegisterRoot(c *fiber.Ctx) error {
	given := c.Get("X-Root-Token")
	if h.rootToken == "" || subtle.ConstantTimeCompare([]byte(given), []byte(h.rootToken)) != 1 {
		applog.Warn(c, "auth.register_root_denied", nil, nil)
		return respondError(c, "auth.register_root", apperr.Permission("root registration is not allowed"))
	}

	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON")
	}

	user, err := h.userService.CreateRoot(c.UserContext(), &req)
	if err != nil {
		return respondError(c, "auth.register_root", err)
	}

	applog.Info(c, "auth.register_root", map[string]any{"new_user_id": user.ID.String()})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Root account created successfully",
		"data":    user.ToResponse(),
	})
}

// Me returns the authenticated user's profile
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, "auth.me", err)
	}
	user, err := h.authService.Me(c.UserContext(), userID)
	if err != nil {
		return respondError(c, "auth.me", err)
	}
	return c.JSON(user)
}

// ValidateToken checks a token without touching storage
// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid JSON")
	}

	claims, err := jwt.ValidateToken(req.Token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"valid": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"valid":   true,
		"user_id": claims.UserID,
		"role":    claims.Role,
	})
}
