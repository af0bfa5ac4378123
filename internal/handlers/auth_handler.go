package handlers

import (
	"errors"

	"stockroom/internal/models"
	"stockroom/internal/services"
	"stockroom/pkg/logging"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles HTTP requests for operator authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	log         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    models.NewValidator(),
		log:         logging.OrNop(logger),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister handles new operator registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.validate.Struct(user); err != nil {
		return invalid(c, models.ValidationMessages(err))
	}

	if err := h.authService.RegisterUser(&user); err != nil {
		if errors.Is(err, models.ErrUserExists) {
			return fail(c, fiber.StatusConflict, err.Error())
		}
		h.log.Error("register_user_failed", zap.String("username", user.Username), zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Could not register user")
	}

	// For security, do not return the password hash
	user.Password = ""
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"mensagem": "User registered successfully",
		"user":     user,
	})
}

// HandleLogin authenticates an operator and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return invalid(c, models.ValidationMessages(err))
	}

	token, err := h.authService.LoginUser(req.Username, req.Password)
	if err != nil {
		h.log.Info("login_failed", zap.String("username", req.Username))
		return fail(c, fiber.StatusUnauthorized, "Authentication failed")
	}

	return c.JSON(fiber.Map{
		"mensagem": "Login successful",
		"token":    token,
	})
}
