package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qrac-app/draw-chat/internal/httpx"
	"github.com/qrac-app/draw-chat/internal/service"
	"github.com/qrac-app/draw-chat/internal/validation"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input service.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	input.Email = validation.NormalizeEmail(input.Email)
	input.Username = validation.NormalizeUsername(input.Username)
	if !validation.ValidateEmail(input.Email) {
		return httpx.BadRequest(c, "invalid_email", "Invalid email")
	}
	if !validation.ValidateUsername(input.Username) {
		return httpx.BadRequest(c, "invalid_username", "Invalid username")
	}
	if !validation.ValidatePassword(input.Password) {
		return httpx.BadRequest(c, "weak_password", "Password is too short")
	}

	result, err := h.authService.Register(input)
	if err != nil {
		return httpx.BadRequest(c, "register_failed", err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input service.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	input.Email = validation.NormalizeEmail(input.Email)
	if input.Email == "" || input.Password == "" {
		return httpx.BadRequest(c, "missing_credentials", "Email and password are required")
	}

	result, err := h.authService.Login(input)
	if err != nil {
		return httpx.Unauthorized(c, "invalid_credentials", "Invalid email or password")
	}

	return c.JSON(result)
}
