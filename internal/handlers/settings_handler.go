package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qrac-app/draw-chat/internal/httpx"
	"github.com/qrac-app/draw-chat/internal/service"
)

type SettingsHandler struct {
	settingsService *service.SettingsService
}

func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// GetSettings returns the caller's drawing-input settings, with defaults
// when nothing has been saved yet.
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	settings, err := h.settingsService.GetSettings(profileID)
	if err != nil {
		return httpx.Internal(c, "fetch_settings_failed")
	}

	return c.JSON(settings)
}

func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.UpdateSettingsInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	settings, err := h.settingsService.UpdateSettings(profileID, input)
	if err != nil {
		return httpx.BadRequest(c, "update_settings_failed", err.Error())
	}

	return c.JSON(settings)
}
