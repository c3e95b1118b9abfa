package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/qrac-app/draw-chat/internal/httpx"
	"github.com/qrac-app/draw-chat/internal/service"
)

type MigrationHandler struct {
	migrationService *service.MigrationService
}

func NewMigrationHandler(migrationService *service.MigrationService) *MigrationHandler {
	return &MigrationHandler{migrationService: migrationService}
}

// MigrateLegacyMessages imports the flat single-room message table into a
// group chat. Re-running after a completed import is a no-op.
func (h *MigrationHandler) MigrateLegacyMessages(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	result, err := h.migrationService.MigrateLegacyMessages(profileID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
		}
		return httpx.Internal(c, "migration_failed")
	}

	return c.JSON(result)
}
