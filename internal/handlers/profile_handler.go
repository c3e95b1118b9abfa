package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/qrac-app/draw-chat/internal/httpx"
	"github.com/qrac-app/draw-chat/internal/service"
	"github.com/qrac-app/draw-chat/internal/validation"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// CheckUsername checks if a username is available
func (h *ProfileHandler) CheckUsername(c *fiber.Ctx) error {
	username := c.Query("username")
	if username == "" {
		return httpx.BadRequest(c, "missing_username", "Username is required")
	}
	username = validation.NormalizeUsername(username)
	if !validation.ValidateUsername(username) {
		return httpx.BadRequest(c, "invalid_username", "Invalid username")
	}

	available, err := h.profileService.IsUsernameAvailable(username)
	if err != nil {
		return httpx.Internal(c, "check_username_failed")
	}

	return c.JSON(fiber.Map{
		"available": available,
	})
}

// GetCurrentProfile gets the authenticated profile
func (h *ProfileHandler) GetCurrentProfile(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	profile, err := h.profileService.GetProfileByID(profileID)
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	// ETag allows clients to re-check frequently without re-downloading.
	etag := fmt.Sprintf("W/\"p-%d-%d\"", profile.ID, profile.UpdatedAt.UTC().UnixNano())
	c.Set("ETag", etag)
	c.Set("Cache-Control", "private, max-age=0, must-revalidate")

	if inm := strings.TrimSpace(c.Get("If-None-Match")); inm != "" {
		// Support quoted, weak, and multi-value headers.
		inmNorm := strings.Trim(strings.TrimPrefix(inm, "W/"), "\"")
		etagNorm := strings.Trim(strings.TrimPrefix(etag, "W/"), "\"")
		if strings.Contains(inmNorm, etagNorm) {
			return c.SendStatus(fiber.StatusNotModified)
		}
	}

	return c.JSON(fiber.Map{
		"profile": profile.ToResponse(),
	})
}

// UpdateProfile updates username or display name
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.Username != "" {
		u := validation.NormalizeUsername(input.Username)
		if !validation.ValidateUsername(u) {
			return httpx.BadRequest(c, "invalid_username", "Invalid username")
		}
		input.Username = u
	}
	if input.DisplayName != "" {
		input.DisplayName = validation.TrimAndLimit(input.DisplayName, 80)
	}

	profile, err := h.profileService.UpdateProfile(profileID, input)
	if err != nil {
		return httpx.BadRequest(c, "update_profile_failed", err.Error())
	}

	return c.JSON(fiber.Map{
		"profile": profile.ToResponse(),
	})
}

// SearchProfiles searches by username or display name
func (h *ProfileHandler) SearchProfiles(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return httpx.BadRequest(c, "missing_query", "Search query is required")
	}

	limit := c.QueryInt("limit", 20)

	profiles, err := h.profileService.SearchProfiles(query, limit)
	if err != nil {
		return httpx.Internal(c, "search_profiles_failed")
	}

	responses := make([]interface{}, len(profiles))
	for i, profile := range profiles {
		responses[i] = profile.ToResponse()
	}

	return c.JSON(fiber.Map{
		"profiles": responses,
	})
}

// GetProfileByUsername gets a public profile by username
func (h *ProfileHandler) GetProfileByUsername(c *fiber.Ctx) error {
	username := c.Params("username")
	if username == "" {
		return httpx.BadRequest(c, "missing_username", "Username is required")
	}

	profile, err := h.profileService.GetProfileByUsername(username)
	if err != nil {
		return httpx.NotFound(c, "profile_not_found", "Profile not found")
	}

	return c.JSON(fiber.Map{
		"profile": profile.ToResponse(),
	})
}
