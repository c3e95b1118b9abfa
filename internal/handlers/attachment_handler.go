package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/qrac-app/draw-chat/internal/httpx"
	"github.com/qrac-app/draw-chat/internal/service"
)

type AttachmentHandler struct {
	attachmentService *service.AttachmentService
}

func NewAttachmentHandler(attachmentService *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// IssueUploadURL hands the client a presigned PUT URL. The client uploads
// bytes directly to object storage, then registers the metadata via
// CreateAttachment.
func (h *AttachmentHandler) IssueUploadURL(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	ticket, err := h.attachmentService.IssueUploadURL(c.Context(), profileID)
	if err != nil {
		if errors.Is(err, service.ErrStorageNotConfigured) {
			return httpx.Error(c, fiber.StatusServiceUnavailable, "storage_not_configured", "Storage not configured")
		}
		if errors.Is(err, service.ErrProfileNotFound) {
			return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
		}
		return httpx.Internal(c, "issue_upload_url_failed")
	}

	return c.JSON(ticket)
}

func (h *AttachmentHandler) CreateAttachment(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.CreateAttachmentInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	attachment, err := h.attachmentService.CreateAttachment(profileID, input)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
		}
		return httpx.BadRequest(c, "create_attachment_failed", err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(attachment.ToResponse())
}

func (h *AttachmentHandler) GetAttachment(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	attachmentID, err := c.ParamsInt("id")
	if err != nil || attachmentID <= 0 {
		return httpx.BadRequest(c, "invalid_attachment_id", "Invalid attachment ID")
	}

	attachment, err := h.attachmentService.GetAttachment(profileID, uint(attachmentID))
	if err != nil {
		return httpx.Internal(c, "fetch_attachment_failed")
	}
	if attachment == nil {
		return httpx.NotFound(c, "attachment_not_found", "Attachment not found")
	}

	return c.JSON(attachment.ToResponse())
}

// GetAttachmentURL issues a fresh short-lived retrieval URL for the
// attachment's bytes.
func (h *AttachmentHandler) GetAttachmentURL(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	attachmentID, err := c.ParamsInt("id")
	if err != nil || attachmentID <= 0 {
		return httpx.BadRequest(c, "invalid_attachment_id", "Invalid attachment ID")
	}

	url, err := h.attachmentService.AttachmentURL(c.Context(), profileID, uint(attachmentID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAttachmentNotFound):
			return httpx.NotFound(c, "attachment_not_found", "Attachment not found")
		case errors.Is(err, service.ErrStorageNotConfigured):
			return httpx.Error(c, fiber.StatusServiceUnavailable, "storage_not_configured", "Storage not configured")
		}
		return httpx.Internal(c, "attachment_url_failed")
	}

	return c.JSON(fiber.Map{
		"url": url,
	})
}

func (h *AttachmentHandler) DeleteAttachment(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	attachmentID, err := c.ParamsInt("id")
	if err != nil || attachmentID <= 0 {
		return httpx.BadRequest(c, "invalid_attachment_id", "Invalid attachment ID")
	}

	if err := h.attachmentService.DeleteAttachment(c.Context(), profileID, uint(attachmentID)); err != nil {
		switch {
		case errors.Is(err, service.ErrAttachmentNotFound):
			return httpx.NotFound(c, "attachment_not_found", "Attachment not found")
		case errors.Is(err, service.ErrNotAttachmentOwner):
			return httpx.Forbidden(c, "not_attachment_owner", "Not authorized to delete this attachment")
		case errors.Is(err, service.ErrStorageNotConfigured):
			return httpx.Error(c, fiber.StatusServiceUnavailable, "storage_not_configured", "Storage not configured")
		}
		return httpx.Internal(c, "delete_attachment_failed")
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}

func (h *AttachmentHandler) ListMyAttachments(c *fiber.Ctx) error {
	profileID, err := httpx.LocalUint(c, "profileID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	attachments, err := h.attachmentService.ListUserAttachments(profileID)
	if err != nil {
		return httpx.Internal(c, "fetch_attachments_failed")
	}

	responses := make([]interface{}, len(attachments))
	for i := range attachments {
		responses[i] = attachments[i].ToResponse()
	}

	return c.JSON(fiber.Map{
		"attachments": responses,
	})
}
