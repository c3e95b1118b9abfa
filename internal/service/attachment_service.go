package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qrac-app/draw-chat/internal/models"
	"github.com/qrac-app/draw-chat/internal/repository"
	"github.com/qrac-app/draw-chat/internal/validation"
	"gorm.io/gorm"
)

const uploadURLTTL = 15 * time.Minute

// AttachmentStore is the object-storage surface the attachment flow needs.
// *storage.S3Storage satisfies it; tests substitute a fake.
type AttachmentStore interface {
	ObjectURLSigner
	PresignedUploadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

type AttachmentService struct {
	attachmentRepo repository.AttachmentRepositoryInterface
	profileRepo    repository.ProfileRepositoryInterface
	store          AttachmentStore
}

func NewAttachmentService(
	attachmentRepo repository.AttachmentRepositoryInterface,
	profileRepo repository.ProfileRepositoryInterface,
	store AttachmentStore,
) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		profileRepo:    profileRepo,
		store:          store,
	}
}

type UploadTicket struct {
	URL string `json:"upload_url"`
	Key string `json:"key"`
}

// IssueUploadURL hands the caller a presigned PUT URL under a key scoped
// to their profile. The metadata row is created separately once the
// upload completes.
func (s *AttachmentService) IssueUploadURL(ctx context.Context, callerID uint) (*UploadTicket, error) {
	if s.store == nil {
		return nil, ErrStorageNotConfigured
	}
	if _, err := s.profileRepo.FindByID(callerID); err != nil {
		return nil, ErrProfileNotFound
	}

	key := fmt.Sprintf("attachments/%d/%s", callerID, uuid.NewString())
	url, err := s.store.PresignedUploadURL(ctx, key, uploadURLTTL)
	if err != nil {
		return nil, err
	}
	return &UploadTicket{URL: url, Key: key}, nil
}

type CreateAttachmentInput struct {
	Key          string `json:"key"`
	OriginalName string `json:"original_name"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	Width        *int   `json:"width"`
	Height       *int   `json:"height"`
}

func (s *AttachmentService) CreateAttachment(callerID uint, input CreateAttachmentInput) (*models.Attachment, error) {
	if _, err := s.profileRepo.FindByID(callerID); err != nil {
		return nil, ErrProfileNotFound
	}
	// Keys are issued caller-scoped; registering someone else's upload is
	// not allowed.
	if !strings.HasPrefix(input.Key, fmt.Sprintf("attachments/%d/", callerID)) {
		return nil, errors.New("invalid attachment key")
	}
	if !validation.ValidateAttachmentMime(input.MimeType) {
		return nil, errors.New("unsupported attachment type")
	}
	if !validation.ValidateAttachmentSize(input.Size) {
		return nil, errors.New("invalid attachment size")
	}

	attachment := &models.Attachment{
		StorageKey:   input.Key,
		OriginalName: validation.TrimAndLimit(input.OriginalName, 255),
		MimeType:     strings.ToLower(strings.TrimSpace(input.MimeType)),
		Size:         input.Size,
		Width:        input.Width,
		Height:       input.Height,
		UploadedByID: callerID,
		UploadedAt:   time.Now().UnixMilli(),
	}
	if err := s.attachmentRepo.Create(attachment); err != nil {
		return nil, err
	}
	return attachment, nil
}

// GetAttachment is a fail-closed read: unknown caller or attachment reads
// as nil, nil.
func (s *AttachmentService) GetAttachment(viewerID, attachmentID uint) (*models.Attachment, error) {
	if _, err := s.profileRepo.FindByID(viewerID); err != nil {
		return nil, nil
	}
	attachment, err := s.attachmentRepo.FindByID(attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return attachment, nil
}

// AttachmentURL issues a fresh presigned retrieval URL. Write-path
// semantics: missing entities error.
func (s *AttachmentService) AttachmentURL(ctx context.Context, callerID, attachmentID uint) (string, error) {
	if s.store == nil {
		return "", ErrStorageNotConfigured
	}
	if _, err := s.profileRepo.FindByID(callerID); err != nil {
		return "", ErrProfileNotFound
	}
	attachment, err := s.attachmentRepo.FindByID(attachmentID)
	if err != nil {
		return "", ErrAttachmentNotFound
	}
	return s.store.PresignedRetrievalURL(ctx, attachment.StorageKey, retrievalURLTTL)
}

// DeleteAttachment removes the object then the metadata row. Only the
// uploader may delete.
func (s *AttachmentService) DeleteAttachment(ctx context.Context, callerID, attachmentID uint) error {
	if s.store == nil {
		return ErrStorageNotConfigured
	}
	if _, err := s.profileRepo.FindByID(callerID); err != nil {
		return ErrProfileNotFound
	}
	attachment, err := s.attachmentRepo.FindByID(attachmentID)
	if err != nil {
		return ErrAttachmentNotFound
	}
	if attachment.UploadedByID != callerID {
		return ErrNotAttachmentOwner
	}

	if err := s.store.DeleteObject(ctx, attachment.StorageKey); err != nil {
		return err
	}
	return s.attachmentRepo.Delete(attachmentID)
}

// ListUserAttachments returns the caller's uploads newest-first; unknown
// callers read empty.
func (s *AttachmentService) ListUserAttachments(viewerID uint) ([]models.Attachment, error) {
	if _, err := s.profileRepo.FindByID(viewerID); err != nil {
		return []models.Attachment{}, nil
	}
	return s.attachmentRepo.ListByUploader(viewerID)
}
