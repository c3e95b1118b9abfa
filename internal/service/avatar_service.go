package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qrac-app/draw-chat/internal/models"
	"github.com/qrac-app/draw-chat/internal/repository"
	"github.com/qrac-app/draw-chat/internal/storage"
)

type AvatarService struct {
	profileRepo repository.ProfileRepositoryInterface
	s3          *storage.S3Storage
}

func NewAvatarService(profileRepo repository.ProfileRepositoryInterface, s3 *storage.S3Storage) *AvatarService {
	return &AvatarService{profileRepo: profileRepo, s3: s3}
}

// UploadAvatar processes an uploaded image and stores it as a JPEG avatar.
// Returns the updated profile.
func (s *AvatarService) UploadAvatar(ctx context.Context, profileID uint, fileReader io.Reader, publicAPIBaseURL string) (*models.Profile, error) {
	if s.s3 == nil {
		return nil, ErrStorageNotConfigured
	}
	publicAPIBaseURL = strings.TrimRight(strings.TrimSpace(publicAPIBaseURL), "/")
	if publicAPIBaseURL == "" {
		return nil, errors.New("missing public api base url")
	}

	profile, err := s.profileRepo.FindByID(profileID)
	if err != nil {
		return nil, ErrProfileNotFound
	}

	opts := storage.DefaultAvatarOptions()
	jpegBytes, contentType, outSize, err := storage.ProcessAvatarImage(fileReader, opts)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%d/%s.jpg", profileID, uuid.NewString())
	st, err := s.s3.PutObject(ctx, key, bytes.NewReader(jpegBytes), outSize, contentType)
	if err != nil {
		return nil, err
	}

	avatarURL := publicAPIBaseURL + "/media/avatars/" + key

	// Keep old key; delete only after DB update succeeds.
	oldKey := strings.TrimSpace(profile.AvatarKey)

	now := time.Now().UTC()
	profile.Avatar = avatarURL
	profile.AvatarKey = key
	profile.AvatarContentType = contentType
	profile.AvatarSizeBytes = outSize
	profile.AvatarUpdatedAt = &now
	profile.AvatarETag = st.ETag

	if err := s.profileRepo.Update(profile); err != nil {
		// Try to delete newly created object to avoid orphan.
		_ = s.s3.DeleteObject(ctx, key)
		return nil, err
	}

	// Best-effort delete previous object if present.
	if oldKey != "" && oldKey != key {
		_ = s.s3.DeleteObject(ctx, oldKey)
	}

	return profile, nil
}

// DeleteAvatar removes the profile's avatar reference and deletes the stored
// object (best-effort). Returns the updated profile.
func (s *AvatarService) DeleteAvatar(ctx context.Context, profileID uint) (*models.Profile, error) {
	if s.s3 == nil {
		return nil, ErrStorageNotConfigured
	}

	profile, err := s.profileRepo.FindByID(profileID)
	if err != nil {
		return nil, ErrProfileNotFound
	}

	oldKey := strings.TrimSpace(profile.AvatarKey)

	profile.Avatar = ""
	profile.AvatarKey = ""
	profile.AvatarContentType = ""
	profile.AvatarSizeBytes = 0
	profile.AvatarUpdatedAt = nil
	profile.AvatarETag = ""

	if err := s.profileRepo.Update(profile); err != nil {
		return nil, err
	}

	// Best-effort delete previous object if present.
	if oldKey != "" {
		_ = s.s3.DeleteObject(ctx, oldKey)
	}

	return profile, nil
}
