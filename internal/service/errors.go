package service

import "errors"

// Sentinel errors for the write paths. Read paths fail closed instead:
// a missing profile or membership yields an empty result, not an error,
// so unauthorized readers learn nothing about a chat's existence.
var (
	ErrProfileNotFound      = errors.New("user profile not found")
	ErrNotChatMember        = errors.New("user is not a member of this chat")
	ErrUserNotFound         = errors.New("user not found")
	ErrChatNotFound         = errors.New("chat not found")
	ErrSelfChat             = errors.New("cannot start a private chat with yourself")
	ErrPrivateChatExists    = errors.New("a private chat with this member already exists")
	ErrAttachmentRequired   = errors.New("attachment ID is required for attachment messages")
	ErrAttachmentNotFound   = errors.New("attachment not found")
	ErrNotAttachmentOwner   = errors.New("not authorized to delete this attachment")
	ErrStorageNotConfigured = errors.New("storage not configured")
)
