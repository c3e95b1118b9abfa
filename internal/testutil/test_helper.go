package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/qrac-app/draw-chat/internal/models"
)

// TestHelper provides utility functions for tests
type TestHelper struct {
	t *testing.T
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// CreateTestProfile creates a test profile with default values
func (h *TestHelper) CreateTestProfile(id uint, username, email string) *models.Profile {
	if id == 0 {
		id = 1
	}
	if username == "" {
		username = "testuser"
	}
	if email == "" {
		email = "test@example.com"
	}

	return &models.Profile{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "hashed_password_123",
		DisplayName:  "Test User",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// CreateTestMessage creates a test chat message with default values
func (h *TestHelper) CreateTestMessage(id, chatID, senderID uint, content string, ts int64) *models.ChatMessage {
	if id == 0 {
		id = 1
	}
	if chatID == 0 {
		chatID = 1
	}
	if senderID == 0 {
		senderID = 1
	}
	if content == "" {
		content = "Test message"
	}
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	return &models.ChatMessage{
		ID:        id,
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		Kind:      models.TextMessage,
		Timestamp: ts,
		Sender: models.Profile{
			ID:       senderID,
			Username: "sender",
			Email:    "sender@example.com",
		},
	}
}

// SetupTestEnv sets up required environment variables for testing
func (h *TestHelper) SetupTestEnv() {
	os.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")
	os.Setenv("PASSWORD_MIN_LENGTH", "10")
}

// TeardownTestEnv cleans up environment variables after testing
func (h *TestHelper) TeardownTestEnv() {
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("PASSWORD_MIN_LENGTH")
}
