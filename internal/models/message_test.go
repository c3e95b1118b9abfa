package models

import (
	"strings"
	"testing"
)

func TestMessagePreview(t *testing.T) {
	tests := []struct {
		name     string
		kind     MessageKind
		content  string
		expected string
	}{
		{"Short text passes through", TextMessage, "hello", "hello"},
		{"Exactly 100 chars untouched", TextMessage, strings.Repeat("a", 100), strings.Repeat("a", 100)},
		{"Long text truncated to 100", TextMessage, strings.Repeat("a", 250), strings.Repeat("a", 100)},
		{"Drawing content hidden", DrawingMessage, `{"strokes":[[1,2],[3,4]]}`, "Drawing"},
		{"Attachment content hidden", AttachmentMessage, "vacation.jpg", "Attachment"},
		{"Empty text", TextMessage, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MessagePreview(tt.kind, tt.content)
			if result != tt.expected {
				t.Errorf("MessagePreview(%q, ...) = %q, want %q", tt.kind, result, tt.expected)
			}
		})
	}
}

func TestMessagePreviewMultibyte(t *testing.T) {
	// Truncation counts runes, not bytes: a multibyte message must not be
	// cut mid-character.
	content := strings.Repeat("日", 150)
	preview := MessagePreview(TextMessage, content)
	if preview != strings.Repeat("日", 100) {
		t.Errorf("multibyte preview has %d runes", len([]rune(preview)))
	}
}

func TestChatMessageToResponse(t *testing.T) {
	attachmentID := uint(9)
	msg := &ChatMessage{
		ID:           3,
		ChatID:       1,
		SenderID:     2,
		Content:      "hi",
		Kind:         TextMessage,
		Timestamp:    12345,
		AttachmentID: &attachmentID,
		Sender: Profile{
			ID:       2,
			Username: "bob",
			Email:    "bob@example.com",
		},
		Attachment: &Attachment{
			ID:         9,
			StorageKey: "attachments/2/abc",
			MimeType:   "image/png",
		},
	}

	resp := msg.ToResponse()
	if resp.ID != 3 || resp.ChatID != 1 || resp.Timestamp != 12345 {
		t.Errorf("response = %+v", resp)
	}
	if resp.Sender.Username != "bob" {
		t.Errorf("sender = %+v", resp.Sender)
	}
	if resp.Attachment == nil || resp.Attachment.ID != 9 {
		t.Errorf("attachment = %+v", resp.Attachment)
	}
	// Signed URLs are minted at read time, never baked into the model.
	if resp.AttachmentURL != "" {
		t.Errorf("attachment URL should start empty, got %q", resp.AttachmentURL)
	}
}
