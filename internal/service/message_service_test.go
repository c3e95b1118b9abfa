package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/qrac-app/draw-chat/internal/models"
)

type messageFixture struct {
	profiles *MockProfileRepository
	chats    *MockChatRepository
	messages *MockMessageRepository
	service  *MessageService
}

// newMessageFixture builds a service over one group chat with members 1
// and 2; profile 3 exists but is not a member.
func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()

	profiles := NewMockProfileRepository()
	for i, name := range []string{"alice", "bob", "carol"} {
		profiles.Create(&models.Profile{
			ID:          uint(i + 1),
			Username:    name,
			Email:       name + "@example.com",
			DisplayName: name,
		})
	}

	chats := NewMockChatRepository(profiles)
	messages := NewMockMessageRepository(chats)

	name := "Test Chat"
	chats.CreateWithMembers(&models.Chat{
		ID:          1,
		Name:        &name,
		Type:        models.GroupChat,
		CreatedByID: 1,
		CreatedAtMs: 1000,
	}, []uint{1, 2})

	return &messageFixture{
		profiles: profiles,
		chats:    chats,
		messages: messages,
		service:  NewMessageService(messages, chats, profiles, nil),
	}
}

func (f *messageFixture) seedMessages(t *testing.T, chatID uint, count int, startTS int64) {
	t.Helper()
	for i := 0; i < count; i++ {
		_, err := f.service.SendMessage(1, SendMessageInput{
			ChatID:  chatID,
			Content: fmt.Sprintf("message %d", i+1),
		})
		if err != nil {
			t.Fatalf("seed message %d: %v", i+1, err)
		}
		// Rewrite the server-assigned timestamps to fixed values so the
		// cursor assertions below are deterministic.
		f.messages.messages[uint(i+1)].Timestamp = startTS + int64(i)
	}
	if latest, ok := f.messages.messages[uint(count)]; ok {
		f.chats.chats[chatID].LastMessageAt = latest.Timestamp
	}
}

func TestSendMessageUpdatesChatSummary(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		kind        models.MessageKind
		wantPreview string
	}{
		{"Text message", "Hello, world!", models.TextMessage, "Hello, world!"},
		{"Default kind is text", "plain", "", "plain"},
		{"Drawing preview is fixed", `{"strokes":[]}`, models.DrawingMessage, "Drawing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMessageFixture(t)

			msg, err := f.service.SendMessage(1, SendMessageInput{
				ChatID:  1,
				Content: tt.content,
				Kind:    tt.kind,
			})
			if err != nil {
				t.Fatalf("SendMessage: %v", err)
			}
			if msg.Timestamp <= 0 {
				t.Errorf("expected server-assigned timestamp, got %d", msg.Timestamp)
			}

			chat := f.chats.chats[1]
			if chat.LastMessageAt != msg.Timestamp {
				t.Errorf("chat lastMessageAt = %d, want %d", chat.LastMessageAt, msg.Timestamp)
			}
			if chat.LastMessagePreview == nil || *chat.LastMessagePreview != tt.wantPreview {
				t.Errorf("chat preview = %v, want %q", chat.LastMessagePreview, tt.wantPreview)
			}
		})
	}
}

func TestSendMessageGating(t *testing.T) {
	f := newMessageFixture(t)

	if _, err := f.service.SendMessage(3, SendMessageInput{ChatID: 1, Content: "hi"}); !errors.Is(err, ErrNotChatMember) {
		t.Errorf("non-member send error = %v, want ErrNotChatMember", err)
	}
	if _, err := f.service.SendMessage(99, SendMessageInput{ChatID: 1, Content: "hi"}); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("unknown sender error = %v, want ErrProfileNotFound", err)
	}
	if _, err := f.service.SendMessage(1, SendMessageInput{ChatID: 1, Kind: models.AttachmentMessage}); !errors.Is(err, ErrAttachmentRequired) {
		t.Errorf("attachment without ID error = %v, want ErrAttachmentRequired", err)
	}
}

func TestPageMessagesWalksHistory(t *testing.T) {
	f := newMessageFixture(t)
	f.seedMessages(t, 1, 25, 10_000)

	ctx := context.Background()

	// First page: newest 10, ascending within the page.
	page, err := f.service.PageMessages(ctx, 1, 1, 10, nil)
	if err != nil {
		t.Fatalf("PageMessages: %v", err)
	}
	if len(page.Messages) != 10 {
		t.Fatalf("first page size = %d, want 10", len(page.Messages))
	}
	if !page.HasMore {
		t.Error("first page should have more")
	}
	if page.Messages[0].Timestamp != 10_015 || page.Messages[9].Timestamp != 10_024 {
		t.Errorf("first page spans [%d, %d], want [10015, 10024]",
			page.Messages[0].Timestamp, page.Messages[9].Timestamp)
	}
	for i := 1; i < len(page.Messages); i++ {
		if page.Messages[i-1].Timestamp >= page.Messages[i].Timestamp {
			t.Fatalf("page not ascending at index %d", i)
		}
	}
	if page.NextCursor == nil || *page.NextCursor != 10_015 {
		t.Fatalf("first page cursor = %v, want 10015", page.NextCursor)
	}

	// Second page continues strictly older than the cursor.
	page, err = f.service.PageMessages(ctx, 1, 1, 10, page.NextCursor)
	if err != nil {
		t.Fatalf("PageMessages (page 2): %v", err)
	}
	if len(page.Messages) != 10 || !page.HasMore {
		t.Fatalf("second page size=%d hasMore=%v, want 10/true", len(page.Messages), page.HasMore)
	}
	if page.Messages[0].Timestamp != 10_005 {
		t.Errorf("second page starts at %d, want 10005", page.Messages[0].Timestamp)
	}

	// Last page: the remaining 5, no cursor.
	page, err = f.service.PageMessages(ctx, 1, 1, 10, page.NextCursor)
	if err != nil {
		t.Fatalf("PageMessages (page 3): %v", err)
	}
	if len(page.Messages) != 5 {
		t.Errorf("last page size = %d, want 5", len(page.Messages))
	}
	if page.HasMore {
		t.Error("last page should not have more")
	}
	if page.NextCursor != nil {
		t.Errorf("last page cursor = %v, want nil", *page.NextCursor)
	}
}

// Messages accepted with colliding wall-clock timestamps must still
// paginate losslessly: the store bumps each accepted timestamp past the
// chat's last_message_at, so the timestamp-valued cursor never lands
// between two equal timestamps and drops one.
func TestPageMessagesAfterTimestampCollisions(t *testing.T) {
	f := newMessageFixture(t)

	for _, ts := range []int64{100, 200, 200, 300} {
		msg := &models.ChatMessage{
			ChatID:    1,
			SenderID:  1,
			Content:   "burst",
			Kind:      models.TextMessage,
			Timestamp: ts,
		}
		if err := f.messages.CreateWithChatUpdate(msg, msg.Preview()); err != nil {
			t.Fatalf("CreateWithChatUpdate(ts=%d): %v", ts, err)
		}
	}

	rows, _ := f.messages.ListByChatAsc(1)
	if len(rows) != 4 {
		t.Fatalf("stored %d messages, want 4", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].Timestamp >= rows[i].Timestamp {
			t.Fatalf("timestamps not strictly increasing: %d then %d",
				rows[i-1].Timestamp, rows[i].Timestamp)
		}
	}

	// Walk the history one message per page and confirm nothing is
	// dropped or duplicated.
	ctx := context.Background()
	seen := make(map[uint]bool)
	var cursor *int64
	for {
		page, err := f.service.PageMessages(ctx, 1, 1, 1, cursor)
		if err != nil {
			t.Fatalf("PageMessages: %v", err)
		}
		for _, msg := range page.Messages {
			if seen[msg.ID] {
				t.Fatalf("message %d returned twice", msg.ID)
			}
			seen[msg.ID] = true
		}
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}
	if len(seen) != 4 {
		t.Errorf("pagination walk returned %d of 4 messages", len(seen))
	}
}

func TestPageMessagesExactLimit(t *testing.T) {
	f := newMessageFixture(t)
	f.seedMessages(t, 1, 10, 10_000)

	page, err := f.service.PageMessages(context.Background(), 1, 1, 10, nil)
	if err != nil {
		t.Fatalf("PageMessages: %v", err)
	}
	if len(page.Messages) != 10 {
		t.Errorf("page size = %d, want 10", len(page.Messages))
	}
	if page.HasMore {
		t.Error("exactly one page of history should report hasMore=false")
	}
	if page.NextCursor != nil {
		t.Errorf("cursor = %v, want nil", *page.NextCursor)
	}
}

func TestPageMessagesZeroCursor(t *testing.T) {
	f := newMessageFixture(t)
	f.seedMessages(t, 1, 5, 10_000)

	// An explicit cursor of zero asks for messages older than the epoch:
	// nothing qualifies. Distinct from a nil cursor, which means "latest".
	zero := int64(0)
	page, err := f.service.PageMessages(context.Background(), 1, 1, 10, &zero)
	if err != nil {
		t.Fatalf("PageMessages: %v", err)
	}
	if len(page.Messages) != 0 || page.HasMore || page.NextCursor != nil {
		t.Errorf("zero cursor page = %d msgs, hasMore=%v; want empty terminal page",
			len(page.Messages), page.HasMore)
	}
}

func TestPageMessagesFailClosed(t *testing.T) {
	f := newMessageFixture(t)
	f.seedMessages(t, 1, 5, 10_000)

	for _, viewerID := range []uint{3, 99} {
		page, err := f.service.PageMessages(context.Background(), viewerID, 1, 10, nil)
		if err != nil {
			t.Fatalf("viewer %d: %v", viewerID, err)
		}
		if len(page.Messages) != 0 || page.HasMore {
			t.Errorf("viewer %d should read an empty page", viewerID)
		}
	}
}

func TestListMessagesFailClosed(t *testing.T) {
	f := newMessageFixture(t)
	f.seedMessages(t, 1, 3, 10_000)

	messages, err := f.service.ListMessages(context.Background(), 3, 1)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("non-member read %d messages, want 0", len(messages))
	}

	messages, err = f.service.ListMessages(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 3 {
		t.Errorf("member read %d messages, want 3", len(messages))
	}
}

func TestUnreadCount(t *testing.T) {
	f := newMessageFixture(t)
	f.seedMessages(t, 1, 4, 10_000) // all sent by profile 1

	// Sender's own messages never count as unread for them.
	count, err := f.service.UnreadCount(1, 1)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 0 {
		t.Errorf("sender unread = %d, want 0", count)
	}

	count, _ = f.service.UnreadCount(2, 1)
	if count != 4 {
		t.Errorf("recipient unread = %d, want 4", count)
	}

	// Non-members read zero, silently.
	count, err = f.service.UnreadCount(3, 1)
	if err != nil || count != 0 {
		t.Errorf("non-member unread = %d, err=%v; want 0, nil", count, err)
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	f := newMessageFixture(t)
	f.seedMessages(t, 1, 3, 10_000)

	for i := 0; i < 2; i++ {
		if err := f.service.MarkRead(2, 1); err != nil {
			t.Fatalf("MarkRead (call %d): %v", i+1, err)
		}
	}

	count, _ := f.service.UnreadCount(2, 1)
	if count != 0 {
		t.Errorf("unread after mark-read = %d, want 0", count)
	}

	if err := f.service.MarkRead(3, 1); !errors.Is(err, ErrNotChatMember) {
		t.Errorf("non-member mark-read error = %v, want ErrNotChatMember", err)
	}
}

func TestFixChatPreviews(t *testing.T) {
	f := newMessageFixture(t)
	f.seedMessages(t, 1, 2, 10_000)

	// Simulate a chat that predates the preview column.
	f.chats.chats[1].LastMessagePreview = nil

	fixed, err := f.service.FixChatPreviews(1)
	if err != nil {
		t.Fatalf("FixChatPreviews: %v", err)
	}
	if fixed != 1 {
		t.Errorf("fixed = %d, want 1", fixed)
	}
	if p := f.chats.chats[1].LastMessagePreview; p == nil || *p != "message 2" {
		t.Errorf("preview = %v, want %q", p, "message 2")
	}

	// Second run finds nothing to repair.
	fixed, err = f.service.FixChatPreviews(1)
	if err != nil || fixed != 0 {
		t.Errorf("second run fixed=%d err=%v, want 0, nil", fixed, err)
	}
}

func TestEnrichSignsAttachmentURLs(t *testing.T) {
	f := newMessageFixture(t)
	store := &fakeStore{}
	f.service = NewMessageService(f.messages, f.chats, f.profiles, store)

	attachmentID := uint(7)
	f.messages.messages[1] = &models.ChatMessage{
		ID:           1,
		ChatID:       1,
		SenderID:     1,
		Content:      "",
		Kind:         models.AttachmentMessage,
		Timestamp:    10_000,
		AttachmentID: &attachmentID,
		Attachment: &models.Attachment{
			ID:         attachmentID,
			StorageKey: "attachments/1/abc",
		},
	}

	messages, err := f.service.ListMessages(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	if want := "https://signed.example/get/attachments/1/abc"; messages[0].AttachmentURL != want {
		t.Errorf("attachment URL = %q, want %q", messages[0].AttachmentURL, want)
	}
}
