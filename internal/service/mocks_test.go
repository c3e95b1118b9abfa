package service

import (
	"context"
	"sort"
	"time"

	"github.com/qrac-app/draw-chat/internal/models"
	"github.com/qrac-app/draw-chat/internal/repository"
	"gorm.io/gorm"
)

// MockProfileRepository is an in-memory ProfileRepository for testing
type MockProfileRepository struct {
	profiles map[uint]*models.Profile
	nextID   uint
}

func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{
		profiles: make(map[uint]*models.Profile),
		nextID:   1,
	}
}

func (m *MockProfileRepository) Create(profile *models.Profile) error {
	if profile.ID == 0 {
		profile.ID = m.nextID
		m.nextID++
	} else if profile.ID >= m.nextID {
		m.nextID = profile.ID + 1
	}
	m.profiles[profile.ID] = profile
	return nil
}

func (m *MockProfileRepository) FindByID(id uint) (*models.Profile, error) {
	if p, ok := m.profiles[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockProfileRepository) FindByEmail(email string) (*models.Profile, error) {
	for _, p := range m.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockProfileRepository) FindByUsername(username string) (*models.Profile, error) {
	for _, p := range m.profiles {
		if p.Username == username {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockProfileRepository) Update(profile *models.Profile) error {
	if _, ok := m.profiles[profile.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.profiles[profile.ID] = profile
	return nil
}

func (m *MockProfileRepository) SearchProfiles(query string, limit int) ([]models.Profile, error) {
	out := make([]models.Profile, 0)
	for _, p := range m.profiles {
		if len(out) >= limit {
			break
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *MockProfileRepository) ListAll() ([]models.Profile, error) {
	out := make([]models.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MockChatRepository is an in-memory ChatRepository. It shares state with
// MockMessageRepository for unread counts and summary updates.
type MockChatRepository struct {
	chats    map[uint]*models.Chat
	members  map[uint][]*models.ChatMember // keyed by chat ID
	messages *MockMessageRepository
	profiles *MockProfileRepository
	nextID   uint
}

func NewMockChatRepository(profiles *MockProfileRepository) *MockChatRepository {
	return &MockChatRepository{
		chats:    make(map[uint]*models.Chat),
		members:  make(map[uint][]*models.ChatMember),
		profiles: profiles,
		nextID:   1,
	}
}

func (m *MockChatRepository) CreateWithMembers(chat *models.Chat, memberIDs []uint) error {
	if chat.PairKey != nil {
		for _, existing := range m.chats {
			if existing.PairKey != nil && *existing.PairKey == *chat.PairKey {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if chat.ID == 0 {
		chat.ID = m.nextID
		m.nextID++
	}
	m.chats[chat.ID] = chat
	for _, id := range memberIDs {
		m.members[chat.ID] = append(m.members[chat.ID], &models.ChatMember{
			ChatID:    chat.ID,
			ProfileID: id,
			JoinedAt:  chat.CreatedAtMs,
		})
	}
	return nil
}

func (m *MockChatRepository) FindByID(id uint) (*models.Chat, error) {
	if c, ok := m.chats[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockChatRepository) FindMembership(chatID, profileID uint) (*models.ChatMember, error) {
	for _, member := range m.members[chatID] {
		if member.ProfileID == profileID {
			return member, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockChatRepository) ListMemberships(profileID uint) ([]models.ChatMember, error) {
	out := make([]models.ChatMember, 0)
	chatIDs := make([]uint, 0, len(m.members))
	for chatID := range m.members {
		chatIDs = append(chatIDs, chatID)
	}
	sort.Slice(chatIDs, func(i, j int) bool { return chatIDs[i] < chatIDs[j] })
	for _, chatID := range chatIDs {
		for _, member := range m.members[chatID] {
			if member.ProfileID == profileID {
				out = append(out, *member)
			}
		}
	}
	return out, nil
}

func (m *MockChatRepository) ListMembers(chatID uint) ([]models.ChatMember, error) {
	out := make([]models.ChatMember, 0, len(m.members[chatID]))
	for _, member := range m.members[chatID] {
		row := *member
		if m.profiles != nil {
			if p, err := m.profiles.FindByID(member.ProfileID); err == nil {
				row.Profile = *p
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *MockChatRepository) ListMemberIDs(chatID uint) ([]uint, error) {
	out := make([]uint, 0, len(m.members[chatID]))
	for _, member := range m.members[chatID] {
		out = append(out, member.ProfileID)
	}
	return out, nil
}

func (m *MockChatRepository) FindPrivateChatID(profileA, profileB uint) (uint, error) {
	for chatID, chat := range m.chats {
		if chat.Type != models.PrivateChat {
			continue
		}
		var hasA, hasB bool
		for _, member := range m.members[chatID] {
			if member.ProfileID == profileA {
				hasA = true
			}
			if member.ProfileID == profileB {
				hasB = true
			}
		}
		if hasA && hasB {
			return chatID, nil
		}
	}
	return 0, nil
}

func (m *MockChatRepository) ListChatsForProfile(profileID uint) ([]models.Chat, error) {
	memberships, _ := m.ListMemberships(profileID)
	out := make([]models.Chat, 0, len(memberships))
	for _, membership := range memberships {
		if c, ok := m.chats[membership.ChatID]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *MockChatRepository) UpdateLastRead(chatID, profileID uint, ts int64) error {
	for _, member := range m.members[chatID] {
		if member.ProfileID == profileID {
			member.LastReadAt = &ts
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *MockChatRepository) UpdatePreview(chatID uint, preview string) error {
	chat, ok := m.chats[chatID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	chat.LastMessagePreview = &preview
	return nil
}

func (m *MockChatRepository) UnreadCounts(profileID uint) ([]repository.ChatUnreadRow, error) {
	memberships, _ := m.ListMemberships(profileID)
	out := make([]repository.ChatUnreadRow, 0, len(memberships))
	for _, membership := range memberships {
		count, _ := m.CountUnread(membership.ChatID, profileID)
		if count > 0 {
			out = append(out, repository.ChatUnreadRow{ChatID: membership.ChatID, UnreadCount: count})
		}
	}
	return out, nil
}

func (m *MockChatRepository) CountUnread(chatID, profileID uint) (int64, error) {
	membership, err := m.FindMembership(chatID, profileID)
	if err != nil {
		return 0, err
	}
	var watermark int64
	if membership.LastReadAt != nil {
		watermark = *membership.LastReadAt
	}
	if m.messages == nil {
		return 0, nil
	}
	var count int64
	for _, msg := range m.messages.messages {
		if msg.ChatID == chatID && msg.Timestamp > watermark && msg.SenderID != profileID {
			count++
		}
	}
	return count, nil
}

func (m *MockChatRepository) AnyGroupChatExists() (bool, error) {
	for _, chat := range m.chats {
		if chat.Type == models.GroupChat {
			return true, nil
		}
	}
	return false, nil
}

// MockMessageRepository is an in-memory MessageRepository
type MockMessageRepository struct {
	messages map[uint]*models.ChatMessage
	chats    *MockChatRepository
	nextID   uint
}

func NewMockMessageRepository(chats *MockChatRepository) *MockMessageRepository {
	repo := &MockMessageRepository{
		messages: make(map[uint]*models.ChatMessage),
		chats:    chats,
		nextID:   1,
	}
	if chats != nil {
		chats.messages = repo
	}
	return repo
}

func (m *MockMessageRepository) CreateWithChatUpdate(message *models.ChatMessage, preview string) error {
	if message.ID == 0 {
		message.ID = m.nextID
		m.nextID++
	}
	if m.chats != nil {
		if chat, ok := m.chats.chats[message.ChatID]; ok {
			// Same high-water-mark bump as the real store: per-chat
			// timestamps stay strictly increasing even when wall clocks
			// collide.
			if message.Timestamp <= chat.LastMessageAt {
				message.Timestamp = chat.LastMessageAt + 1
			}
			chat.LastMessageAt = message.Timestamp
			p := preview
			chat.LastMessagePreview = &p
		}
	}
	m.messages[message.ID] = message
	return nil
}

func (m *MockMessageRepository) FindByID(id uint) (*models.ChatMessage, error) {
	msg, ok := m.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *msg
	if m.chats != nil && m.chats.profiles != nil {
		if p, err := m.chats.profiles.FindByID(msg.SenderID); err == nil {
			out.Sender = *p
		}
	}
	return &out, nil
}

func (m *MockMessageRepository) byChat(chatID uint) []models.ChatMessage {
	out := make([]models.ChatMessage, 0)
	for _, msg := range m.messages {
		if msg.ChatID == chatID {
			out = append(out, *msg)
		}
	}
	return out
}

func (m *MockMessageRepository) ListByChatAsc(chatID uint) ([]models.ChatMessage, error) {
	out := m.byChat(chatID)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MockMessageRepository) PageByChatDesc(chatID uint, cursor *int64, limit int) ([]models.ChatMessage, error) {
	all := m.byChat(chatID)
	out := make([]models.ChatMessage, 0, len(all))
	for _, msg := range all {
		if cursor != nil && msg.Timestamp >= *cursor {
			continue
		}
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockMessageRepository) FindLatestByChat(chatID uint) (*models.ChatMessage, error) {
	rows, _ := m.PageByChatDesc(chatID, nil, 1)
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (m *MockMessageRepository) InsertBatch(messages []models.ChatMessage) error {
	for i := range messages {
		msg := messages[i]
		if msg.ID == 0 {
			msg.ID = m.nextID
			m.nextID++
		}
		m.messages[msg.ID] = &msg
	}
	return nil
}

// MockAttachmentRepository is an in-memory AttachmentRepository
type MockAttachmentRepository struct {
	attachments map[uint]*models.Attachment
	nextID      uint
}

func NewMockAttachmentRepository() *MockAttachmentRepository {
	return &MockAttachmentRepository{
		attachments: make(map[uint]*models.Attachment),
		nextID:      1,
	}
}

func (m *MockAttachmentRepository) Create(attachment *models.Attachment) error {
	if attachment.ID == 0 {
		attachment.ID = m.nextID
		m.nextID++
	}
	m.attachments[attachment.ID] = attachment
	return nil
}

func (m *MockAttachmentRepository) FindByID(id uint) (*models.Attachment, error) {
	if a, ok := m.attachments[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockAttachmentRepository) Delete(id uint) error {
	if _, ok := m.attachments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.attachments, id)
	return nil
}

func (m *MockAttachmentRepository) ListByUploader(profileID uint) ([]models.Attachment, error) {
	out := make([]models.Attachment, 0)
	for _, a := range m.attachments {
		if a.UploadedByID == profileID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt > out[j].UploadedAt })
	return out, nil
}

// MockLegacyMessageRepository serves a fixed legacy message list
type MockLegacyMessageRepository struct {
	messages []models.LegacyMessage
}

func (m *MockLegacyMessageRepository) ListAllAsc() ([]models.LegacyMessage, error) {
	out := make([]models.LegacyMessage, len(m.messages))
	copy(out, m.messages)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// MockSettingsRepository is an in-memory SettingsRepository
type MockSettingsRepository struct {
	settings map[uint]*models.ProfileSettings
}

func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{settings: make(map[uint]*models.ProfileSettings)}
}

func (m *MockSettingsRepository) Get(profileID uint) (*models.ProfileSettings, error) {
	if s, ok := m.settings[profileID]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockSettingsRepository) Upsert(settings *models.ProfileSettings) error {
	m.settings[settings.ProfileID] = settings
	return nil
}

// fakeStore satisfies AttachmentStore without a real object store
type fakeStore struct {
	deletedKeys []string
}

func (f *fakeStore) PresignedRetrievalURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://signed.example/get/" + key, nil
}

func (f *fakeStore) PresignedUploadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://signed.example/put/" + key, nil
}

func (f *fakeStore) DeleteObject(ctx context.Context, key string) error {
	f.deletedKeys = append(f.deletedKeys, key)
	return nil
}
