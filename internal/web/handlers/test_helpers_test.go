package handlers

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/simpleemail/simpleemail/internal/models"
)

// --- Shared mock stores used by the handler tests ---

type mockUserStore struct {
	byUsername map[string]*models.User
	byEmail    map[string]*models.User
	byID       map[int64]*models.User
	nextID     int64
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		byUsername: make(map[string]*models.User),
		byEmail:    make(map[string]*models.User),
		byID:       make(map[int64]*models.User),
		nextID:     1,
	}
}

func (m *mockUserStore) add(u *models.User) {
	m.byUsername[u.Username] = u
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
}

func (m *mockUserStore) CreateUser(_ context.Context, username, email, passwordHash string) (*models.User, error) {
	if _, exists := m.byUsername[username]; exists {
		return nil, errors.New("user already exists")
	}
	u := &models.User{
		ID:           m.nextID,
		PublicID:     uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.nextID++
	m.add(u)
	return u, nil
}

func (m *mockUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := m.byUsername[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockUserStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockUserStore) IncrementFailedLogins(_ context.Context, id int64) error {
	u, ok := m.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.FailedLogins++
	return nil
}

type mockSessionStore struct {
	sessions map[string]*models.Session
	nextID   int64
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]*models.Session), nextID: 1}
}

func (m *mockSessionStore) CreateSession(_ context.Context, token string, userID int64, claims []string, expiresAt time.Time) (*models.Session, error) {
	s := &models.Session{ID: m.nextID, Token: token, UserID: userID, Claims: claims, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	m.nextID++
	m.sessions[token] = s
	return s, nil
}

func (m *mockSessionStore) GetSessionByToken(_ context.Context, token string) (*models.Session, error) {
	s, ok := m.sessions[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func (m *mockSessionStore) DeleteSession(_ context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func (m *mockSessionStore) DeleteExpiredSessions(_ context.Context) error { return nil }

// mockMessageStore keeps just enough ledger state for the handler tests.
type mockMessageStore struct {
	messages    map[int64]*models.Message
	senders     map[int64]*models.Sender
	recipients  map[int64]*models.Recipient
	attachments map[int64]*models.Attachment
	userEmails  map[int64]string
	nextID      int64
}

func newMockMessageStore(users *mockUserStore) *mockMessageStore {
	m := &mockMessageStore{
		messages:    make(map[int64]*models.Message),
		senders:     make(map[int64]*models.Sender),
		recipients:  make(map[int64]*models.Recipient),
		attachments: make(map[int64]*models.Attachment),
		userEmails:  make(map[int64]string),
		nextID:      1,
	}
	for id, u := range users.byID {
		m.userEmails[id] = u.Email
	}
	return m
}

func (m *mockMessageStore) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *mockMessageStore) ComposeMessage(_ context.Context, params models.ComposeParams) (*models.Composed, error) {
	msg := &models.Message{ID: m.id(), PublicID: uuid.New(), Subject: params.Subject, Body: params.Body, CreatedAt: time.Now()}
	m.messages[msg.ID] = msg

	sender := &models.Sender{ID: m.id(), PublicID: uuid.New(), UserID: params.SenderID, MessageID: msg.ID, IsDraft: params.IsDraft, IsForward: params.IsForward}
	m.senders[sender.ID] = sender

	var recipients []models.Recipient
	for _, userID := range params.RecipientIDs {
		rcpt := models.Recipient{ID: m.id(), PublicID: uuid.New(), UserID: userID, MessageID: msg.ID, IsSent: !params.IsDraft, IsForward: params.IsForward}
		m.recipients[rcpt.ID] = &rcpt
		recipients = append(recipients, rcpt)
	}

	return &models.Composed{Message: msg, Sender: sender, Recipients: recipients}, nil
}

func (m *mockMessageStore) GetMessageByPublicID(_ context.Context, publicID uuid.UUID) (*models.Message, error) {
	for _, msg := range m.messages {
		if msg.PublicID == publicID {
			return msg, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockMessageStore) GetSenderByMessageID(_ context.Context, messageID int64) (*models.Sender, error) {
	for _, s := range m.senders {
		if s.MessageID == messageID {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockMessageStore) GetRecipientByMessageAndUser(_ context.Context, messageID, userID int64) (*models.Recipient, error) {
	for _, r := range m.recipients {
		if r.MessageID == messageID && r.UserID == userID {
			return r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockMessageStore) GetRecipientByPublicID(_ context.Context, publicID uuid.UUID) (*models.Recipient, error) {
	for _, r := range m.recipients {
		if r.PublicID == publicID {
			return r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockMessageStore) MarkRecipientRead(_ context.Context, id int64) error {
	r, ok := m.recipients[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.IsRead = true
	return nil
}

func (m *mockMessageStore) MarkRecipientArchived(_ context.Context, id int64) error {
	r, ok := m.recipients[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.IsArchived = true
	return nil
}

func (m *mockMessageStore) ProjectMessage(_ context.Context, messageID int64) (*models.MessageView, error) {
	msg, ok := m.messages[messageID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	sender, err := m.GetSenderByMessageID(context.Background(), messageID)
	if err != nil {
		return nil, err
	}
	var to []string
	for _, r := range m.recipients {
		if r.MessageID == messageID {
			to = append(to, m.userEmails[r.UserID])
		}
	}
	return &models.MessageView{
		MessageID: msg.PublicID,
		Subject:   msg.Subject,
		Body:      msg.Body,
		From:      m.userEmails[sender.UserID],
		To:        strings.Join(to, ","),
		CreatedAt: msg.CreatedAt,
	}, nil
}

func (m *mockMessageStore) ListAttachmentsByMessageID(_ context.Context, _ int64) ([]models.Attachment, error) {
	return nil, nil
}

func (m *mockMessageStore) GetAttachmentByPublicID(_ context.Context, _ uuid.UUID) (*models.Attachment, error) {
	return nil, sql.ErrNoRows
}

type mockBlobStore struct {
	objects map[string][]byte
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{objects: make(map[string][]byte)}
}

func (m *mockBlobStore) Put(_ context.Context, key, _ string, body []byte) error {
	m.objects[key] = body
	return nil
}

func (m *mockBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (m *mockBlobStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}
