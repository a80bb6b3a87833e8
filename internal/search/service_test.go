package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/simpleemail/simpleemail/internal/models"
)

// mockSearchStore evaluates the search predicates over an in-memory ledger
// with case-sensitive strings.Contains, mirroring the SQL strpos matching.
type mockSearchStore struct {
	users      map[int64]string
	messages   map[int64]*models.Message
	senders    []*models.Sender
	recipients []*models.Recipient
	nextID     int64
}

func newMockSearchStore() *mockSearchStore {
	return &mockSearchStore{
		users:    make(map[int64]string),
		messages: make(map[int64]*models.Message),
		nextID:   1,
	}
}

func (m *mockSearchStore) addUser(id int64, email string) {
	m.users[id] = email
}

func (m *mockSearchStore) addMessage(subject, body string, senderID int64, recipientIDs ...int64) *models.Message {
	msg := &models.Message{ID: m.nextID, PublicID: uuid.New(), Subject: subject, Body: body, CreatedAt: time.Now()}
	m.nextID++
	m.messages[msg.ID] = msg
	m.senders = append(m.senders, &models.Sender{ID: m.nextID, UserID: senderID, MessageID: msg.ID})
	m.nextID++
	for _, rid := range recipientIDs {
		m.recipients = append(m.recipients, &models.Recipient{
			ID: m.nextID, PublicID: uuid.New(), UserID: rid, MessageID: msg.ID, IsSent: true,
		})
		m.nextID++
	}
	return msg
}

func (m *mockSearchStore) project(messageID int64) models.MessageView {
	msg := m.messages[messageID]
	view := models.MessageView{MessageID: msg.PublicID, Subject: msg.Subject, Body: msg.Body, CreatedAt: msg.CreatedAt}
	for _, s := range m.senders {
		if s.MessageID == messageID {
			view.From = m.users[s.UserID]
		}
	}
	var to []string
	for _, r := range m.recipients {
		if r.MessageID == messageID {
			to = append(to, m.users[r.UserID])
		}
	}
	view.To = strings.Join(to, ",")
	return view
}

func (m *mockSearchStore) SearchSenderSide(_ context.Context, userID int64, query string) ([]models.MessageView, error) {
	var views []models.MessageView
	for _, s := range m.senders {
		if s.UserID != userID {
			continue
		}
		msg := m.messages[s.MessageID]
		match := strings.Contains(m.users[userID], query) ||
			strings.Contains(msg.Body, query) ||
			strings.Contains(msg.Subject, query)
		if !match {
			for _, r := range m.recipients {
				if r.MessageID == msg.ID && strings.Contains(m.users[r.UserID], query) {
					match = true
					break
				}
			}
		}
		if match {
			views = append(views, m.project(msg.ID))
		}
	}
	return views, nil
}

func (m *mockSearchStore) SearchRecipientSide(_ context.Context, userID int64, query string) ([]models.MessageView, error) {
	var views []models.MessageView
	for _, r := range m.recipients {
		if r.UserID != userID {
			continue
		}
		msg := m.messages[r.MessageID]
		match := strings.Contains(m.users[userID], query) ||
			strings.Contains(msg.Body, query) ||
			strings.Contains(msg.Subject, query)
		if !match {
			for _, s := range m.senders {
				if s.MessageID == msg.ID && strings.Contains(m.users[s.UserID], query) {
					match = true
					break
				}
			}
		}
		if match {
			v := m.project(msg.ID)
			rcptID := r.PublicID
			v.RecipientID = &rcptID
			views = append(views, v)
		}
	}
	return views, nil
}

// --- Tests ---

func TestSearch_EmptyQuery(t *testing.T) {
	svc := NewService(newMockSearchStore())

	_, err := svc.Search(context.Background(), &models.User{ID: 1}, "   ")
	if !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSearch_ExactSubject(t *testing.T) {
	store := newMockSearchStore()
	store.addUser(1, "a@x")
	store.addUser(2, "b@x")
	msg := store.addMessage("Quarterly report", "numbers inside", 1, 2)
	store.addMessage("Unrelated", "nothing here", 1, 2)

	svc := NewService(store)
	results, err := svc.Search(context.Background(), &models.User{ID: 1, Email: "a@x"}, "Quarterly report")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly 1 result, got %d", len(results))
	}
	if _, ok := results[msg.PublicID]; !ok {
		t.Error("expected the matching message keyed by its id")
	}
}

func TestSearch_BodyMatchScopedToParticipants(t *testing.T) {
	store := newMockSearchStore()
	store.addUser(1, "a@x")
	store.addUser(2, "b@x")
	store.addUser(3, "c@x")
	store.addMessage("Hello", "World", 1, 2)

	svc := NewService(store)

	results, err := svc.Search(context.Background(), &models.User{ID: 1, Email: "a@x"}, "World")
	if err != nil {
		t.Fatalf("search as sender: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected sender to find the message, got %d results", len(results))
	}

	results, err = svc.Search(context.Background(), &models.User{ID: 2, Email: "b@x"}, "World")
	if err != nil {
		t.Fatalf("search as recipient: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected recipient to find the message, got %d results", len(results))
	}

	results, err = svc.Search(context.Background(), &models.User{ID: 3, Email: "c@x"}, "World")
	if err != nil {
		t.Fatalf("search as stranger: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("unrelated user should find nothing, got %d results", len(results))
	}
}

func TestSearch_CaseSensitive(t *testing.T) {
	store := newMockSearchStore()
	store.addUser(1, "a@x")
	store.addUser(2, "b@x")
	store.addMessage("Hello", "", 1, 2)

	svc := NewService(store)
	results, err := svc.Search(context.Background(), &models.User{ID: 1, Email: "a@x"}, "hello")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("matching is case sensitive, expected no results, got %d", len(results))
	}
}

func TestSearch_ParticipantEmailMatches(t *testing.T) {
	store := newMockSearchStore()
	store.addUser(1, "a@x")
	store.addUser(2, "b@x")
	store.addMessage("Hello", "", 1, 2)

	svc := NewService(store)

	// Sender finds the message by a recipient's address.
	results, err := svc.Search(context.Background(), &models.User{ID: 1, Email: "a@x"}, "b@x")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected sender-side match on recipient email, got %d results", len(results))
	}

	// Recipient finds the message by the sender's address.
	results, err = svc.Search(context.Background(), &models.User{ID: 2, Email: "b@x"}, "a@x")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected recipient-side match on sender email, got %d results", len(results))
	}
}

func TestSearch_DedupPrefersSenderSide(t *testing.T) {
	store := newMockSearchStore()
	store.addUser(1, "a@x")
	// Self-addressed message: matches through both sides.
	msg := store.addMessage("Note to self", "remember", 1, 1)

	svc := NewService(store)
	results, err := svc.Search(context.Background(), &models.User{ID: 1, Email: "a@x"}, "remember")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected the message once, got %d results", len(results))
	}
	// The sender-side projection carries no recipient record.
	if results[msg.PublicID].RecipientID != nil {
		t.Error("sender-side entry should win the dedup")
	}
}

func TestSorted_NewestFirst(t *testing.T) {
	now := time.Now()
	a, b := uuid.New(), uuid.New()
	results := map[uuid.UUID]models.MessageView{
		a: {MessageID: a, Subject: "Older", CreatedAt: now.Add(-time.Hour)},
		b: {MessageID: b, Subject: "Newer", CreatedAt: now},
	}

	views := Sorted(results)
	if len(views) != 2 || views[0].Subject != "Newer" {
		t.Fatalf("expected newest first, got %v", views)
	}
}
