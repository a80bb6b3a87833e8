package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/simpleemail/simpleemail/internal/message"
	"github.com/simpleemail/simpleemail/internal/models"
	"github.com/simpleemail/simpleemail/internal/web/middleware"
)

func setupMessageTestRouter(user *models.User, users *mockUserStore, messages *mockMessageStore) *chi.Mux {
	svc := message.NewService(messages, users, newMockBlobStore())
	handler := NewMessageHandler(svc, nil, false)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	r.Post("/messages/{recipientID}/read", handler.HandleMarkRead)
	r.Post("/messages/{recipientID}/archive", handler.HandleMarkArchived)

	return r
}

func composeTestMessage(t *testing.T, users *mockUserStore, messages *mockMessageStore, from, to *models.User) *models.Composed {
	t.Helper()
	svc := message.NewService(messages, users, newMockBlobStore())
	composed, err := svc.Compose(context.Background(), message.ComposeRequest{
		SenderEmail: from.Email,
		To:          to.Email,
		Subject:     "Hello",
		Body:        "World",
	})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	return composed
}

func TestHandleMarkRead_IDOR_Returns404(t *testing.T) {
	users := newMockUserStore()
	userA := &models.User{ID: 1, PublicID: uuid.New(), Username: "a", Email: "a@simpleemail.com"}
	userB := &models.User{ID: 2, PublicID: uuid.New(), Username: "b", Email: "b@simpleemail.com"}
	users.add(userA)
	users.add(userB)

	messages := newMockMessageStore(users)
	composed := composeTestMessage(t, users, messages, userA, userB)

	router := setupMessageTestRouter(userA, users, messages) // requests as user A

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/messages/%s/read", composed.Recipients[0].PublicID), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 when marking another user's record read, got %d", rr.Code)
	}
	if messages.recipients[composed.Recipients[0].ID].IsRead {
		t.Error("record must not be marked read")
	}
}

func TestHandleMarkArchived_Owner(t *testing.T) {
	users := newMockUserStore()
	userA := &models.User{ID: 1, PublicID: uuid.New(), Username: "a", Email: "a@simpleemail.com"}
	userB := &models.User{ID: 2, PublicID: uuid.New(), Username: "b", Email: "b@simpleemail.com"}
	users.add(userA)
	users.add(userB)

	messages := newMockMessageStore(users)
	composed := composeTestMessage(t, users, messages, userA, userB)

	router := setupMessageTestRouter(userB, users, messages)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/messages/%s/archive", composed.Recipients[0].PublicID), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if !messages.recipients[composed.Recipients[0].ID].IsArchived {
		t.Error("record should be archived")
	}
}

func TestHandleMarkRead_InvalidID(t *testing.T) {
	users := newMockUserStore()
	userA := &models.User{ID: 1, PublicID: uuid.New(), Username: "a", Email: "a@simpleemail.com"}
	users.add(userA)

	router := setupMessageTestRouter(userA, users, newMockMessageStore(users))

	req := httptest.NewRequest(http.MethodPost, "/messages/not-a-uuid/read", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed id, got %d", rr.Code)
	}
}
