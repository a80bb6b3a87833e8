// Package folder derives the inbox and outbox views from participation
// records.
package folder

import (
	"context"
	"fmt"

	"github.com/simpleemail/simpleemail/internal/models"
	"github.com/simpleemail/simpleemail/internal/store"
)

type Service struct {
	folders store.FolderStore
}

func NewService(folders store.FolderStore) *Service {
	return &Service{folders: folders}
}

// Inbox lists the user's delivered messages, newest first. Undelivered
// drafts addressed to the user never appear.
func (s *Service) Inbox(ctx context.Context, user *models.User) ([]models.MessageView, error) {
	views, err := s.folders.InboxByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("listing inbox: %w", err)
	}
	return views, nil
}

// Outbox lists the user's sent messages, newest first. Drafts are excluded.
func (s *Service) Outbox(ctx context.Context, user *models.User) ([]models.MessageView, error) {
	views, err := s.folders.OutboxByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("listing outbox: %w", err)
	}
	return views, nil
}
