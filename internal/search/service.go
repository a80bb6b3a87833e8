// Package search implements substring search over a user's messages.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/simpleemail/simpleemail/internal/models"
	"github.com/simpleemail/simpleemail/internal/store"
)

var ErrEmptyQuery = errors.New("search query must not be empty")

type Service struct {
	searches store.SearchStore
}

func NewService(searches store.SearchStore) *Service {
	return &Service{searches: searches}
}

// Search unions the sender-side and recipient-side matches for the user,
// deduplicated by message identity. A message matching through both sides
// keeps its sender-side projection. Matching is case-sensitive ordinal
// containment with no normalization or ranking.
func (s *Service) Search(ctx context.Context, user *models.User, query string) (map[uuid.UUID]models.MessageView, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	senderSide, err := s.searches.SearchSenderSide(ctx, user.ID, query)
	if err != nil {
		return nil, fmt.Errorf("searching sender side: %w", err)
	}

	recipientSide, err := s.searches.SearchRecipientSide(ctx, user.ID, query)
	if err != nil {
		return nil, fmt.Errorf("searching recipient side: %w", err)
	}

	results := make(map[uuid.UUID]models.MessageView, len(senderSide)+len(recipientSide))
	for _, v := range senderSide {
		results[v.MessageID] = v
	}
	for _, v := range recipientSide {
		if _, seen := results[v.MessageID]; !seen {
			results[v.MessageID] = v
		}
	}

	return results, nil
}

// Sorted flattens a result map into a slice ordered by descending creation
// time, for rendering.
func Sorted(results map[uuid.UUID]models.MessageView) []models.MessageView {
	views := make([]models.MessageView, 0, len(results))
	for _, v := range results {
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views
}
