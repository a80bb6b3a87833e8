package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/simpleemail/simpleemail/internal/models"
)

type FolderStore struct {
	db *sql.DB
}

func NewFolderStore(db *sql.DB) *FolderStore {
	return &FolderStore{db: db}
}

// recipientList is the correlated subquery producing the comma-joined
// recipient emails of a message.
const recipientList = `COALESCE((SELECT string_agg(ru.email, ',' ORDER BY r2.id)
	FROM recipients r2 JOIN users ru ON ru.id = r2.user_id
	WHERE r2.message_id = m.id), '')`

// InboxByUserID returns the user's delivered messages, newest first. Recipient
// records with is_sent = FALSE are drafts and never surface here.
func (s *FolderStore) InboxByUserID(ctx context.Context, userID int64) ([]models.MessageView, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.public_id, m.subject, COALESCE(m.body, ''), su.email, `+recipientList+`,
		        m.created_at, r.public_id, r.is_read, r.is_archived
		 FROM recipients r
		 JOIN messages m ON m.id = r.message_id
		 JOIN senders se ON se.message_id = m.id
		 JOIN users su ON su.id = se.user_id
		 WHERE r.user_id = $1 AND r.is_sent = TRUE
		 ORDER BY m.created_at DESC, m.id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []models.MessageView
	for rows.Next() {
		var v models.MessageView
		var rcptID uuid.UUID
		if err := rows.Scan(&v.MessageID, &v.Subject, &v.Body, &v.From, &v.To,
			&v.CreatedAt, &rcptID, &v.IsRead, &v.IsArchived); err != nil {
			return nil, err
		}
		v.RecipientID = &rcptID
		views = append(views, v)
	}
	return views, rows.Err()
}

// OutboxByUserID returns the user's sent messages, newest first. Sender
// records with is_draft = TRUE are excluded.
func (s *FolderStore) OutboxByUserID(ctx context.Context, userID int64) ([]models.MessageView, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.public_id, m.subject, COALESCE(m.body, ''), su.email, `+recipientList+`,
		        m.created_at
		 FROM senders se
		 JOIN messages m ON m.id = se.message_id
		 JOIN users su ON su.id = se.user_id
		 WHERE se.user_id = $1 AND se.is_draft = FALSE
		 ORDER BY m.created_at DESC, m.id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []models.MessageView
	for rows.Next() {
		var v models.MessageView
		if err := rows.Scan(&v.MessageID, &v.Subject, &v.Body, &v.From, &v.To, &v.CreatedAt); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}
