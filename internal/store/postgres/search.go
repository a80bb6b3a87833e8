package postgres

import (
	"context"
	"database/sql"

	"github.com/simpleemail/simpleemail/internal/models"
)

type SearchStore struct {
	db *sql.DB
}

func NewSearchStore(db *sql.DB) *SearchStore {
	return &SearchStore{db: db}
}

// SearchSenderSide matches messages reached through the user's sender
// records: the query must be contained in the user's own email, the message
// body or subject, or in the email of any recipient of the message. strpos is
// case sensitive, matching the ordinal-containment contract.
func (s *SearchStore) SearchSenderSide(ctx context.Context, userID int64, query string) ([]models.MessageView, error) {
	return s.search(ctx,
		`SELECT m.public_id, m.subject, COALESCE(m.body, ''), su.email, `+recipientList+`,
		        m.created_at
		 FROM senders se
		 JOIN messages m ON m.id = se.message_id
		 JOIN users su ON su.id = se.user_id
		 WHERE se.user_id = $1
		   AND (strpos(su.email, $2) > 0
		     OR strpos(COALESCE(m.body, ''), $2) > 0
		     OR strpos(m.subject, $2) > 0
		     OR EXISTS (SELECT 1 FROM recipients r3 JOIN users r3u ON r3u.id = r3.user_id
		                WHERE r3.message_id = m.id AND strpos(r3u.email, $2) > 0))
		 ORDER BY m.created_at DESC, m.id DESC`,
		userID, query)
}

// SearchRecipientSide is the mirror image over the user's recipient records,
// with the sender's email standing in for the recipient list.
func (s *SearchStore) SearchRecipientSide(ctx context.Context, userID int64, query string) ([]models.MessageView, error) {
	return s.search(ctx,
		`SELECT m.public_id, m.subject, COALESCE(m.body, ''), su.email, `+recipientList+`,
		        m.created_at
		 FROM recipients r
		 JOIN messages m ON m.id = r.message_id
		 JOIN senders se ON se.message_id = m.id
		 JOIN users su ON su.id = se.user_id
		 JOIN users ou ON ou.id = r.user_id
		 WHERE r.user_id = $1
		   AND (strpos(ou.email, $2) > 0
		     OR strpos(COALESCE(m.body, ''), $2) > 0
		     OR strpos(m.subject, $2) > 0
		     OR strpos(su.email, $2) > 0)
		 ORDER BY m.created_at DESC, m.id DESC`,
		userID, query)
}

func (s *SearchStore) search(ctx context.Context, q string, userID int64, query string) ([]models.MessageView, error) {
	rows, err := s.db.QueryContext(ctx, q, userID, query)
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
