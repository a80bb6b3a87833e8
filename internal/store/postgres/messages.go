package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/simpleemail/simpleemail/internal/models"
)

type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

// ComposeMessage inserts the message, its sender record, one recipient record
// per addressee and all attachment rows inside one transaction. Either the
// whole compose becomes visible or none of it does.
func (s *MessageStore) ComposeMessage(ctx context.Context, params models.ComposeParams) (*models.Composed, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin compose: %w", err)
	}
	defer tx.Rollback()

	msg := &models.Message{
		PublicID: uuid.New(),
		Subject:  params.Subject,
		Body:     params.Body,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO messages (public_id, subject, body)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		msg.PublicID, msg.Subject, msg.Body,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	sender := &models.Sender{
		PublicID:  uuid.New(),
		UserID:    params.SenderID,
		MessageID: msg.ID,
		IsDraft:   params.IsDraft,
		IsForward: params.IsForward,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO senders (public_id, user_id, message_id, is_draft, is_forward)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		sender.PublicID, sender.UserID, sender.MessageID, sender.IsDraft, sender.IsForward,
	).Scan(&sender.ID, &sender.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert sender: %w", err)
	}

	recipients := make([]models.Recipient, 0, len(params.RecipientIDs))
	for _, userID := range params.RecipientIDs {
		rcpt := models.Recipient{
			PublicID:  uuid.New(),
			UserID:    userID,
			MessageID: msg.ID,
			IsSent:    !params.IsDraft,
			IsForward: params.IsForward,
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO recipients (public_id, user_id, message_id, is_sent, is_forward)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, created_at`,
			rcpt.PublicID, rcpt.UserID, rcpt.MessageID, rcpt.IsSent, rcpt.IsForward,
		).Scan(&rcpt.ID, &rcpt.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert recipient: %w", err)
		}
		recipients = append(recipients, rcpt)
	}

	attachments := make([]models.Attachment, 0, len(params.Attachments))
	for _, ap := range params.Attachments {
		att := models.Attachment{
			PublicID:    uuid.New(),
			MessageID:   msg.ID,
			Type:        ap.Type,
			FileName:    ap.FileName,
			ContentType: ap.ContentType,
			SizeBytes:   ap.SizeBytes,
			BlobKey:     ap.BlobKey,
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO attachments (public_id, message_id, type, file_name, content_type, size_bytes, blob_key)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id, created_at`,
			att.PublicID, att.MessageID, att.Type, att.FileName, att.ContentType, att.SizeBytes, att.BlobKey,
		).Scan(&att.ID, &att.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert attachment: %w", err)
		}
		attachments = append(attachments, att)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit compose: %w", err)
	}

	return &models.Composed{
		Message:     msg,
		Sender:      sender,
		Recipients:  recipients,
		Attachments: attachments,
	}, nil
}

func (s *MessageStore) GetMessageByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Message, error) {
	msg := &models.Message{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, public_id, subject, body, created_at
		 FROM messages WHERE public_id = $1`,
		publicID,
	).Scan(&msg.ID, &msg.PublicID, &msg.Subject, &msg.Body, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessageStore) GetSenderByMessageID(ctx context.Context, messageID int64) (*models.Sender, error) {
	sender := &models.Sender{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, public_id, user_id, message_id, is_draft, is_forward, created_at
		 FROM senders WHERE message_id = $1`,
		messageID,
	).Scan(&sender.ID, &sender.PublicID, &sender.UserID, &sender.MessageID,
		&sender.IsDraft, &sender.IsForward, &sender.CreatedAt)
	if err != nil {
		return nil, err
	}
	return sender, nil
}

func (s *MessageStore) GetRecipientByMessageAndUser(ctx context.Context, messageID, userID int64) (*models.Recipient, error) {
	return s.getRecipient(ctx, `message_id = $1 AND user_id = $2`, messageID, userID)
}

func (s *MessageStore) GetRecipientByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Recipient, error) {
	return s.getRecipient(ctx, `public_id = $1`, publicID)
}

func (s *MessageStore) getRecipient(ctx context.Context, where string, args ...interface{}) (*models.Recipient, error) {
	rcpt := &models.Recipient{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, public_id, user_id, message_id, is_sent, is_read, is_forward, is_archived, created_at
		 FROM recipients WHERE `+where,
		args...,
	).Scan(&rcpt.ID, &rcpt.PublicID, &rcpt.UserID, &rcpt.MessageID,
		&rcpt.IsSent, &rcpt.IsRead, &rcpt.IsForward, &rcpt.IsArchived, &rcpt.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rcpt, nil
}

func (s *MessageStore) MarkRecipientRead(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE recipients SET is_read = TRUE WHERE id = $1`, id)
	return err
}

func (s *MessageStore) MarkRecipientArchived(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE recipients SET is_archived = TRUE WHERE id = $1`, id)
	return err
}

// ProjectMessage builds the from/to projection of one message: the sender's
// email and the comma-joined emails of all recipients.
func (s *MessageStore) ProjectMessage(ctx context.Context, messageID int64) (*models.MessageView, error) {
	view := &models.MessageView{}
	err := s.db.QueryRowContext(ctx,
		`SELECT m.public_id, m.subject, COALESCE(m.body, ''), su.email,
		        COALESCE((SELECT string_agg(ru.email, ',' ORDER BY r.id)
		                  FROM recipients r JOIN users ru ON ru.id = r.user_id
		                  WHERE r.message_id = m.id), ''),
		        m.created_at
		 FROM messages m
		 JOIN senders se ON se.message_id = m.id
		 JOIN users su ON su.id = se.user_id
		 WHERE m.id = $1`,
		messageID,
	).Scan(&view.MessageID, &view.Subject, &view.Body, &view.From, &view.To, &view.CreatedAt)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *MessageStore) ListAttachmentsByMessageID(ctx context.Context, messageID int64) ([]models.Attachment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, public_id, message_id, type, file_name, content_type, size_bytes, blob_key, created_at
		 FROM attachments WHERE message_id = $1 ORDER BY id`,
		messageID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []models.Attachment
	for rows.Next() {
		var att models.Attachment
		if err := rows.Scan(&att.ID, &att.PublicID, &att.MessageID, &att.Type,
			&att.FileName, &att.ContentType, &att.SizeBytes, &att.BlobKey, &att.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, att)
	}
	return attachments, rows.Err()
}

func (s *MessageStore) GetAttachmentByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Attachment, error) {
	att := &models.Attachment{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, public_id, message_id, type, file_name, content_type, size_bytes, blob_key, created_at
		 FROM attachments WHERE public_id = $1`,
		publicID,
	).Scan(&att.ID, &att.PublicID, &att.MessageID, &att.Type,
		&att.FileName, &att.ContentType, &att.SizeBytes, &att.BlobKey, &att.CreatedAt)
	if err != nil {
		return nil, err
	}
	return att, nil
}
