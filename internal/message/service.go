package message

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/simpleemail/simpleemail/internal/blob"
	"github.com/simpleemail/simpleemail/internal/models"
	"github.com/simpleemail/simpleemail/internal/store"
)

// Sentinel errors returned by Service methods.
var (
	ErrEmptySubject   = errors.New("subject must not be empty")
	ErrInvalidSender  = errors.New("sender is not a registered user")
	ErrNoRecipients   = errors.New("at least one recipient is required")
	ErrNotFound       = errors.New("message not found")
	ErrNotParticipant = errors.New("user does not participate in message")
)

// UnknownRecipientError names the recipient address that failed to resolve.
type UnknownRecipientError struct {
	Address string
}

func (e *UnknownRecipientError) Error() string {
	return fmt.Sprintf("unknown recipient: %s", e.Address)
}

// File is one uploaded attachment: the original filename and its content.
type File struct {
	Name string
	Data []byte
}

// ComposeRequest is one compose form submission.
type ComposeRequest struct {
	SenderEmail string
	To          string // comma-separated recipient addresses
	Subject     string
	Body        string
	IsDraft     bool
	IsForward   bool
	Files       []File
}

// Service provides compose, view and flag-mutation business logic.
type Service struct {
	messages store.MessageStore
	users    store.UserStore
	blobs    blob.Store
}

func NewService(messages store.MessageStore, users store.UserStore, blobs blob.Store) *Service {
	return &Service{
		messages: messages,
		users:    users,
		blobs:    blobs,
	}
}

// Compose validates the request and persists the message with its sender,
// recipient and attachment rows in one transaction. Validation failures leave
// no rows behind; if the transaction itself fails, already-stored attachment
// payloads are deleted again.
func (s *Service) Compose(ctx context.Context, req ComposeRequest) (*models.Composed, error) {
	if strings.TrimSpace(req.Subject) == "" {
		return nil, ErrEmptySubject
	}

	sender, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(req.SenderEmail))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidSender
		}
		return nil, fmt.Errorf("looking up sender: %w", err)
	}

	recipientIDs, err := s.resolveRecipients(ctx, req.To)
	if err != nil {
		return nil, err
	}

	attachments, blobKeys, err := s.storeAttachments(ctx, req.Files)
	if err != nil {
		return nil, err
	}

	composed, err := s.messages.ComposeMessage(ctx, models.ComposeParams{
		Subject:      req.Subject,
		Body:         req.Body,
		SenderID:     sender.ID,
		RecipientIDs: recipientIDs,
		IsDraft:      req.IsDraft,
		IsForward:    req.IsForward,
		Attachments:  attachments,
	})
	if err != nil {
		s.deleteBlobs(ctx, blobKeys)
		return nil, fmt.Errorf("persisting compose: %w", err)
	}

	return composed, nil
}

// resolveRecipients splits the comma-separated address list, trims tokens,
// drops empty ones and resolves each to a registered user. One unknown
// address fails the whole list.
func (s *Service) resolveRecipients(ctx context.Context, raw string) ([]int64, error) {
	var ids []int64
	for _, token := range strings.Split(raw, ",") {
		address := strings.TrimSpace(token)
		if address == "" {
			continue
		}
		user, err := s.users.GetUserByEmail(ctx, address)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, &UnknownRecipientError{Address: address}
			}
			return nil, fmt.Errorf("looking up recipient %s: %w", address, err)
		}
		ids = append(ids, user.ID)
	}
	if len(ids) == 0 {
		return nil, ErrNoRecipients
	}
	return ids, nil
}

func (s *Service) storeAttachments(ctx context.Context, files []File) ([]models.AttachmentParams, []string, error) {
	var (
		params []models.AttachmentParams
		keys   []string
	)
	for _, f := range files {
		contentType := http.DetectContentType(f.Data)
		attachmentType := models.AttachmentTypeFile
		if strings.HasPrefix(contentType, "image/") {
			attachmentType = models.AttachmentTypeImage
		}

		key := "attachments/" + uuid.New().String()
		if err := s.blobs.Put(ctx, key, contentType, f.Data); err != nil {
			s.deleteBlobs(ctx, keys)
			return nil, nil, fmt.Errorf("storing attachment %s: %w", f.Name, err)
		}
		keys = append(keys, key)

		params = append(params, models.AttachmentParams{
			Type:        attachmentType,
			FileName:    f.Name,
			ContentType: contentType,
			SizeBytes:   int64(len(f.Data)),
			BlobKey:     key,
		})
	}
	return params, keys, nil
}

// deleteBlobs removes attachment payloads after a failed compose. Best
// effort: failures are logged, the compose error is what the caller sees.
func (s *Service) deleteBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			slog.Warn("failed to delete orphaned attachment blob", "key", key, "error", err)
		}
	}
}

// View returns the projection of one message for a participating user,
// together with its attachments. Viewing as a recipient marks the record
// read. Drafts are visible to their sender only.
func (s *Service) View(ctx context.Context, user *models.User, messageID uuid.UUID) (*models.MessageView, []models.Attachment, error) {
	msg, _, rcpt, err := s.participation(ctx, user, messageID)
	if err != nil {
		return nil, nil, err
	}

	if rcpt != nil && !rcpt.IsRead {
		if err := s.messages.MarkRecipientRead(ctx, rcpt.ID); err != nil {
			slog.Warn("failed to mark recipient read", "recipient_id", rcpt.ID, "error", err)
		}
	}

	view, err := s.messages.ProjectMessage(ctx, msg.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("projecting message: %w", err)
	}
	if rcpt != nil {
		view.RecipientID = &rcpt.PublicID
		view.IsRead = true
		view.IsArchived = rcpt.IsArchived
	}

	attachments, err := s.messages.ListAttachmentsByMessageID(ctx, msg.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing attachments: %w", err)
	}

	return view, attachments, nil
}

// ForwardPrefill returns the compose prefill for forwarding a message the
// user participates in.
func (s *Service) ForwardPrefill(ctx context.Context, user *models.User, messageID uuid.UUID) (*models.MessageView, error) {
	msg, _, _, err := s.participation(ctx, user, messageID)
	if err != nil {
		return nil, err
	}

	view, err := s.messages.ProjectMessage(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("projecting message: %w", err)
	}
	if !strings.HasPrefix(view.Subject, "Fwd: ") {
		view.Subject = "Fwd: " + view.Subject
	}
	return view, nil
}

// MarkRead marks the user's recipient record read. Idempotent.
func (s *Service) MarkRead(ctx context.Context, user *models.User, recipientID uuid.UUID) error {
	rcpt, err := s.ownedRecipient(ctx, user, recipientID)
	if err != nil {
		return err
	}
	return s.messages.MarkRecipientRead(ctx, rcpt.ID)
}

// MarkArchived marks the user's recipient record archived. Idempotent.
func (s *Service) MarkArchived(ctx context.Context, user *models.User, recipientID uuid.UUID) error {
	rcpt, err := s.ownedRecipient(ctx, user, recipientID)
	if err != nil {
		return err
	}
	return s.messages.MarkRecipientArchived(ctx, rcpt.ID)
}

// GetAttachment returns an attachment and its payload for a participating
// user.
func (s *Service) GetAttachment(ctx context.Context, user *models.User, attachmentID uuid.UUID) (*models.Attachment, []byte, error) {
	att, err := s.messages.GetAttachmentByPublicID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("looking up attachment: %w", err)
	}

	if err := s.participationByMessageID(ctx, user, att.MessageID); err != nil {
		return nil, nil, err
	}

	data, err := s.blobs.Get(ctx, att.BlobKey)
	if err != nil {
		return nil, nil, fmt.Errorf("loading attachment payload: %w", err)
	}
	return att, data, nil
}

// participation resolves the message and the user's role in it. A user
// participates as the sender, or as a recipient whose record was delivered
// (is_sent = TRUE); an undelivered draft stays invisible to its addressees.
func (s *Service) participation(ctx context.Context, user *models.User, messageID uuid.UUID) (*models.Message, *models.Sender, *models.Recipient, error) {
	msg, err := s.messages.GetMessageByPublicID(ctx, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, ErrNotFound
		}
		return nil, nil, nil, fmt.Errorf("looking up message: %w", err)
	}

	sender, err := s.messages.GetSenderByMessageID(ctx, msg.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("looking up sender record: %w", err)
	}
	if sender.UserID == user.ID {
		return msg, sender, nil, nil
	}

	rcpt, err := s.messages.GetRecipientByMessageAndUser(ctx, msg.ID, user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, ErrNotParticipant
		}
		return nil, nil, nil, fmt.Errorf("looking up recipient record: %w", err)
	}
	if !rcpt.IsSent {
		return nil, nil, nil, ErrNotParticipant
	}
	return msg, nil, rcpt, nil
}

func (s *Service) participationByMessageID(ctx context.Context, user *models.User, messageID int64) error {
	sender, err := s.messages.GetSenderByMessageID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("looking up sender record: %w", err)
	}
	if sender.UserID == user.ID {
		return nil
	}

	rcpt, err := s.messages.GetRecipientByMessageAndUser(ctx, messageID, user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotParticipant
		}
		return fmt.Errorf("looking up recipient record: %w", err)
	}
	if !rcpt.IsSent {
		return ErrNotParticipant
	}
	return nil
}

func (s *Service) ownedRecipient(ctx context.Context, user *models.User, recipientID uuid.UUID) (*models.Recipient, error) {
	rcpt, err := s.messages.GetRecipientByPublicID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("looking up recipient record: %w", err)
	}
	if rcpt.UserID != user.ID {
		return nil, ErrNotFound
	}
	return rcpt, nil
}
