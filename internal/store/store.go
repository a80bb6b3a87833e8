package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/simpleemail/simpleemail/internal/models"
)

type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	IncrementFailedLogins(ctx context.Context, id int64) error
}

type SessionStore interface {
	CreateSession(ctx context.Context, token string, userID int64, claims []string, expiresAt time.Time) (*models.Session, error)
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) error
}

// MessageStore persists messages together with their participation records.
// ComposeMessage writes the message, its sender, all recipients and all
// attachment rows in a single transaction.
type MessageStore interface {
	ComposeMessage(ctx context.Context, params models.ComposeParams) (*models.Composed, error)
	GetMessageByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Message, error)
	GetSenderByMessageID(ctx context.Context, messageID int64) (*models.Sender, error)
	GetRecipientByMessageAndUser(ctx context.Context, messageID, userID int64) (*models.Recipient, error)
	GetRecipientByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Recipient, error)
	MarkRecipientRead(ctx context.Context, id int64) error
	MarkRecipientArchived(ctx context.Context, id int64) error
	ProjectMessage(ctx context.Context, messageID int64) (*models.MessageView, error)
	ListAttachmentsByMessageID(ctx context.Context, messageID int64) ([]models.Attachment, error)
	GetAttachmentByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Attachment, error)
}

// FolderStore projects participation records into folder views.
type FolderStore interface {
	InboxByUserID(ctx context.Context, userID int64) ([]models.MessageView, error)
	OutboxByUserID(ctx context.Context, userID int64) ([]models.MessageView, error)
}

// SearchStore returns the two halves of a search: matches reached through
// the user's sender records and matches reached through their recipient
// records. Matching is case-sensitive substring containment.
type SearchStore interface {
	SearchSenderSide(ctx context.Context, userID int64, query string) ([]models.MessageView, error)
	SearchRecipientSide(ctx context.Context, userID int64, query string) ([]models.MessageView, error)
}
