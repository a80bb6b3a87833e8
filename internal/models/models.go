package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           int64
	PublicID     uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	FailedLogins int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Session struct {
	ID        int64
	Token     string
	UserID    int64
	Claims    []string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// HasClaim reports whether the session carries the given claim.
func (s *Session) HasClaim(claim string) bool {
	for _, c := range s.Claims {
		if c == claim {
			return true
		}
	}
	return false
}

type Message struct {
	ID        int64
	PublicID  uuid.UUID
	Subject   string
	Body      string
	CreatedAt time.Time
}

// Sender is the participation record linking a user to a message in the
// outgoing direction. A message has exactly one.
type Sender struct {
	ID        int64
	PublicID  uuid.UUID
	UserID    int64
	MessageID int64
	IsDraft   bool
	IsForward bool
	CreatedAt time.Time
}

// Recipient is the participation record linking a user to a message in the
// incoming direction, one per addressee. IsSent is fixed at creation as the
// negation of the sender's IsDraft.
type Recipient struct {
	ID         int64
	PublicID   uuid.UUID
	UserID     int64
	MessageID  int64
	IsSent     bool
	IsRead     bool
	IsForward  bool
	IsArchived bool
	CreatedAt  time.Time
}

const (
	AttachmentTypeFile  = "FILE"
	AttachmentTypeImage = "IMAGE"
)

type Attachment struct {
	ID          int64
	PublicID    uuid.UUID
	MessageID   int64
	Type        string
	FileName    string
	ContentType string
	SizeBytes   int64
	BlobKey     string
	CreatedAt   time.Time
}

// ComposeParams carries everything written during one compose. The store
// persists the whole set in a single transaction.
type ComposeParams struct {
	Subject      string
	Body         string
	SenderID     int64
	RecipientIDs []int64
	IsDraft      bool
	IsForward    bool
	Attachments  []AttachmentParams
}

type AttachmentParams struct {
	Type        string
	FileName    string
	ContentType string
	SizeBytes   int64
	BlobKey     string
}

// Composed is the row set produced by one compose.
type Composed struct {
	Message     *Message
	Sender      *Sender
	Recipients  []Recipient
	Attachments []Attachment
}

// MessageView is the folder/search projection of a message: the sender email
// and the comma-joined recipient emails alongside the message fields.
type MessageView struct {
	MessageID uuid.UUID
	Subject   string
	Body      string
	From      string
	To        string
	CreatedAt time.Time

	// RecipientID is set when the view was projected from one of the
	// requesting user's recipient records, so read/archive actions can
	// target it. Nil for sender-side projections.
	RecipientID *uuid.UUID
	IsRead      bool
	IsArchived  bool
}
