package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/simpleemail/simpleemail/internal/models"
	"github.com/simpleemail/simpleemail/internal/store"
)

// ClaimMail gates access to the mail surface. Sessions created through Login
// carry it; route middleware demands it in addition to a valid session.
const ClaimMail = "mail"

// maxFailedLogins is the failed-attempt count at which an account locks.
// There is no reset path, so the lock is permanent.
const maxFailedLogins = 3

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account locked after too many failed logins")
)

// Service provides registration, authentication and session business logic.
type Service struct {
	users      store.UserStore
	sessions   store.SessionStore
	mailDomain string
	maxAge     time.Duration
}

// NewService creates a new auth service. mailDomain is appended to usernames
// to derive addresses; maxAgeHours bounds session lifetime.
func NewService(users store.UserStore, sessions store.SessionStore, mailDomain string, maxAgeHours int) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		mailDomain: mailDomain,
		maxAge:     time.Duration(maxAgeHours) * time.Hour,
	}
}

// Register creates a new user. The address is derived as username@mailDomain.
// It fails when the username is blank or taken, or when the confirmation
// password does not match.
func (s *Service) Register(ctx context.Context, username, password, confirm string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username is required")
	}
	if password == "" {
		return nil, errors.New("password is required")
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}

	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("looking up username: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	email := fmt.Sprintf("%s@%s", username, s.mailDomain)
	user, err := s.users.CreateUser(ctx, username, email, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user by username and password and returns a new
// session carrying the mail claim. A wrong password for an existing user
// increments that user's failed-login counter; once the counter reaches
// maxFailedLogins the account refuses even correct passwords.
func (s *Service) Login(ctx context.Context, username, password string) (*models.Session, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.FailedLogins >= maxFailedLogins {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(user.PasswordHash, password); err != nil {
		if incErr := s.users.IncrementFailedLogins(ctx, user.ID); incErr != nil {
			return nil, fmt.Errorf("recording failed login: %w", incErr)
		}
		return nil, ErrInvalidCredentials
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	expiresAt := time.Now().Add(s.maxAge)
	session, err := s.sessions.CreateSession(ctx, token, user.ID, []string{ClaimMail}, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// Logout deletes the session identified by the given token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// ValidateSession checks the token against the session store and returns the
// session together with its user.
func (s *Service) ValidateSession(ctx context.Context, token string) (*models.User, *models.Session, error) {
	session, err := s.sessions.GetSessionByToken(ctx, token)
	if err != nil {
		return nil, nil, errors.New("invalid session")
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, errors.New("user not found")
	}

	return user, session, nil
}
