package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/simpleemail/simpleemail/internal/models"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	user := &models.User{
		PublicID:     uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (public_id, username, email, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, failed_logins, created_at, updated_at`,
		user.PublicID, user.Username, user.Email, user.PasswordHash,
	).Scan(&user.ID, &user.FailedLogins, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `username = $1`, username)
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `email = $1`, email)
}

func (s *UserStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, `id = $1`, id)
}

func (s *UserStore) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, public_id, username, email, password_hash, failed_logins, created_at, updated_at
		 FROM users WHERE `+where,
		arg,
	).Scan(&user.ID, &user.PublicID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FailedLogins, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserStore) IncrementFailedLogins(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET failed_logins = failed_logins + 1, updated_at = NOW() WHERE id = $1`,
		id,
	)
	return err
}
