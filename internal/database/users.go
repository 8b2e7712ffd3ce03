package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/trogers1052/stock-watchlist/internal/models"
)

// CreateUser inserts a new user and sets its ID and CreatedAt
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	query := db.rebind(`
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`)
	now := time.Now().UTC()

	err := db.conn.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash, now).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.CreatedAt = now
	return nil
}

// GetUserByUsername retrieves a user by username
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := db.rebind(`
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE username = $1
	`)

	var u models.User
	err := db.conn.QueryRowContext(ctx, query, username).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// UserExists reports whether a user with the given username or email exists
func (db *DB) UserExists(ctx context.Context, username, email string) (bool, error) {
	query := db.rebind(`
		SELECT EXISTS (
			SELECT 1 FROM users WHERE username = $1 OR email = $2
		)
	`)

	var exists bool
	if err := db.conn.QueryRowContext(ctx, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}
