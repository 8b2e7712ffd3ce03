package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetWatchlistBlob returns the serialized watchlist stored for a user.
// found is false when the user has no watchlist row.
func (db *DB) GetWatchlistBlob(ctx context.Context, userID int64) ([]byte, bool, error) {
	query := db.rebind(`
		SELECT stocks
		FROM watchlists
		WHERE user_id = $1
	`)

	var blob string
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get watchlist: %w", err)
	}

	return []byte(blob), true, nil
}

// PutWatchlistBlob replaces the serialized watchlist for a user, creating the
// row on first write. The write happens in a single transaction.
func (db *DB) PutWatchlistBlob(ctx context.Context, userID int64, blob []byte) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := db.rebind(`
		INSERT INTO watchlists (user_id, stocks, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			stocks = EXCLUDED.stocks,
			updated_at = EXCLUDED.updated_at
	`)

	// stored as text so postgres receives JSON rather than bytea
	if _, err := tx.ExecContext(ctx, query, userID, string(blob), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save watchlist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteWatchlist removes a user's watchlist row
func (db *DB) DeleteWatchlist(ctx context.Context, userID int64) error {
	query := db.rebind(`DELETE FROM watchlists WHERE user_id = $1`)
	if _, err := db.conn.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete watchlist: %w", err)
	}
	return nil
}
