package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/trogers1052/stock-watchlist/internal/models"
)

// CreateWatchlistEvent stores an audited watchlist event
func (db *DB) CreateWatchlistEvent(ctx context.Context, e *models.WatchlistEventRecord) error {
	query := db.rebind(`
		INSERT INTO watchlist_events (
			event_id, event_type, user_id, ticker, snapshot, occurred_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`)

	var snapshot sql.NullString
	if e.Snapshot != nil {
		data, err := json.Marshal(e.Snapshot)
		if err != nil {
			return fmt.Errorf("failed to marshal event snapshot: %w", err)
		}
		snapshot = sql.NullString{String: string(data), Valid: true}
	}

	now := time.Now().UTC()
	err := db.conn.QueryRowContext(ctx, query,
		e.EventID, e.EventType, e.UserID, e.Ticker, snapshot, e.OccurredAt.UTC(), now,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to create watchlist event: %w", err)
	}
	e.CreatedAt = now
	return nil
}

// WatchlistEventExists checks if an event with the given ID was already stored
func (db *DB) WatchlistEventExists(ctx context.Context, eventID string) (bool, error) {
	query := db.rebind(`SELECT EXISTS (SELECT 1 FROM watchlist_events WHERE event_id = $1)`)

	var exists bool
	if err := db.conn.QueryRowContext(ctx, query, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check watchlist event existence: %w", err)
	}
	return exists, nil
}

// GetWatchlistEventsByUser returns a user's most recent events, newest first
func (db *DB) GetWatchlistEventsByUser(ctx context.Context, userID int64, limit int) ([]*models.WatchlistEventRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := db.rebind(`
		SELECT id, event_id, event_type, user_id, ticker, snapshot, occurred_at, created_at
		FROM watchlist_events
		WHERE user_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2
	`)

	rows, err := db.conn.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist events: %w", err)
	}
	defer rows.Close()

	events := []*models.WatchlistEventRecord{}
	for rows.Next() {
		var e models.WatchlistEventRecord
		var snapshot sql.NullString
		if err := rows.Scan(
			&e.ID, &e.EventID, &e.EventType, &e.UserID, &e.Ticker, &snapshot, &e.OccurredAt, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist event: %w", err)
		}
		if snapshot.Valid && snapshot.String != "" {
			var s models.TickerSnapshot
			if err := json.Unmarshal([]byte(snapshot.String), &s); err != nil {
				return nil, fmt.Errorf("failed to decode event snapshot: %w", err)
			}
			e.Snapshot = &s
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watchlist events: %w", err)
	}

	return events, nil
}
