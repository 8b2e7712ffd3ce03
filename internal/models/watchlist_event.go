package models

import "time"

// Watchlist event type constants
const (
	EventWatchlistStockAdded   = "WATCHLIST_STOCK_ADDED"
	EventWatchlistStockRemoved = "WATCHLIST_STOCK_REMOVED"
)

// WatchlistEvent represents a Kafka event for watchlist changes
type WatchlistEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	UserID    int64           `json:"user_id"`
	Ticker    string          `json:"ticker"`
	Snapshot  *TickerSnapshot `json:"snapshot,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// WatchlistEventRecord is an audited watchlist event as stored in the database
type WatchlistEventRecord struct {
	ID         int             `json:"id"`
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	UserID     int64           `json:"user_id"`
	Ticker     string          `json:"ticker"`
	Snapshot   *TickerSnapshot `json:"snapshot,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	CreatedAt  time.Time       `json:"created_at"`
}
