// Package watchlist maintains each user's ordered list of ticker snapshots.
//
// A watchlist is stored as one serialized blob per user. Every mutation reads
// the blob, applies the change and writes the whole list back while holding
// the user's lock, so concurrent adds and removes for one user never lose
// each other's writes (unless the lock mode is "none").
package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/trogers1052/stock-watchlist/internal/metrics"
	"github.com/trogers1052/stock-watchlist/internal/models"
)

var (
	// ErrDuplicateTicker is returned when the ticker is already in the watchlist
	ErrDuplicateTicker = errors.New("ticker already in watchlist")
	// ErrNotFound is returned when removing a ticker that is not in the watchlist
	ErrNotFound = errors.New("ticker not found in watchlist")
	// ErrNoWatchlist is returned when removing from a user who never saved a watchlist
	ErrNoWatchlist = errors.New("watchlist not found")
	// ErrStore wraps persistence and serialization failures
	ErrStore = errors.New("watchlist store failure")
)

// BlobStore persists one serialized watchlist per user
type BlobStore interface {
	GetWatchlistBlob(ctx context.Context, userID int64) ([]byte, bool, error)
	PutWatchlistBlob(ctx context.Context, userID int64, blob []byte) error
}

// EventPublisher is notified after a successful mutation
type EventPublisher interface {
	PublishStockAdded(ctx context.Context, userID int64, snapshot *models.TickerSnapshot) error
	PublishStockRemoved(ctx context.Context, userID int64, ticker string) error
}

// Store implements add, remove and list over a BlobStore
type Store struct {
	blobs     BlobStore
	locker    Locker
	publisher EventPublisher
	metrics   *metrics.Recorder
	logger    zerolog.Logger
}

// NewStore creates a Store. A nil locker defaults to a LocalLocker; publisher
// and rec may be nil.
func NewStore(blobs BlobStore, locker Locker, publisher EventPublisher, rec *metrics.Recorder, logger zerolog.Logger) *Store {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Store{
		blobs:     blobs,
		locker:    locker,
		publisher: publisher,
		metrics:   rec,
		logger:    logger,
	}
}

// List returns the user's watchlist, or an empty list if none was saved
func (s *Store) List(ctx context.Context, userID int64) (models.Watchlist, error) {
	list, _, err := s.load(ctx, userID)
	return list, err
}

// Add appends snapshot to the user's watchlist and returns the updated list.
// The list is left unchanged if the ticker is already present.
func (s *Store) Add(ctx context.Context, userID int64, snapshot *models.TickerSnapshot) (models.Watchlist, error) {
	if snapshot == nil {
		return nil, errors.New("snapshot is required")
	}

	unlock, err := s.locker.Lock(ctx, userKey(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: lock: %w", ErrStore, err)
	}
	defer unlock()

	list, _, err := s.load(ctx, userID)
	if err != nil {
		s.metrics.RecordMutation("add", "error")
		return nil, err
	}

	if list.IndexOf(snapshot.General.Ticker) >= 0 {
		s.metrics.RecordMutation("add", "duplicate")
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTicker, snapshot.Key())
	}

	list = append(list, *snapshot)
	if err := s.save(ctx, userID, list); err != nil {
		s.metrics.RecordMutation("add", "error")
		return nil, err
	}
	s.metrics.RecordMutation("add", "ok")

	s.logger.Info().Int64("user_id", userID).Str("ticker", snapshot.Key()).Int("size", len(list)).Msg("added to watchlist")

	if s.publisher != nil {
		if err := s.publisher.PublishStockAdded(ctx, userID, snapshot); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", userID).Str("ticker", snapshot.Key()).Msg("failed to publish watchlist event")
		}
	}
	return list, nil
}

// Remove deletes ticker (case-insensitive) from the user's watchlist and
// returns the updated list with the remaining order preserved.
func (s *Store) Remove(ctx context.Context, userID int64, ticker string) (models.Watchlist, error) {
	key := models.NormalizeTicker(ticker)

	unlock, err := s.locker.Lock(ctx, userKey(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: lock: %w", ErrStore, err)
	}
	defer unlock()

	list, found, err := s.load(ctx, userID)
	if err != nil {
		s.metrics.RecordMutation("remove", "error")
		return nil, err
	}
	if !found {
		s.metrics.RecordMutation("remove", "no_watchlist")
		return nil, ErrNoWatchlist
	}

	idx := list.IndexOf(key)
	if idx < 0 {
		s.metrics.RecordMutation("remove", "not_found")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	updated := make(models.Watchlist, 0, len(list)-1)
	updated = append(updated, list[:idx]...)
	updated = append(updated, list[idx+1:]...)

	if err := s.save(ctx, userID, updated); err != nil {
		s.metrics.RecordMutation("remove", "error")
		return nil, err
	}
	s.metrics.RecordMutation("remove", "ok")

	s.logger.Info().Int64("user_id", userID).Str("ticker", key).Int("size", len(updated)).Msg("removed from watchlist")

	if s.publisher != nil {
		if err := s.publisher.PublishStockRemoved(ctx, userID, key); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", userID).Str("ticker", key).Msg("failed to publish watchlist event")
		}
	}
	return updated, nil
}

func (s *Store) load(ctx context.Context, userID int64) (models.Watchlist, bool, error) {
	blob, found, err := s.blobs.GetWatchlistBlob(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if !found {
		return models.Watchlist{}, false, nil
	}

	list, err := Decode(blob)
	if err != nil {
		return nil, true, fmt.Errorf("%w: user %d: %w", ErrStore, userID, err)
	}
	return list, true, nil
}

func (s *Store) save(ctx context.Context, userID int64, list models.Watchlist) error {
	blob, err := Encode(list)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	if err := s.blobs.PutWatchlistBlob(ctx, userID, blob); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return nil
}

// Encode serializes a watchlist as a JSON array
func Encode(list models.Watchlist) ([]byte, error) {
	if list == nil {
		list = models.Watchlist{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("failed to encode watchlist: %w", err)
	}
	return data, nil
}

// Decode parses a serialized watchlist. An empty or null blob is an empty list.
func Decode(blob []byte) (models.Watchlist, error) {
	list := models.Watchlist{}
	if len(blob) == 0 || string(blob) == "null" {
		return list, nil
	}
	if err := json.Unmarshal(blob, &list); err != nil {
		return nil, fmt.Errorf("failed to decode watchlist: %w", err)
	}
	if list == nil {
		list = models.Watchlist{}
	}
	return list, nil
}
