package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/trogers1052/stock-watchlist/internal/metrics"
	"github.com/trogers1052/stock-watchlist/internal/models"
)

// EventRepository defines the database operations for the watchlist audit trail
type EventRepository interface {
	CreateWatchlistEvent(ctx context.Context, e *models.WatchlistEventRecord) error
	WatchlistEventExists(ctx context.Context, eventID string) (bool, error)
}

// messageReader is the subset of *kafka.Reader the consumer uses
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
	Config() kafka.ReaderConfig
}

// Consumer stores watchlist events from Kafka as an audit trail.
// Redelivered events are detected by event ID and skipped.
type Consumer struct {
	reader  messageReader
	repo    EventRepository
	metrics *metrics.Recorder
	logger  zerolog.Logger
}

// NewConsumer creates a new Kafka consumer for watchlist events
func NewConsumer(brokers []string, topic, groupID string, repo EventRepository, rec *metrics.Recorder, logger zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:  reader,
		repo:    repo,
		metrics: rec,
		logger:  logger,
	}
}

// Start begins consuming messages until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info().Str("topic", c.reader.Config().Topic).Msg("starting kafka consumer")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("kafka consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.logger.Info().Msg("kafka consumer shutting down")
					return c.reader.Close()
				}
				c.logger.Error().Err(err).Msg("error reading message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.metrics.RecordEventConsumed("error")
				c.logger.Error().Err(err).
					Int("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("error processing message")
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	c.logger.Debug().
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Str("key", string(msg.Key)).
		Msg("received message")

	var event models.WatchlistEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal watchlist event: %w", err)
	}

	switch event.EventType {
	case models.EventWatchlistStockAdded, models.EventWatchlistStockRemoved:
	default:
		c.logger.Debug().Str("event_type", event.EventType).Msg("ignoring event type")
		c.metrics.RecordEventConsumed("ignored")
		return nil
	}

	if event.EventID == "" {
		return fmt.Errorf("watchlist event for %s has no event_id", event.Ticker)
	}

	exists, err := c.repo.WatchlistEventExists(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate event: %w", err)
	}
	if exists {
		c.logger.Debug().Str("event_id", event.EventID).Msg("event already stored, skipping")
		c.metrics.RecordEventConsumed("duplicate")
		return nil
	}

	record := &models.WatchlistEventRecord{
		EventID:    event.EventID,
		EventType:  event.EventType,
		UserID:     event.UserID,
		Ticker:     models.NormalizeTicker(event.Ticker),
		Snapshot:   event.Snapshot,
		OccurredAt: event.Timestamp,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = msg.Time
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now().UTC()
	}

	if err := c.repo.CreateWatchlistEvent(ctx, record); err != nil {
		return fmt.Errorf("failed to save watchlist event: %w", err)
	}

	c.metrics.RecordEventConsumed("stored")
	c.logger.Info().
		Str("event_type", record.EventType).
		Int64("user_id", record.UserID).
		Str("ticker", record.Ticker).
		Msg("stored watchlist event")

	return nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
