package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/trogers1052/stock-watchlist/internal/models"
)

// messageWriter is the subset of *kafka.Writer the producer uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing watchlist events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewProducer creates a new Kafka producer. Messages are keyed by user ID
// so one user's events stay ordered within a partition.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
		now:    time.Now,
	}
}

// PublishStockAdded publishes a watchlist stock added event
func (p *Producer) PublishStockAdded(ctx context.Context, userID int64, snapshot *models.TickerSnapshot) error {
	event := models.WatchlistEvent{
		EventID:   uuid.NewString(),
		EventType: models.EventWatchlistStockAdded,
		UserID:    userID,
		Ticker:    snapshot.Key(),
		Snapshot:  snapshot,
		Timestamp: p.now().UTC(),
	}
	return p.publish(ctx, event)
}

// PublishStockRemoved publishes a watchlist stock removed event
func (p *Producer) PublishStockRemoved(ctx context.Context, userID int64, ticker string) error {
	event := models.WatchlistEvent{
		EventID:   uuid.NewString(),
		EventType: models.EventWatchlistStockRemoved,
		UserID:    userID,
		Ticker:    models.NormalizeTicker(ticker),
		Timestamp: p.now().UTC(),
	}
	return p.publish(ctx, event)
}

func (p *Producer) publish(ctx context.Context, event models.WatchlistEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.UserID, 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
