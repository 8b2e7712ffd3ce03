package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/stock-watchlist/internal/models"
)

type mockWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

func newTestProducer(w messageWriter) *Producer {
	return &Producer{
		writer: w,
		topic:  "watchlist-events",
		now:    func() time.Time { return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC) },
	}
}

func TestProducer_PublishStockAdded(t *testing.T) {
	w := &mockWriter{}
	p := newTestProducer(w)

	snap := &models.TickerSnapshot{General: models.General{Ticker: "AAPL"}}
	require.NoError(t, p.PublishStockAdded(context.Background(), 7, snap))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "7", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, models.EventWatchlistStockAdded, string(msg.Headers[0].Value))

	var event models.WatchlistEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, models.EventWatchlistStockAdded, event.EventType)
	assert.Equal(t, int64(7), event.UserID)
	assert.Equal(t, "AAPL", event.Ticker)
	require.NotNil(t, event.Snapshot)
	assert.Equal(t, "AAPL", event.Snapshot.General.Ticker)
	assert.True(t, event.Timestamp.Equal(time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)))
}

func TestProducer_PublishStockRemoved(t *testing.T) {
	w := &mockWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.PublishStockRemoved(context.Background(), 7, " msft "))
	require.NoError(t, p.PublishStockRemoved(context.Background(), 7, "MSFT"))

	require.Len(t, w.msgs, 2)
	var first, second models.WatchlistEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &first))
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &second))

	assert.Equal(t, models.EventWatchlistStockRemoved, first.EventType)
	assert.Equal(t, "MSFT", first.Ticker)
	assert.Nil(t, first.Snapshot)
	assert.NotEqual(t, first.EventID, second.EventID, "each event gets its own id")
}

func TestProducer_WriteError(t *testing.T) {
	p := newTestProducer(&mockWriter{err: errors.New("leader not available")})

	err := p.PublishStockRemoved(context.Background(), 1, "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write message to kafka")
}

func TestProducer_Close(t *testing.T) {
	w := &mockWriter{}
	require.NoError(t, newTestProducer(w).Close())
	assert.True(t, w.closed)
}
