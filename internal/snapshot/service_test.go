package snapshot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/stock-watchlist/internal/indicators"
	"github.com/trogers1052/stock-watchlist/internal/metrics"
	"github.com/trogers1052/stock-watchlist/internal/models"
	"github.com/trogers1052/stock-watchlist/internal/quotes"
)

type mockSource struct {
	series     models.PriceSeries
	summary    *models.QuoteSummary
	historyErr error
	summaryErr error

	gotTicker   string
	gotFrom     time.Time
	gotTo       time.Time
	hadDeadline bool
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) FetchHistory(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error) {
	m.gotTicker = ticker
	m.gotFrom = from
	m.gotTo = to
	_, m.hadDeadline = ctx.Deadline()
	return m.series, m.historyErr
}

func (m *mockSource) FetchSummary(ctx context.Context, ticker string) (*models.QuoteSummary, error) {
	return m.summary, m.summaryErr
}

func newTestService(src quotes.Source, timeout time.Duration) *Service {
	svc := NewService(src, metrics.New(prometheus.NewRegistry()), zerolog.Nop(), timeout)
	svc.now = func() time.Time { return time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestService_Snapshot(t *testing.T) {
	src := &mockSource{
		series:  risingSeries(60),
		summary: &models.QuoteSummary{LongName: strPtr("Microsoft Corporation")},
	}
	svc := newTestService(src, 5*time.Second)

	snap, err := svc.Snapshot(context.Background(), "msft", indicators.DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, "MSFT", src.gotTicker)
	assert.Equal(t, HistoryWindow, src.gotTo.Sub(src.gotFrom))
	assert.True(t, src.hadDeadline)
	assert.Equal(t, "MSFT", snap.General.Ticker)
	assert.Equal(t, "Microsoft Corporation", *snap.General.FullName)
}

func TestService_Snapshot_HistoryErrors(t *testing.T) {
	for _, want := range []error{quotes.ErrNoData, quotes.ErrSourceUnavailable} {
		src := &mockSource{historyErr: fmt.Errorf("%w: test", want)}
		svc := newTestService(src, 0)

		_, err := svc.Snapshot(context.Background(), "AAPL", indicators.DefaultParams())
		assert.ErrorIs(t, err, want)
		assert.False(t, src.hadDeadline)
	}
}

func TestService_Snapshot_EmptyHistory(t *testing.T) {
	svc := newTestService(&mockSource{series: models.PriceSeries{}}, 0)

	_, err := svc.Snapshot(context.Background(), "AAPL", indicators.DefaultParams())
	assert.ErrorIs(t, err, quotes.ErrNoData)
}

func TestService_Snapshot_SummaryFailureIsPartial(t *testing.T) {
	src := &mockSource{
		series:     risingSeries(60),
		summaryErr: fmt.Errorf("%w: summary down", quotes.ErrSourceUnavailable),
	}
	svc := newTestService(src, 0)

	snap, err := svc.Snapshot(context.Background(), "AAPL", indicators.DefaultParams())
	require.NoError(t, err)
	assert.Nil(t, snap.General.FullName)
	assert.Nil(t, snap.General.Price)
}

func TestService_Snapshot_Validation(t *testing.T) {
	svc := newTestService(&mockSource{series: risingSeries(60)}, 0)

	_, err := svc.Snapshot(context.Background(), "", indicators.DefaultParams())
	assert.ErrorIs(t, err, ErrEmptyTicker)

	params := indicators.DefaultParams()
	params.RSIPeriod = -1
	_, err = svc.Snapshot(context.Background(), "AAPL", params)
	assert.ErrorIs(t, err, indicators.ErrInvalidParams)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "no_data", outcome(fmt.Errorf("%w: x", quotes.ErrNoData)))
	assert.Equal(t, "circuit_open", outcome(quotes.ErrCircuitOpen))
	assert.Equal(t, "error", outcome(quotes.ErrSourceUnavailable))
	assert.Equal(t, "cancelled", outcome(context.DeadlineExceeded))
}

func TestService_Snapshot_OverflowingBandsAreInvalidParams(t *testing.T) {
	src := &mockSource{series: risingSeries(60)}
	svc := newTestService(src, 5*time.Second)

	params := indicators.DefaultParams()
	params.BBStdDev = 1e308

	snap, err := svc.Snapshot(context.Background(), "AAPL", params)
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, indicators.ErrInvalidParams)
}
