package quotes

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/stock-watchlist/internal/models"
)

// stubSource is a scripted Source for tests
type stubSource struct {
	historyCalls int
	summaryCalls int
	history      models.PriceSeries
	summary      *models.QuoteSummary
	err          error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FetchHistory(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error) {
	s.historyCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.history, nil
}

func (s *stubSource) FetchSummary(ctx context.Context, ticker string) (*models.QuoteSummary, error) {
	s.summaryCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

func TestGuarded_PassesThrough(t *testing.T) {
	name := "Apple Inc."
	stub := &stubSource{
		history: models.PriceSeries{{Date: time.Now(), Close: decimal.NewFromInt(100)}},
		summary: &models.QuoteSummary{LongName: &name},
	}
	g := NewGuarded(stub, NewCircuitBreaker(2, time.Minute))

	assert.Equal(t, "stub", g.Name())

	series, err := g.FetchHistory(context.Background(), "AAPL", time.Now().AddDate(-1, 0, 0), time.Now())
	require.NoError(t, err)
	assert.Len(t, series, 1)

	summary, err := g.FetchSummary(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", *summary.LongName)
}

func TestGuarded_StopsCallingFailingSource(t *testing.T) {
	stub := &stubSource{err: fmt.Errorf("%w: timeout", ErrSourceUnavailable)}
	g := NewGuarded(stub, NewCircuitBreaker(2, time.Minute))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := g.FetchHistory(ctx, "AAPL", time.Now(), time.Now())
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	}

	_, err := g.FetchSummary(ctx, "AAPL")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, stub.historyCalls)
	assert.Equal(t, 0, stub.summaryCalls)
}

func TestGuarded_NoDataKeepsCircuitClosed(t *testing.T) {
	stub := &stubSource{err: fmt.Errorf("%w: ZZZZ", ErrNoData)}
	g := NewGuarded(stub, NewCircuitBreaker(1, time.Minute))

	for i := 0; i < 3; i++ {
		_, err := g.FetchHistory(context.Background(), "ZZZZ", time.Now(), time.Now())
		assert.ErrorIs(t, err, ErrNoData)
	}
	assert.Equal(t, 3, stub.historyCalls)
}
