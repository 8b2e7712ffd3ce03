package quotes

import (
	"context"
	"time"

	"github.com/trogers1052/stock-watchlist/internal/models"
)

// Guarded wraps a Source with a circuit breaker so a failing provider is not
// hammered by every request.
type Guarded struct {
	source  Source
	breaker *CircuitBreaker
}

// NewGuarded wraps source with breaker
func NewGuarded(source Source, breaker *CircuitBreaker) *Guarded {
	return &Guarded{source: source, breaker: breaker}
}

func (g *Guarded) Name() string { return g.source.Name() }

// FetchHistory calls the wrapped source through the breaker
func (g *Guarded) FetchHistory(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error) {
	var series models.PriceSeries
	err := g.breaker.Execute(func() error {
		var err error
		series, err = g.source.FetchHistory(ctx, ticker, from, to)
		return err
	})
	return series, err
}

// FetchSummary calls the wrapped source through the breaker
func (g *Guarded) FetchSummary(ctx context.Context, ticker string) (*models.QuoteSummary, error) {
	var summary *models.QuoteSummary
	err := g.breaker.Execute(func() error {
		var err error
		summary, err = g.source.FetchSummary(ctx, ticker)
		return err
	})
	return summary, err
}
