// Package quotes fetches daily price history and quote metadata from
// external market data providers.
package quotes

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/trogers1052/stock-watchlist/internal/models"
)

var (
	// ErrNoData is returned when the source has no quotes for the ticker and range
	ErrNoData = errors.New("no quote data")
	// ErrSourceUnavailable is returned when the source cannot be reached or fails
	ErrSourceUnavailable = errors.New("quote source unavailable")
)

// Source is a provider of daily closes and quote summaries
type Source interface {
	FetchHistory(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error)
	FetchSummary(ctx context.Context, ticker string) (*models.QuoteSummary, error)
	Name() string
}

// normalizeSeries sorts bars ascending and keeps the last bar seen for each
// calendar day.
func normalizeSeries(bars models.PriceSeries) models.PriceSeries {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	out := make(models.PriceSeries, 0, len(bars))
	for _, bar := range bars {
		bar.Date = day(bar.Date)
		if n := len(out); n > 0 && out[n-1].Date.Equal(bar.Date) {
			out[n-1] = bar
			continue
		}
		out = append(out, bar)
	}
	return out
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
