package quotes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"

	wmodels "github.com/trogers1052/stock-watchlist/internal/models"
)

// PolygonSource implements Source using the Polygon.io REST API
type PolygonSource struct {
	client *polygon.Client
}

// NewPolygonSource creates a Polygon.io source
func NewPolygonSource(apiKey string) *PolygonSource {
	return &PolygonSource{client: polygon.New(apiKey)}
}

// NewPolygonSourceWithClient creates a Polygon.io source that sends requests
// through hc
func NewPolygonSourceWithClient(apiKey string, hc *http.Client) *PolygonSource {
	return &PolygonSource{client: polygon.NewWithClient(apiKey, hc)}
}

func (s *PolygonSource) Name() string { return "polygon" }

// FetchHistory returns adjusted daily closes between from and to
func (s *PolygonSource) FetchHistory(ctx context.Context, ticker string, from, to time.Time) (wmodels.PriceSeries, error) {
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Timespan("day"),
		From:       models.Millis(from),
		To:         models.Millis(to),
	}.
		WithAdjusted(true).
		WithOrder(models.Order("asc")).
		WithLimit(5000)

	it := s.client.ListAggs(ctx, params)

	var bars wmodels.PriceSeries
	for it.Next() {
		agg := it.Item()
		bars = append(bars, wmodels.PriceBar{
			Date:  time.Time(agg.Timestamp).UTC(),
			Close: decimal.NewFromFloat(agg.Close),
		})
	}
	if err := it.Err(); err != nil {
		return nil, polygonError(ctx, "polygon aggregates", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: polygon returned no aggregates for %s", ErrNoData, ticker)
	}

	return normalizeSeries(bars), nil
}

// FetchSummary combines ticker details (name, type) with the ticker snapshot
// (latest price). Either half may be missing; the summary is then partial.
func (s *PolygonSource) FetchSummary(ctx context.Context, ticker string) (*wmodels.QuoteSummary, error) {
	summary := &wmodels.QuoteSummary{}

	details, detailsErr := s.client.GetTickerDetails(ctx, &models.GetTickerDetailsParams{
		Ticker: ticker,
	})
	if detailsErr == nil {
		summary.Symbol = stringPtr(details.Results.Ticker)
		summary.LongName = stringPtr(details.Results.Name)
		summary.QuoteType = stringPtr(details.Results.Type)
	}

	snap, snapErr := s.client.GetTickerSnapshot(ctx, &models.GetTickerSnapshotParams{
		Ticker:     ticker,
		Locale:     "us",
		MarketType: "stocks",
	})
	if snapErr == nil {
		price := snap.Snapshot.LastTrade.Price
		if price == 0 {
			price = snap.Snapshot.Day.Close
		}
		if price != 0 {
			p := decimal.NewFromFloat(price)
			summary.RegularMarketPrice = &p
		}
	}

	if detailsErr != nil && snapErr != nil {
		return nil, polygonError(ctx, "polygon summary", detailsErr)
	}
	return summary, nil
}

// polygonError classifies a client error. A cancelled caller is returned as
// the bare context error so it never counts against the provider.
func polygonError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
	var apiErr *models.ErrorResponse
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s: %w", ErrNoData, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, op, err)
}
