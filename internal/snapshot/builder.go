// Package snapshot assembles per-ticker snapshot records from quote data and
// computed indicators.
package snapshot

import (
	"errors"
	"fmt"

	"github.com/trogers1052/stock-watchlist/internal/indicators"
	"github.com/trogers1052/stock-watchlist/internal/models"
	"github.com/trogers1052/stock-watchlist/internal/quotes"
)

// ErrEmptyTicker is returned when no ticker symbol was given
var ErrEmptyTicker = errors.New("ticker is required")

type computeFunc func(models.PriceSeries, indicators.Params) (*models.IndicatorSnapshot, error)

// Build combines summary metadata and indicators computed from series into a
// TickerSnapshot. An empty series fails with quotes.ErrNoData before any
// indicator is computed.
func Build(ticker string, summary *models.QuoteSummary, series models.PriceSeries, params indicators.Params) (*models.TickerSnapshot, error) {
	return build(indicators.ComputeSeries, ticker, summary, series, params)
}

func build(compute computeFunc, ticker string, summary *models.QuoteSummary, series models.PriceSeries, params indicators.Params) (*models.TickerSnapshot, error) {
	ticker = models.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, ErrEmptyTicker
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no price history for %s", quotes.ErrNoData, ticker)
	}

	technical, err := compute(series, params)
	if err != nil {
		return nil, err
	}

	general := models.General{Ticker: ticker}
	if summary != nil {
		general.FullName = summary.LongName
		general.Type = summary.QuoteType
		general.Price = summary.RegularMarketPrice
	}

	return &models.TickerSnapshot{
		General:             general,
		TechnicalIndicators: *technical,
	}, nil
}
