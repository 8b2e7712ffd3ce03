package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/trogers1052/stock-watchlist/internal/indicators"
	"github.com/trogers1052/stock-watchlist/internal/metrics"
	"github.com/trogers1052/stock-watchlist/internal/models"
	"github.com/trogers1052/stock-watchlist/internal/quotes"
)

// HistoryWindow is how far back price history is fetched
const HistoryWindow = 365 * 24 * time.Hour

// Service fetches quote data for a ticker and builds its snapshot
type Service struct {
	source  quotes.Source
	metrics *metrics.Recorder
	logger  zerolog.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewService creates a snapshot service. A zero timeout leaves the request
// context as the only deadline.
func NewService(source quotes.Source, rec *metrics.Recorder, logger zerolog.Logger, timeout time.Duration) *Service {
	return &Service{
		source:  source,
		metrics: rec,
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

// Snapshot fetches one year of daily closes plus the quote summary and builds
// the ticker's snapshot. A failed summary lookup yields partial metadata.
func (s *Service) Snapshot(ctx context.Context, ticker string, params indicators.Params) (*models.TickerSnapshot, error) {
	ticker = models.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, ErrEmptyTicker
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	to := s.now()
	from := to.Add(-HistoryWindow)

	start := time.Now()
	series, err := s.source.FetchHistory(ctx, ticker, from, to)
	s.metrics.RecordQuoteFetch(s.source.Name(), "history", outcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	start = time.Now()
	summary, err := s.source.FetchSummary(ctx, ticker)
	s.metrics.RecordQuoteFetch(s.source.Name(), "summary", outcome(err), time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("quote summary unavailable, continuing with partial metadata")
		summary = nil
	}

	start = time.Now()
	snap, err := Build(ticker, summary, series, params)
	s.metrics.RecordCompute(time.Since(start))
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("ticker", ticker).
		Int("bars", len(series)).
		Str("cross", string(snap.TechnicalIndicators.CrossPosition)).
		Msg("built snapshot")
	return snap, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, quotes.ErrNoData):
		return "no_data"
	case errors.Is(err, quotes.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
