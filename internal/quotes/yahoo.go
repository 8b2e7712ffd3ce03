package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-watchlist/internal/models"
)

// DefaultYahooBaseURL is the public Yahoo Finance chart API host
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooConfig configures the Yahoo Finance source
type YahooConfig struct {
	BaseURL string
	Proxy   string
	Timeout time.Duration
}

// YahooSource implements Source using the Yahoo Finance v8 chart API
type YahooSource struct {
	client  *http.Client
	baseURL string
}

// NewYahooSource creates a Yahoo Finance source
func NewYahooSource(cfg YahooConfig) *YahooSource {
	transport := &http.Transport{}
	if cfg.Proxy != "" {
		if u, err := url.Parse(cfg.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultYahooBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &YahooSource{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL: cfg.BaseURL,
	}
}

func (s *YahooSource) Name() string { return "yahoo" }

// yahooChart is the response structure of the chart API
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				LongName           string   `json:"longName"`
				ShortName          string   `json:"shortName"`
				InstrumentType     string   `json:"instrumentType"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				GMTOffset          int64    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (s *YahooSource) fetchChart(ctx context.Context, ticker string, query url.Values) (*yahooChart, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", s.baseURL, url.PathEscape(ticker), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build yahoo request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// caller gave up; not a provider failure
			return nil, fmt.Errorf("yahoo fetch: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: yahoo fetch: %w", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo read body: %w", ErrSourceUnavailable, err)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: yahoo has no chart for %s", ErrNoData, ticker)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: yahoo status %d", ErrSourceUnavailable, resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: yahoo decode: %w", ErrSourceUnavailable, decodeErr)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: yahoo api error: %s", ErrNoData, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: yahoo returned no result for %s", ErrNoData, ticker)
	}
	return &chart, nil
}

// FetchHistory returns the daily closes between from and to
func (s *YahooSource) FetchHistory(ctx context.Context, ticker string, from, to time.Time) (models.PriceSeries, error) {
	chart, err := s.fetchChart(ctx, ticker, url.Values{
		"period1":  {strconv.FormatInt(from.Unix(), 10)},
		"period2":  {strconv.FormatInt(to.Unix(), 10)},
		"interval": {"1d"},
	})
	if err != nil {
		return nil, err
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: yahoo returned no quotes for %s", ErrNoData, ticker)
	}

	closes := result.Indicators.Quote[0].Close
	bars := make(models.PriceSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // null bars (holidays, halts)
		}
		bars = append(bars, models.PriceBar{
			Date:  time.Unix(ts+result.Meta.GMTOffset, 0).UTC(),
			Close: decimal.NewFromFloat(*closes[i]),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: yahoo returned only empty bars for %s", ErrNoData, ticker)
	}

	return normalizeSeries(bars), nil
}

// FetchSummary returns the quote metadata reported alongside the chart
func (s *YahooSource) FetchSummary(ctx context.Context, ticker string) (*models.QuoteSummary, error) {
	chart, err := s.fetchChart(ctx, ticker, url.Values{
		"range":    {"1d"},
		"interval": {"1d"},
	})
	if err != nil {
		return nil, err
	}

	meta := chart.Chart.Result[0].Meta
	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}

	summary := &models.QuoteSummary{
		Symbol:    stringPtr(meta.Symbol),
		LongName:  stringPtr(name),
		QuoteType: stringPtr(meta.InstrumentType),
	}
	if meta.RegularMarketPrice != nil {
		price := decimal.NewFromFloat(*meta.RegularMarketPrice)
		summary.RegularMarketPrice = &price
	}
	return summary, nil
}
