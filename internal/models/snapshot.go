package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CrossPosition reports which side of the signal line the MACD line sits on
type CrossPosition string

// Cross position constants
const (
	CrossUp   CrossPosition = "Up"
	CrossDown CrossPosition = "Down"
)

// MACDPoint is one point of the MACD series
type MACDPoint struct {
	MACDLine   decimal.Decimal `json:"macdLine"`
	SignalLine decimal.Decimal `json:"signalLine"`
	Histogram  decimal.Decimal `json:"histogram"`
}

// BollingerBands holds the latest Bollinger band values
type BollingerBands struct {
	Upper  decimal.Decimal `json:"upper"`
	Middle decimal.Decimal `json:"middle"`
	Lower  decimal.Decimal `json:"lower"`
}

// IndicatorSnapshot represents the technical indicators computed for a ticker at one point in time
type IndicatorSnapshot struct {
	RSI           decimal.Decimal `json:"rsi"`
	MACD          []MACDPoint     `json:"macd"`
	CrossPosition CrossPosition   `json:"crossPosition"`
	Bollinger     BollingerBands  `json:"bollinger"`
	SMA           decimal.Decimal `json:"sma"`
}

// General holds quote metadata for a ticker. Pointer fields are nil when
// the quote source did not report them.
type General struct {
	Ticker   string           `json:"ticker"`
	FullName *string          `json:"fullName,omitempty"`
	Type     *string          `json:"type,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
}

// TickerSnapshot combines quote metadata with frozen indicator values
type TickerSnapshot struct {
	General             General           `json:"general"`
	TechnicalIndicators IndicatorSnapshot `json:"technicalIndicators"`
}

// Key returns the identity used for watchlist de-duplication
func (s *TickerSnapshot) Key() string {
	return NormalizeTicker(s.General.Ticker)
}

// NormalizeTicker upper-cases and trims a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Watchlist is a user's ordered list of ticker snapshots, unique by normalized ticker
type Watchlist []TickerSnapshot

// IndexOf returns the position of ticker in the list or -1
func (w Watchlist) IndexOf(ticker string) int {
	key := NormalizeTicker(ticker)
	for i := range w {
		if w[i].Key() == key {
			return i
		}
	}
	return -1
}

// Tickers returns the tickers in list order
func (w Watchlist) Tickers() []string {
	tickers := make([]string, 0, len(w))
	for i := range w {
		tickers = append(tickers, w[i].General.Ticker)
	}
	return tickers
}
