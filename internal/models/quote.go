package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar is one daily close
type PriceBar struct {
	Date  time.Time       `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// PriceSeries is a daily close series, ascending by date with no duplicate days
type PriceSeries []PriceBar

// Closes returns the close prices as float64 in series order
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, bar := range s {
		closes[i] = bar.Close.InexactFloat64()
	}
	return closes
}

// QuoteSummary represents the latest quote metadata reported by a quote source.
// Nil fields were not reported.
type QuoteSummary struct {
	Symbol             *string          `json:"symbol,omitempty"`
	LongName           *string          `json:"longName,omitempty"`
	QuoteType          *string          `json:"quoteType,omitempty"`
	RegularMarketPrice *decimal.Decimal `json:"regularMarketPrice,omitempty"`
}
