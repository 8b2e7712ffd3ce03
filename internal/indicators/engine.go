// Package indicators computes the technical indicator snapshot stored with a
// watchlist entry. Everything here is pure: the same closes and params always
// produce the same snapshot.
package indicators

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-watchlist/internal/models"
)

const (
	// MACDPoints is the number of trailing MACD points kept in a snapshot
	MACDPoints = 14
	// Precision is the number of decimal places kept for snapshot values
	Precision = 4
)

// Compute derives the indicator snapshot from an ascending close series.
//
// Params are validated first, then the series must hold at least RSIPeriod
// closes. MACD and Bollinger Bands are only computed once both checks pass.
func Compute(closes []float64, p Params) (*models.IndicatorSnapshot, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(closes) < p.RSIPeriod {
		return nil, &InsufficientDataError{Indicator: "RSI", Period: p.RSIPeriod, Have: len(closes)}
	}

	rsi := RSI(closes, p.RSIPeriod)
	sma := SMA(closes, p.RSIPeriod)
	if !finite(rsi, sma) {
		return nil, fmt.Errorf("%w: RSI/SMA over %d closes is not a finite number", ErrInvalidParams, p.RSIPeriod)
	}

	series := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	if len(series) > MACDPoints {
		series = series[len(series)-MACDPoints:]
	}
	for _, v := range series {
		if !finite(v.Line, v.Signal, v.Histogram) {
			return nil, fmt.Errorf("%w: MACD %d/%d/%d is not a finite number", ErrInvalidParams, p.MACDFast, p.MACDSlow, p.MACDSignal)
		}
	}

	bb := Bollinger(closes, p.BBPeriod, p.BBStdDev)
	if !finite(bb.Upper, bb.Middle, bb.Lower) {
		return nil, fmt.Errorf("%w: %s %g overflows the Bollinger bands", ErrInvalidParams, ParamBBStdDev, p.BBStdDev)
	}

	snap := &models.IndicatorSnapshot{
		RSI:  round(rsi),
		SMA:  round(sma),
		MACD: make([]models.MACDPoint, 0, len(series)),
	}
	for _, v := range series {
		snap.MACD = append(snap.MACD, models.MACDPoint{
			MACDLine:   round(v.Line),
			SignalLine: round(v.Signal),
			Histogram:  round(v.Histogram),
		})
	}
	snap.CrossPosition = CrossPositionOf(snap.MACD)
	snap.Bollinger = models.BollingerBands{
		Upper:  round(bb.Upper),
		Middle: round(bb.Middle),
		Lower:  round(bb.Lower),
	}

	return snap, nil
}

// ComputeSeries runs Compute over the closes of a price series
func ComputeSeries(series models.PriceSeries, p Params) (*models.IndicatorSnapshot, error) {
	return Compute(series.Closes(), p)
}

// CrossPositionOf is Up when the most recent histogram value is strictly
// positive and Down otherwise, including for an empty series.
func CrossPositionOf(points []models.MACDPoint) models.CrossPosition {
	if len(points) == 0 {
		return models.CrossDown
	}
	if points[len(points)-1].Histogram.IsPositive() {
		return models.CrossUp
	}
	return models.CrossDown
}

// finite reports whether every value can be represented as a decimal
func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// round expects a finite value; decimal.NewFromFloat panics on NaN and Inf
func round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(Precision)
}
