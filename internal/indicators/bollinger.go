package indicators

import "math"

// BollingerValue is the latest Bollinger band point
type BollingerValue struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger computes the latest bands: the SMA of the last `period` closes
// plus and minus stdDev population standard deviations. A series shorter
// than the period uses every close as the window.
func Bollinger(closes []float64, period int, stdDev float64) BollingerValue {
	if len(closes) == 0 || period <= 0 {
		return BollingerValue{}
	}
	if period > len(closes) {
		period = len(closes)
	}

	window := closes[len(closes)-period:]
	mean := SMA(window, period)

	variance := 0.0
	for _, c := range window {
		d := c - mean
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))

	return BollingerValue{
		Upper:  mean + stdDev*sd,
		Middle: mean,
		Lower:  mean - stdDev*sd,
	}
}
