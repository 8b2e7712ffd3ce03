package indicators

// MACDValue is one point of the raw MACD series
type MACDValue struct {
	Line      float64
	Signal    float64
	Histogram float64
}

// MACD computes the MACD series with exponential averages for both the MACD
// line (fast EMA minus slow EMA) and the signal line (EMA of the MACD line).
// Points start where the signal line first exists; nil when the series is
// too short to produce one.
func MACD(closes []float64, fast, slow, signal int) []MACDValue {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	if fastEMA == nil || slowEMA == nil {
		return nil
	}

	start := fast
	if slow > start {
		start = slow
	}
	start--

	line := make([]float64, 0, len(closes)-start)
	for i := start; i < len(closes); i++ {
		line = append(line, fastEMA[i-(fast-1)]-slowEMA[i-(slow-1)])
	}

	signalEMA := EMA(line, signal)
	if signalEMA == nil {
		return nil
	}

	out := make([]MACDValue, len(signalEMA))
	for j, s := range signalEMA {
		l := line[j+signal-1]
		out[j] = MACDValue{Line: l, Signal: s, Histogram: l - s}
	}
	return out
}
