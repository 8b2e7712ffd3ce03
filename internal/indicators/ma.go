package indicators

// SMA computes the simple moving average of the last `period` values.
// Returns 0 when period is not positive or exceeds the data.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period)
}

// EMA computes the exponential moving average series of values.
//
// The first value is the SMA of the first `period` values and corresponds to
// values[period-1]; every later value uses multiplier 2/(period+1). Returns
// nil when there are fewer than `period` values.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	multiplier := 2.0 / float64(period+1)
	out := make([]float64, 0, len(values)-period+1)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	current := sum / float64(period)
	out = append(out, current)

	for i := period; i < len(values); i++ {
		current = (values[i] * multiplier) + (current * (1 - multiplier))
		out = append(out, current)
	}
	return out
}
