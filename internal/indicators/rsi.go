package indicators

// RSI calculates the Relative Strength Index of closes using Wilder's
// smoothing and returns the last value.
//
// The seed averages the first `period` price changes. When the series holds
// exactly `period` closes only period-1 changes exist and the seed uses all of
// them.
func RSI(closes []float64, period int) float64 {
	changes := len(closes) - 1
	if changes <= 0 || period <= 0 {
		return 50.0
	}

	seed := period
	if seed > changes {
		seed = changes
	}

	var avgGain, avgLoss float64
	for i := 1; i <= seed; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(seed)
	avgLoss /= float64(seed)

	p := float64(period)
	for i := seed + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
