package calculator

import (
	"errors"
	"math"
)

// DefaultRSIPeriod is the lookback of the momentum indicator, in samples.
const DefaultRSIPeriod = 14

// CalculateRSI computes a simple-average RSI over the last period closes, so
// the window holds period-1 deltas. Gains and losses are summed over the window
// and divided by period even when fewer samples are available.
func CalculateRSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(closes) < 2 {
		return 0, errors.New("not enough data for RSI calculation")
	}

	start := len(closes) - period
	if start < 0 {
		start = 0
	}
	window := closes[start:]

	var gains, losses float64
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change >= 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	// Zero losses return exactly 100. Pinning rs to 100 and applying the
	// formula would give 100-100/101 (about 99.01) instead.
	if avgLoss == 0 {
		return 100.0, nil
	}
	rs := avgGain / avgLoss
	rsi := 100.0 - 100.0/(1.0+rs)
	return math.Max(0, math.Min(100, rsi)), nil
}
