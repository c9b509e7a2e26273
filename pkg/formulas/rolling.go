package formulas

import "math"

// RollingMean computes the trailing moving average of values over the given
// window. The output has the same length as the input; entries before the
// window is full (the first window-1 slots) are 0.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window < 1 || len(values) < window {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RollingStdDev computes the trailing sample standard deviation of values
// over the given window. Same alignment as RollingMean: the first window-1
// entries are 0. A window below 2 has no defined sample deviation and
// yields all zeros.
func RollingStdDev(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window < 2 || len(values) < window {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		out[i] = StdDev(values[i-window+1 : i+1])
	}
	return out
}

// TrailingVolatility computes the sample standard deviation of the last
// `window` percent-change returns of a price series, evaluated at the most
// recent point. A series needs at least window+1 prices to produce window
// returns; anything shorter yields 0.
func TrailingVolatility(prices []float64, window int) float64 {
	if window < 1 {
		return 0
	}
	returns := CalculateReturns(prices)
	if len(returns) < window {
		return 0
	}
	sd := StdDev(returns[len(returns)-window:])
	if math.IsNaN(sd) {
		return 0
	}
	return sd
}
