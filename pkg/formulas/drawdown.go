package formulas

// MaxDrawdown calculates the worst peak-to-trough decline of a price
// series, expressed as a non-positive fraction of the running peak.
//
// Drawdown at each point:
//
//	(price - runningMax) / runningMax
//
// The result is the minimum over the full series: 0 for an empty series or
// a monotonically non-decreasing one, negative otherwise (-0.25 = 25% below
// the peak at the worst point).
func MaxDrawdown(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}

	maxDrawdown := 0.0
	peak := prices[0]

	for _, price := range prices {
		if price > peak {
			peak = price
		}

		if peak > 0 {
			drawdown := (price - peak) / peak
			if drawdown < maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}
