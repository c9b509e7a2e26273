// Package formulas provides pure numeric formulas shared by the analytics
// engines and the portfolio calculator. All functions are side-effect free
// and safe for concurrent use.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation (n-1 divisor) of a slice
// of float64 values. Returns 0 for slices with fewer than two elements.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	sd := stat.StdDev(data, nil)
	if math.IsNaN(sd) {
		return 0
	}
	return sd
}

// Variance calculates the sample variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	v := stat.Variance(data, nil)
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// CalculateReturns converts prices to percentage returns
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
// A zero previous price yields a 0 return for that step.
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// Round2 rounds to two decimal places (monetary values).
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Round4 rounds to four decimal places (volatility and drawdown figures).
func Round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
