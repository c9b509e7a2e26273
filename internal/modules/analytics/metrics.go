// Package analytics computes rolling per-symbol metrics (moving average,
// volatility, Sharpe ratio) and benchmarks the two computation kernels and
// three concurrency strategies against each other.
package analytics

import "math"

// EquivalenceTolerance is the maximum absolute difference allowed between
// two routes to the same rolling series before they count as divergent.
const EquivalenceTolerance = 1e-9

// Metrics holds the rolling series for one symbol. Every series is aligned
// index-for-index with the input prices; entries before the window has
// enough observations carry 0.
type Metrics struct {
	Symbol string    `json:"symbol" msgpack:"symbol"`
	SMA    []float64 `json:"sma" msgpack:"sma"`
	Vol    []float64 `json:"vol" msgpack:"vol"`
	Sharpe []float64 `json:"sharpe" msgpack:"sharpe"`
}

// DefinedFrom returns the first index where SMA and Vol carry real values:
// a full window needs `window` prices.
func DefinedFrom(window int) int { return window - 1 }

// SharpeDefinedFrom returns the first index where Sharpe carries a real
// value. Returns only start at the second price, so the first full window
// of returns completes one index after the price-based series.
func SharpeDefinedFrom(window int) int { return window }

// Engine is one rolling computation kernel. Compute returns the metrics for
// a single ascending price series; Symbol is filled in by the caller.
type Engine interface {
	Name() string
	Compute(prices []float64, window int) Metrics
}

// safeRatio guards mean/std: a zero or non-finite quotient collapses to 0,
// the same convention the undefined leading region uses.
func safeRatio(mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	r := mean / std
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func zeroMetrics(n int) Metrics {
	return Metrics{
		SMA:    make([]float64, n),
		Vol:    make([]float64, n),
		Sharpe: make([]float64, n),
	}
}
