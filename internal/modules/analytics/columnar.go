package analytics

import (
	"math"

	"github.com/markcheno/go-talib"
)

// ColumnarEngine runs talib's vectorized kernels over whole price columns in
// single passes. talib's StdDev is the population deviation, so outputs are
// rescaled by sqrt(w/(w-1)) to the sample deviation the row engine produces.
type ColumnarEngine struct{}

// Name implements Engine
func (ColumnarEngine) Name() string { return "columnar" }

// Compute implements Engine
func (ColumnarEngine) Compute(prices []float64, window int) Metrics {
	n := len(prices)
	m := zeroMetrics(n)
	if window < 1 {
		return m
	}

	// talib kernels index past inputs shorter than the period, so short
	// columns keep their zeroed series.
	if n >= window {
		m.SMA = talib.Sma(prices, window)
		m.Vol = sampleStdDev(prices, window)
	}
	if n >= window+1 {
		returns := talib.Rocp(prices, 1)[1:]
		meanRet := talib.Sma(returns, window)
		stdRet := sampleStdDev(returns, window)
		for i := SharpeDefinedFrom(window); i < n; i++ {
			m.Sharpe[i] = safeRatio(meanRet[i-1], stdRet[i-1])
		}
	}
	return m
}

// sampleStdDev converts talib's population deviation to the sample form. A
// window below 2 has no sample deviation and yields all zeros.
func sampleStdDev(values []float64, window int) []float64 {
	out := talib.StdDev(values, window, 1.0)
	if window < 2 {
		for i := range out {
			out[i] = 0
		}
		return out
	}
	correction := math.Sqrt(float64(window) / float64(window-1))
	for i := range out {
		out[i] *= correction
	}
	return out
}
