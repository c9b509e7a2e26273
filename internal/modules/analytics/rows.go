package analytics

import "github.com/aristath/quantbench/pkg/formulas"

// RowEngine recomputes each window with the scalar helpers in pkg/formulas,
// walking the series point by point the way a row-oriented pipeline would.
type RowEngine struct{}

// Name implements Engine
func (RowEngine) Name() string { return "rows" }

// Compute implements Engine
func (RowEngine) Compute(prices []float64, window int) Metrics {
	n := len(prices)
	if window < 1 {
		return zeroMetrics(n)
	}

	m := Metrics{
		SMA:    formulas.RollingMean(prices, window),
		Vol:    formulas.RollingStdDev(prices, window),
		Sharpe: make([]float64, n),
	}

	returns := formulas.CalculateReturns(prices)
	meanRet := formulas.RollingMean(returns, window)
	stdRet := formulas.RollingStdDev(returns, window)

	// returns[i-1] is the move into price i, so the return-based series
	// trail the price-based ones by one index.
	for i := SharpeDefinedFrom(window); i < n; i++ {
		m.Sharpe[i] = safeRatio(meanRet[i-1], stdRet[i-1])
	}
	return m
}
