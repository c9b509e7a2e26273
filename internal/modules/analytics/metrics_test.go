package analytics

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantbench/internal/marketdata"
	"github.com/aristath/quantbench/pkg/formulas"
)

func testIndex(t *testing.T) *marketdata.Index {
	t.Helper()
	records := marketdata.NewGenerator(7, zerolog.Nop()).
		Generate([]string{"AAPL", "JPM", "MSFT", "NVDA", "TSLA"}, 120)
	require.NotEmpty(t, records)
	return marketdata.BuildIndex(records)
}

func TestRowEngineSMAAndVol(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	m := RowEngine{}.Compute(prices, 3)

	assert.Equal(t, []float64{0, 0, 2, 3, 4}, m.SMA)
	for i, want := range []float64{0, 0, 1, 1, 1} {
		assert.InDelta(t, want, m.Vol[i], 1e-12, "vol[%d]", i)
	}
}

func TestRowEngineSharpeAlignment(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	m := RowEngine{}.Compute(prices, 3)

	// Returns only exist from the second price, so the first full window
	// of returns completes at index 3, one past the price-based series.
	assert.Equal(t, 2, DefinedFrom(3))
	assert.Equal(t, 3, SharpeDefinedFrom(3))
	assert.Zero(t, m.Sharpe[0])
	assert.Zero(t, m.Sharpe[1])
	assert.Zero(t, m.Sharpe[2])

	// returns {1, 0.5, 1/3}: mean 0.61111, sample std 0.34694.
	assert.InDelta(t, 1.76141, m.Sharpe[3], 1e-4)

	returns := formulas.CalculateReturns(prices)
	wantMean := formulas.Mean(returns[1:4])
	wantStd := formulas.StdDev(returns[1:4])
	assert.InDelta(t, wantMean/wantStd, m.Sharpe[4], 1e-12)
}

func TestEnginesZeroShortSeries(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14}

	for _, engine := range []Engine{RowEngine{}, ColumnarEngine{}} {
		m := engine.Compute(prices, 10)
		assert.Equal(t, make([]float64, 5), m.SMA, engine.Name())
		assert.Equal(t, make([]float64, 5), m.Vol, engine.Name())
		assert.Equal(t, make([]float64, 5), m.Sharpe, engine.Name())
	}
}

func TestEnginesConstantSeries(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 50
	}

	for _, engine := range []Engine{RowEngine{}, ColumnarEngine{}} {
		m := engine.Compute(prices, 20)
		assert.InDelta(t, 50, m.SMA[19], 1e-12, engine.Name())
		assert.InDelta(t, 50, m.SMA[29], 1e-12, engine.Name())
		// No movement means no deviation and an undefined Sharpe, which
		// collapses to 0.
		assert.Zero(t, m.Vol[29], engine.Name())
		assert.Zero(t, m.Sharpe[29], engine.Name())
	}
}

func TestEnginesWindowEqualsLength(t *testing.T) {
	prices := []float64{10, 20, 30, 40}

	for _, engine := range []Engine{RowEngine{}, ColumnarEngine{}} {
		m := engine.Compute(prices, 4)
		assert.InDelta(t, 25, m.SMA[3], 1e-12, engine.Name())
		assert.Greater(t, m.Vol[3], 0.0, engine.Name())
		// Four prices make only three returns, one short of a window.
		assert.Equal(t, make([]float64, 4), m.Sharpe, engine.Name())
	}
}

func TestColumnarMatchesRowEngine(t *testing.T) {
	idx := testIndex(t)

	for _, sym := range idx.Symbols() {
		prices := idx.History(sym)
		row := RowEngine{}.Compute(prices, 20)
		col := ColumnarEngine{}.Compute(prices, 20)

		dev := maxDeviation([]Metrics{row}, []Metrics{col})
		assert.LessOrEqual(t, dev, EquivalenceTolerance, sym)
	}
}

func TestEnginesEmptyInput(t *testing.T) {
	for _, engine := range []Engine{RowEngine{}, ColumnarEngine{}} {
		m := engine.Compute(nil, 20)
		assert.Empty(t, m.SMA, engine.Name())
		assert.Empty(t, m.Vol, engine.Name())
		assert.Empty(t, m.Sharpe, engine.Name())
	}
}
