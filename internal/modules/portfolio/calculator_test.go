package portfolio

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantbench/internal/marketdata"
	"github.com/aristath/quantbench/pkg/formulas"
)

// testIndex builds an index where each symbol maps to a fixed price series,
// one observation per day ending 2024-03-01.
func testIndex(series map[string][]float64) *marketdata.Index {
	idx := marketdata.NewIndex()
	end := time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC)
	for symbol, prices := range series {
		for i, price := range prices {
			idx.Add(marketdata.Record{
				Timestamp: end.AddDate(0, 0, i-len(prices)+1),
				Symbol:    symbol,
				Price:     price,
			})
		}
	}
	return idx
}

func TestComputeValueFromLatestPrice(t *testing.T) {
	idx := testIndex(map[string][]float64{
		"AAPL": {100, 102, 101, 105},
	})
	calc := NewCalculator(idx, 3, zerolog.Nop())

	got := calc.Compute(Position{Symbol: "AAPL", Quantity: 10})

	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, 10.0, got.Quantity)
	assert.Equal(t, 1050.0, got.Value, "value = quantity * latest price")
}

func TestComputeMetricsMatchFormulas(t *testing.T) {
	prices := []float64{100, 102, 99, 104, 103, 108, 101}
	idx := testIndex(map[string][]float64{"NVDA": prices})
	calc := NewCalculator(idx, 3, zerolog.Nop())

	got := calc.Compute(Position{Symbol: "NVDA", Quantity: 2})

	assert.Equal(t, formulas.Round2(2*101), got.Value)
	assert.Equal(t, formulas.Round4(formulas.TrailingVolatility(prices, 3)), got.Volatility)
	assert.Equal(t, formulas.Round4(formulas.MaxDrawdown(prices)), got.Drawdown)
	assert.Less(t, got.Drawdown, 0.0)
	assert.Greater(t, got.Volatility, 0.0)
}

func TestComputeShortHistoryZeroVolatility(t *testing.T) {
	// A window of 3 needs 4 prices; exactly 3 must yield zero volatility
	// while value and drawdown still compute.
	idx := testIndex(map[string][]float64{"AAPL": {100, 90, 95}})
	calc := NewCalculator(idx, 3, zerolog.Nop())

	got := calc.Compute(Position{Symbol: "AAPL", Quantity: 1})

	assert.Equal(t, 0.0, got.Volatility)
	assert.Equal(t, 95.0, got.Value)
	assert.Equal(t, formulas.Round4(-0.1), got.Drawdown)
}

func TestComputeWindowBoundary(t *testing.T) {
	// window+1 prices is the first length with defined volatility.
	idx := testIndex(map[string][]float64{"MSFT": {100, 101, 99, 102}})
	calc := NewCalculator(idx, 3, zerolog.Nop())

	got := calc.Compute(Position{Symbol: "MSFT", Quantity: 1})
	assert.Greater(t, got.Volatility, 0.0)
}

func TestComputeMonotonicSeriesHasZeroDrawdown(t *testing.T) {
	idx := testIndex(map[string][]float64{"JPM": {100, 101, 102, 103, 104}})
	calc := NewCalculator(idx, 3, zerolog.Nop())

	got := calc.Compute(Position{Symbol: "JPM", Quantity: 1})
	assert.Equal(t, 0.0, got.Drawdown)
}

func TestComputeMissingSymbolZeroes(t *testing.T) {
	idx := testIndex(map[string][]float64{"AAPL": {100, 101}})
	calc := NewCalculator(idx, 3, zerolog.Nop())

	got := calc.Compute(Position{Symbol: "GONE", Quantity: 50})

	assert.Equal(t, Position{Symbol: "GONE", Quantity: 50}, got,
		"missing market data must zero the metrics, not fail the run")
}

func TestComputeRounding(t *testing.T) {
	idx := testIndex(map[string][]float64{"AAPL": {3.333333}})
	calc := NewCalculator(idx, 3, zerolog.Nop())

	got := calc.Compute(Position{Symbol: "AAPL", Quantity: 3})
	assert.Equal(t, 10.0, got.Value, "values round to cents")
}

func TestComputeAllOrdinalsMatchIndices(t *testing.T) {
	idx := testIndex(map[string][]float64{
		"AAPL": {100, 101},
		"MSFT": {200, 202},
	})
	calc := NewCalculator(idx, 3, zerolog.Nop())

	batch := []Position{
		{Symbol: "AAPL", Quantity: 1},
		{Symbol: "MSFT", Quantity: 1},
		{Symbol: "GONE", Quantity: 1},
	}
	computed := calc.ComputeAll(batch)

	require.Len(t, computed, 3)
	for i, c := range computed {
		assert.Equal(t, i, c.Ordinal)
		assert.Equal(t, batch[i].Symbol, c.Position.Symbol)
	}
	assert.Equal(t, 101.0, computed[0].Position.Value)
	assert.Equal(t, 202.0, computed[1].Position.Value)
	assert.Equal(t, 0.0, computed[2].Position.Value)
}
