package analytics

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialOrdersBySymbol(t *testing.T) {
	idx := testIndex(t)

	out, err := NewSequential(20, zerolog.Nop()).Run(context.Background(), idx)
	require.NoError(t, err)
	require.Len(t, out, 5)

	for i, sym := range idx.Symbols() {
		assert.Equal(t, sym, out[i].Symbol)
		assert.Len(t, out[i].SMA, len(idx.History(sym)))
	}
}

func TestWorkerPoolMatchesSequential(t *testing.T) {
	idx := testIndex(t)

	seq, err := NewSequential(20, zerolog.Nop()).Run(context.Background(), idx)
	require.NoError(t, err)

	for _, workers := range []int{1, 2, 8} {
		pool := NewWorkerPool(20, workers, zerolog.Nop())
		got, err := pool.Run(context.Background(), idx)
		require.NoError(t, err)
		assert.Equal(t, seq, got, "worker pool with %d workers", workers)
	}
}

func TestStrategiesCancelledContext(t *testing.T) {
	idx := testIndex(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	strategies := []Strategy{
		NewSequential(20, zerolog.Nop()),
		NewWorkerPool(20, 4, zerolog.Nop()),
	}
	for _, strat := range strategies {
		_, err := strat.Run(ctx, idx)
		assert.Error(t, err, strat.Name())
	}
}

func TestVerifyStrategiesAcceptsIdenticalRuns(t *testing.T) {
	idx := testIndex(t)

	first, err := NewSequential(20, zerolog.Nop()).Run(context.Background(), idx)
	require.NoError(t, err)
	second, err := NewWorkerPool(20, 4, zerolog.Nop()).Run(context.Background(), idx)
	require.NoError(t, err)

	results := []StrategyResult{
		{Strategy: "sequential", Metrics: first},
		{Strategy: "goroutines", Metrics: second},
	}
	assert.NoError(t, VerifyStrategies(results))
}

func TestVerifyStrategiesDetectsDivergence(t *testing.T) {
	idx := testIndex(t)

	first, err := NewSequential(20, zerolog.Nop()).Run(context.Background(), idx)
	require.NoError(t, err)
	second, err := NewSequential(20, zerolog.Nop()).Run(context.Background(), idx)
	require.NoError(t, err)

	second[2].Sharpe[40] += 1e-6

	err = VerifyStrategies([]StrategyResult{
		{Strategy: "sequential", Metrics: first},
		{Strategy: "goroutines", Metrics: second},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sharpe")
}

func TestVerifyStrategiesSingleResult(t *testing.T) {
	assert.NoError(t, VerifyStrategies(nil))
	assert.NoError(t, VerifyStrategies([]StrategyResult{{Strategy: "sequential"}}))
}
