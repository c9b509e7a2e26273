package ingest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileComparesEngines(t *testing.T) {
	path := generatedDataset(t)

	results, idx, err := Profile(context.Background(), allEngines(), path, 2, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, idx)
	require.Len(t, results, 3)

	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, idx.Symbols())
	assert.Equal(t, 120, idx.NumRecords())

	for _, r := range results {
		assert.Equal(t, 120, r.Rows)
		assert.Equal(t, 2, r.Runs)
		assert.Greater(t, r.AvgLoadMS, 0.0)
		assert.LessOrEqual(t, r.MinLoadMS, r.AvgLoadMS)
		assert.GreaterOrEqual(t, r.MaxLoadMS, r.AvgLoadMS)
	}

	names := []string{results[0].Engine, results[1].Engine, results[2].Engine}
	assert.Equal(t, []string{"rows", "columnar", "sql"}, names)
}

func TestProfileMissingDataset(t *testing.T) {
	_, _, err := Profile(context.Background(), allEngines(), "/nonexistent/data.csv", 1, zerolog.Nop())
	assert.Error(t, err)
}

func TestProfileCancelledContext(t *testing.T) {
	path := generatedDataset(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Profile(ctx, allEngines(), path, 1, zerolog.Nop())
	assert.ErrorIs(t, err, context.Canceled)
}
