package harness

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantbench/internal/database"
	"github.com/aristath/quantbench/internal/modules/report"
)

func historyFixture(t *testing.T) *HistoryRepository {
	t.Helper()
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), HistoryFile),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewHistoryRepository(db, zerolog.Nop())
	require.NoError(t, err)
	return repo
}

func storedRun(id string, started time.Time) *RunSummary {
	return &RunSummary{
		RunID:       id,
		Scenario:    "default",
		StartedAt:   started,
		CompletedAt: started.Add(2 * time.Second),
		DurationMS:  2000,
		Report: report.Summary{
			RunID:    id,
			Scenario: "default",
			Rows:     2016,
			Symbols:  8,
			Window:   20,
		},
	}
}

func TestHistorySaveAndGet(t *testing.T) {
	repo := historyFixture(t)
	ctx := context.Background()

	run := storedRun("run-a", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, run))

	got, err := repo.Get(ctx, "run-a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, run.Report.Rows, got.Report.Rows)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))
}

func TestHistoryLatestPicksNewestRun(t *testing.T) {
	repo := historyFixture(t)
	ctx := context.Background()

	older := storedRun("run-old", time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	newer := storedRun("run-new", time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "run-new", latest.RunID)
}

func TestHistoryListNewestFirst(t *testing.T) {
	repo := historyFixture(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, repo.Save(ctx, storedRun(id, base.Add(time.Duration(i)*time.Hour))))
	}

	records, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "run-3", records[0].RunID)
	assert.Equal(t, "run-2", records[1].RunID)
	assert.Equal(t, "default", records[0].Scenario)
	assert.True(t, records[0].StartedAt.After(records[1].StartedAt))
}

func TestHistorySaveReplacesExistingRun(t *testing.T) {
	repo := historyFixture(t)
	ctx := context.Background()

	run := storedRun("run-a", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, run))
	run.DurationMS = 4000
	require.NoError(t, repo.Save(ctx, run))

	records, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 4000.0, records[0].DurationMS)
}

func TestHistoryGetUnknownRun(t *testing.T) {
	repo := historyFixture(t)

	got, err := repo.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)

	latest, err := repo.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestHistoryPing(t *testing.T) {
	repo := historyFixture(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
