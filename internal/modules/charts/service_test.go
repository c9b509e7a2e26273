package charts

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleChart() Chart {
	return Chart{
		Name:  "ingestion_time",
		Title: "Data Ingestion Time (Lower is Better)",
		Unit:  "ms",
		Points: []ChartDataPoint{
			{Time: "rows", Value: 12.5},
			{Time: "columnar", Value: 8.25},
			{Time: "sql", Value: 40.125},
		},
	}
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	svc := NewService(zerolog.Nop())
	dir := t.TempDir()

	path, err := svc.Write(dir, sampleChart())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ingestion_time.json"), path)

	got, err := svc.Load(dir, "ingestion_time")
	require.NoError(t, err)
	assert.Equal(t, sampleChart(), *got)
}

func TestWriteRejectsUnsafeNames(t *testing.T) {
	svc := NewService(zerolog.Nop())
	dir := t.TempDir()

	for _, name := range []string{"", "../escape", "has space", "Upper", "dot.dot"} {
		chart := sampleChart()
		chart.Name = name
		_, err := svc.Write(dir, chart)
		assert.Error(t, err, "name %q must be rejected", name)
	}
}

func TestLoadRejectsUnsafeNames(t *testing.T) {
	svc := NewService(zerolog.Nop())

	_, err := svc.Load(t.TempDir(), "../../etc/passwd")
	assert.Error(t, err)
}

func TestLoadMissingChart(t *testing.T) {
	svc := NewService(zerolog.Nop())

	_, err := svc.Load(t.TempDir(), "absent")
	assert.Error(t, err)
}

func TestWriteAllAndList(t *testing.T) {
	svc := NewService(zerolog.Nop())
	dir := t.TempDir()

	second := sampleChart()
	second.Name = "aggregation_strategies"

	paths, err := svc.WriteAll(dir, []Chart{sampleChart(), second})
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	names, err := svc.List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"aggregation_strategies", "ingestion_time"}, names)
}

func TestListMissingDir(t *testing.T) {
	svc := NewService(zerolog.Nop())

	names, err := svc.List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, names)
}
