package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantbench/internal/modules/charts"
)

func TestWriterProducesAllArtifacts(t *testing.T) {
	dir := t.TempDir()
	summary := sampleSummary()

	artifacts, err := NewWriter(zerolog.Nop()).Write(dir, summary)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ReportFile), artifacts.ReportPath)
	assert.Equal(t, filepath.Join(dir, ResultsFile), artifacts.ResultsPath)
	assert.Len(t, artifacts.ChartPaths, 5)

	md, err := os.ReadFile(artifacts.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Performance Comparison Report")

	data, err := os.ReadFile(artifacts.ResultsPath)
	require.NoError(t, err)
	var got Summary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, *summary, got)
}

func TestWriterChartArtifactsLoadBack(t *testing.T) {
	dir := t.TempDir()

	_, err := NewWriter(zerolog.Nop()).Write(dir, sampleSummary())
	require.NoError(t, err)

	svc := charts.NewService(zerolog.Nop())
	names, err := svc.List(filepath.Join(dir, ChartsDir))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"aggregation_strategies",
		"ingestion_memory",
		"ingestion_time",
		"rolling_time",
		"transform_strategies",
	}, names)

	chart, err := svc.Load(filepath.Join(dir, ChartsDir), "ingestion_time")
	require.NoError(t, err)
	require.Len(t, chart.Points, 3)
	assert.Equal(t, "rows", chart.Points[0].Time)
	assert.Equal(t, 12.5, chart.Points[0].Value)
}

func TestBuildChartsSkipsEmptySections(t *testing.T) {
	assert.Empty(t, BuildCharts(&Summary{}))

	only := BuildCharts(&Summary{Transform: sampleSummary().Transform})
	require.Len(t, only, 1)
	assert.Equal(t, "transform_strategies", only[0].Name)
}
