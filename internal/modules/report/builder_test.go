package report

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/quantbench/internal/modules/analytics"
	"github.com/aristath/quantbench/internal/modules/ingest"
	"github.com/aristath/quantbench/internal/modules/portfolio"
)

func sampleSummary() *Summary {
	return &Summary{
		RunID:       "0f1e2d3c",
		Scenario:    "default",
		Dataset:     "data/market_data.csv",
		GeneratedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Symbols:     8,
		Rows:        2016,
		Window:      20,
		Runs:        3,
		Workers:     4,
		Positions:   21,
		Ingestion: []ingest.EngineResult{
			{Engine: "rows", Rows: 2016, Runs: 3, AvgLoadMS: 12.5, MinLoadMS: 11.2, MaxLoadMS: 14.1, PeakMiB: 18.2},
			{Engine: "columnar", Rows: 2016, Runs: 3, AvgLoadMS: 8.25, MinLoadMS: 7.9, MaxLoadMS: 8.8, PeakMiB: 12.6},
			{Engine: "sql", Rows: 2016, Runs: 3, AvgLoadMS: 40.125, MinLoadMS: 38.4, MaxLoadMS: 42.0, PeakMiB: 25.1},
		},
		Rolling: &analytics.EngineComparison{
			Window:  20,
			Symbols: 8,
			Results: []analytics.EngineResult{
				{Engine: "rows", Runs: 3, AvgComputeMS: 2.4, MinComputeMS: 2.2, MaxComputeMS: 2.7},
				{Engine: "columnar", Runs: 3, AvgComputeMS: 1.1, MinComputeMS: 1.0, MaxComputeMS: 1.3},
			},
			MaxDeviation: 3.2e-12,
		},
		Transform: []analytics.StrategyResult{
			{Strategy: "sequential", DurationMS: 3.2, MemoryMiB: 0.5},
			{Strategy: "goroutines", DurationMS: 1.4, MemoryMiB: 0.8},
			{Strategy: "processes", DurationMS: 22.8, MemoryMiB: 1.9},
		},
		Aggregation: []portfolio.StrategyResult{
			{Strategy: "sequential", DurationMS: 0.6, MemoryMiB: 0.1},
			{Strategy: "goroutines", DurationMS: 0.4, MemoryMiB: 0.2},
		},
		TotalValue:          125000.42,
		AggregateVolatility: 0.0231,
		MaxDrawdown:         -0.1875,
		StrategiesAgree:     true,
	}
}

func TestBuildReport(t *testing.T) {
	md := NewBuilder(zerolog.Nop()).Build(sampleSummary())

	assert.Contains(t, md, "# Performance Comparison Report")
	assert.Contains(t, md, "- Run: `0f1e2d3c`")
	assert.Contains(t, md, "- Dataset: `data/market_data.csv` (2016 rows, 8 symbols)")

	assert.Contains(t, md, "| 1. Ingestion | rows | 12.500 | 18.20 |")
	assert.Contains(t, md, "| 2. Rolling analytics | columnar | 1.100 | - |")
	assert.Contains(t, md, "| 3. Rolling transform | processes | 22.800 | 1.90 |")
	assert.Contains(t, md, "| 4. Portfolio aggregation | goroutines | 0.400 | 0.20 |")

	assert.Contains(t, md, "Fastest loader: **columnar** at 8.250 ms")
	assert.Contains(t, md, "Fastest kernel: **columnar** at 1.100 ms")
	assert.Contains(t, md, "The **goroutines** strategy finished first.")
	assert.Contains(t, md, "Total value: 125000.42")
	assert.Contains(t, md, "every strategy produced the same enriched tree")
	assert.NotContains(t, md, "Verification FAILED")
}

func TestBuildReportDivergentStrategies(t *testing.T) {
	s := sampleSummary()
	s.StrategiesAgree = false

	md := NewBuilder(zerolog.Nop()).Build(s)
	assert.Contains(t, md, "Verification FAILED")
}

func TestBuildReportEmptySections(t *testing.T) {
	s := &Summary{RunID: "empty", Scenario: "none", GeneratedAt: time.Now()}

	md := NewBuilder(zerolog.Nop()).Build(s)
	assert.Contains(t, md, "Not measured on this run.")
	assert.Contains(t, md, "## 3. Discussion of Tradeoffs")
}
