// Package report renders a benchmark run into its on-disk artifacts: the
// markdown comparison report, the machine-readable results.json and the
// chart data consumed by the API.
package report

import (
	"time"

	"github.com/aristath/quantbench/internal/modules/analytics"
	"github.com/aristath/quantbench/internal/modules/ingest"
	"github.com/aristath/quantbench/internal/modules/portfolio"
)

// Summary is the full measured outcome of one benchmark run, in the order
// the report presents it.
type Summary struct {
	RunID       string    `json:"run_id"`
	Scenario    string    `json:"scenario"`
	Dataset     string    `json:"dataset"`
	GeneratedAt time.Time `json:"generated_at"`

	Symbols   int `json:"symbols"`
	Rows      int `json:"rows"`
	Window    int `json:"window"`
	Runs      int `json:"runs"`
	Workers   int `json:"workers"`
	Positions int `json:"positions"`

	Ingestion   []ingest.EngineResult       `json:"ingestion"`
	Rolling     *analytics.EngineComparison `json:"rolling"`
	Transform   []analytics.StrategyResult  `json:"transform_strategies"`
	Aggregation []portfolio.StrategyResult  `json:"aggregation_strategies"`

	TotalValue          float64 `json:"total_value"`
	AggregateVolatility float64 `json:"aggregate_volatility"`
	MaxDrawdown         float64 `json:"max_drawdown"`
	StrategiesAgree     bool    `json:"strategies_agree"`
}
