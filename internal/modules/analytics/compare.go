package analytics

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantbench/internal/marketdata"
	"github.com/aristath/quantbench/internal/utils"
)

// EngineResult summarizes one kernel's timed passes over the full index.
type EngineResult struct {
	Engine       string  `json:"engine"`
	Runs         int     `json:"runs"`
	AvgComputeMS float64 `json:"avg_compute_ms"`
	MinComputeMS float64 `json:"min_compute_ms"`
	MaxComputeMS float64 `json:"max_compute_ms"`
}

// EngineComparison is the outcome of racing the row and columnar kernels
// over the same index.
type EngineComparison struct {
	Window       int            `json:"window"`
	Symbols      int            `json:"symbols"`
	Results      []EngineResult `json:"results"`
	MaxDeviation float64        `json:"max_abs_deviation"`
}

// CompareEngines times every kernel over the whole index `runs` times and
// records the worst absolute disagreement across all series. The kernels
// are different routes to the same numbers; a deviation beyond
// EquivalenceTolerance means one of them is wrong.
func CompareEngines(ctx context.Context, idx *marketdata.Index, window, runs int, log zerolog.Logger) (*EngineComparison, error) {
	if runs < 1 {
		runs = 1
	}
	log = log.With().Str("component", "analytics").Logger()

	engines := []Engine{RowEngine{}, ColumnarEngine{}}
	symbols := idx.Symbols()

	comparison := &EngineComparison{Window: window, Symbols: len(symbols)}
	outputs := make([][]Metrics, 0, len(engines))

	for _, engine := range engines {
		perf := &utils.PerformanceMetrics{OperationName: "rolling_" + engine.Name()}

		var last []Metrics
		for run := 0; run < runs; run++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			start := time.Now()
			out := make([]Metrics, 0, len(symbols))
			for _, sym := range symbols {
				m := engine.Compute(idx.History(sym), window)
				m.Symbol = sym
				out = append(out, m)
			}
			perf.Record(time.Since(start))
			last = out
		}

		perf.LogMetrics(log)
		outputs = append(outputs, last)
		comparison.Results = append(comparison.Results, EngineResult{
			Engine:       engine.Name(),
			Runs:         runs,
			AvgComputeMS: toMS(perf.AvgDuration()),
			MinComputeMS: toMS(perf.MinDuration),
			MaxComputeMS: toMS(perf.MaxDuration),
		})
	}

	for _, other := range outputs[1:] {
		if dev := maxDeviation(outputs[0], other); dev > comparison.MaxDeviation {
			comparison.MaxDeviation = dev
		}
	}
	if comparison.MaxDeviation > EquivalenceTolerance {
		log.Warn().
			Float64("deviation", comparison.MaxDeviation).
			Msg("Rolling kernels disagree beyond tolerance")
	}
	return comparison, nil
}

// maxDeviation returns the largest absolute difference between two engines'
// outputs, or +Inf when the shapes disagree.
func maxDeviation(a, b []Metrics) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var worst float64
	for i := range a {
		if a[i].Symbol != b[i].Symbol {
			return math.Inf(1)
		}
		for _, pair := range [][2][]float64{
			{a[i].SMA, b[i].SMA},
			{a[i].Vol, b[i].Vol},
			{a[i].Sharpe, b[i].Sharpe},
		} {
			x, y := pair[0], pair[1]
			if len(x) != len(y) {
				return math.Inf(1)
			}
			for j := range x {
				if d := math.Abs(x[j] - y[j]); d > worst {
					worst = d
				}
			}
		}
	}
	return worst
}

func toMS(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
