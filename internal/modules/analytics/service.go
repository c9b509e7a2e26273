package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantbench/internal/marketdata"
	"github.com/aristath/quantbench/internal/utils"
)

// Service wires the concurrency strategies over one price index and exposes
// the profiling entry points used by the harness.
type Service struct {
	idx     *marketdata.Index
	window  int
	workers int
	log     zerolog.Logger
}

// NewService creates a new analytics service
func NewService(idx *marketdata.Index, window, workers int, log zerolog.Logger) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		idx:     idx,
		window:  window,
		workers: workers,
		log:     log.With().Str("service", "analytics").Logger(),
	}
}

// StrategyResult is one strategy's outcome over a profiled run.
type StrategyResult struct {
	Strategy   string  `json:"strategy"`
	DurationMS float64 `json:"duration_ms"`
	MemoryMiB  float64 `json:"memory_mib"` // RSS growth while the strategy ran

	Metrics []Metrics `json:"-"` // full output, kept for verification
}

// Strategies builds the strategy set for a profiling pass: the sequential
// baseline, the goroutine pool, and optionally the process pool.
func (s *Service) Strategies(includeProcesses bool) ([]Strategy, error) {
	strategies := []Strategy{
		NewSequential(s.window, s.log),
		NewWorkerPool(s.window, s.workers, s.log),
	}

	if includeProcesses {
		pp, err := NewProcessPool(s.window, s.workers, s.log)
		if err != nil {
			return nil, fmt.Errorf("failed to build process pool: %w", err)
		}
		strategies = append(strategies, pp)
	}
	return strategies, nil
}

// Profile runs every strategy over the same index, measuring wall-clock time
// and memory growth for each.
func (s *Service) Profile(ctx context.Context, includeProcesses bool) ([]StrategyResult, error) {
	strategies, err := s.Strategies(includeProcesses)
	if err != nil {
		return nil, err
	}

	results := make([]StrategyResult, 0, len(strategies))
	for _, strat := range strategies {
		sampler := utils.NewMemorySampler(5 * time.Millisecond)
		sampler.Start()
		timer := utils.NewTimer("transform_"+strat.Name(), s.log)

		metrics, err := strat.Run(ctx, s.idx)

		elapsed := timer.Stop()
		mem := sampler.Stop()

		if err != nil {
			return nil, fmt.Errorf("strategy %s failed: %w", strat.Name(), err)
		}

		s.log.Info().
			Str("strategy", strat.Name()).
			Dur("duration", elapsed).
			Float64("memory_mib", mem.DeltaMiB()).
			Int("symbols", len(metrics)).
			Msg("Rolling transform strategy completed")

		results = append(results, StrategyResult{
			Strategy:   strat.Name(),
			DurationMS: float64(elapsed.Microseconds()) / 1000,
			MemoryMiB:  mem.DeltaMiB(),
			Metrics:    metrics,
		})
	}
	return results, nil
}

// VerifyStrategies checks that every strategy produced the same metrics as
// the first one, within EquivalenceTolerance. A divergence invalidates the
// timing comparison and is surfaced in the report.
func VerifyStrategies(results []StrategyResult) error {
	if len(results) < 2 {
		return nil
	}
	base := results[0]
	for _, other := range results[1:] {
		if err := sameMetrics(base.Metrics, other.Metrics); err != nil {
			return fmt.Errorf("strategy %s diverges from %s: %w", other.Strategy, base.Strategy, err)
		}
	}
	return nil
}

func sameMetrics(a, b []Metrics) error {
	if len(a) != len(b) {
		return fmt.Errorf("symbol count mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Symbol != b[i].Symbol {
			return fmt.Errorf("symbol order mismatch at %d: %q vs %q", i, a[i].Symbol, b[i].Symbol)
		}
		for _, series := range []struct {
			name string
			x, y []float64
		}{
			{"sma", a[i].SMA, b[i].SMA},
			{"vol", a[i].Vol, b[i].Vol},
			{"sharpe", a[i].Sharpe, b[i].Sharpe},
		} {
			if len(series.x) != len(series.y) {
				return fmt.Errorf("%s %s length mismatch: %d vs %d",
					a[i].Symbol, series.name, len(series.x), len(series.y))
			}
			for j := range series.x {
				if math.Abs(series.x[j]-series.y[j]) > EquivalenceTolerance {
					return fmt.Errorf("%s %s[%d] differs: %v vs %v",
						a[i].Symbol, series.name, j, series.x[j], series.y[j])
				}
			}
		}
	}
	return nil
}
