package portfolio

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantbench/internal/marketdata"
	"github.com/aristath/quantbench/internal/utils"
)

// EquivalenceTolerance is the maximum absolute difference allowed between
// two strategies' metrics before they count as divergent. Results are
// rounded before comparison, so any real divergence shows up far above
// this threshold.
const EquivalenceTolerance = 1e-9

// Service wires the aggregation strategies over one price index and exposes
// the profiling entry points used by the harness.
type Service struct {
	idx     *marketdata.Index
	window  int
	workers int
	log     zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(idx *marketdata.Index, window, workers int, log zerolog.Logger) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		idx:     idx,
		window:  window,
		workers: workers,
		log:     log.With().Str("service", "portfolio").Logger(),
	}
}

// StrategyResult is one strategy's outcome over a profiled run.
type StrategyResult struct {
	Strategy   string  `json:"strategy"`
	DurationMS float64 `json:"duration_ms"`
	MemoryMiB  float64 `json:"memory_mib"` // RSS growth while the strategy ran

	Tree *Node `json:"-"` // enriched result, kept for verification and reporting
}

// Strategies builds the strategy set for a profiling pass: the sequential
// baseline, the goroutine pool, and optionally the process pool.
func (s *Service) Strategies(includeProcesses bool) ([]Strategy, error) {
	calc := NewCalculator(s.idx, s.window, s.log)

	strategies := []Strategy{
		NewSequential(calc, s.log),
		NewWorkerPool(calc, s.workers, s.log),
	}

	if includeProcesses {
		pp, err := NewProcessPool(s.idx, s.window, s.workers, s.log)
		if err != nil {
			return nil, fmt.Errorf("failed to build process pool: %w", err)
		}
		strategies = append(strategies, pp)
	}
	return strategies, nil
}

// Profile runs every strategy over the same input tree, measuring wall-clock
// time and memory growth for each.
func (s *Service) Profile(ctx context.Context, root *Node, includeProcesses bool) ([]StrategyResult, error) {
	strategies, err := s.Strategies(includeProcesses)
	if err != nil {
		return nil, err
	}

	results := make([]StrategyResult, 0, len(strategies))
	for _, strat := range strategies {
		sampler := utils.NewMemorySampler(5 * time.Millisecond)
		sampler.Start()
		timer := utils.NewTimer("aggregate_"+strat.Name(), s.log)

		tree, err := strat.Run(ctx, root)

		elapsed := timer.Stop()
		mem := sampler.Stop()

		if err != nil {
			return nil, fmt.Errorf("strategy %s failed: %w", strat.Name(), err)
		}

		s.log.Info().
			Str("strategy", strat.Name()).
			Dur("duration", elapsed).
			Float64("memory_mib", mem.DeltaMiB()).
			Float64("total_value", tree.TotalValue).
			Msg("Aggregation strategy completed")

		results = append(results, StrategyResult{
			Strategy:   strat.Name(),
			DurationMS: float64(elapsed.Microseconds()) / 1000,
			MemoryMiB:  mem.DeltaMiB(),
			Tree:       tree,
		})
	}
	return results, nil
}

// VerifyEquivalence checks that every strategy produced the same enriched
// tree as the first one, within EquivalenceTolerance. A divergence
// invalidates the timing comparison and is surfaced in the report.
func VerifyEquivalence(results []StrategyResult) error {
	if len(results) < 2 {
		return nil
	}
	base := results[0]
	for _, other := range results[1:] {
		if err := equivalent(base.Tree, other.Tree); err != nil {
			return fmt.Errorf("strategy %s diverges from %s: %w", other.Strategy, base.Strategy, err)
		}
	}
	return nil
}

func equivalent(a, b *Node) error {
	if (a == nil) != (b == nil) {
		return fmt.Errorf("tree shape mismatch")
	}
	if a == nil {
		return nil
	}
	if a.Name != b.Name {
		return fmt.Errorf("node name mismatch: %q vs %q", a.Name, b.Name)
	}
	if len(a.Positions) != len(b.Positions) {
		return fmt.Errorf("node %q position count mismatch: %d vs %d", a.Name, len(a.Positions), len(b.Positions))
	}
	if len(a.Children) != len(b.Children) {
		return fmt.Errorf("node %q child count mismatch: %d vs %d", a.Name, len(a.Children), len(b.Children))
	}

	if err := closeEnough("total_value", a.TotalValue, b.TotalValue); err != nil {
		return fmt.Errorf("node %q: %w", a.Name, err)
	}
	if err := closeEnough("aggregate_volatility", a.AggregateVolatility, b.AggregateVolatility); err != nil {
		return fmt.Errorf("node %q: %w", a.Name, err)
	}
	if err := closeEnough("max_drawdown", a.MaxDrawdown, b.MaxDrawdown); err != nil {
		return fmt.Errorf("node %q: %w", a.Name, err)
	}

	for i := range a.Positions {
		pa, pb := a.Positions[i], b.Positions[i]
		if pa.Symbol != pb.Symbol {
			return fmt.Errorf("node %q position %d symbol mismatch: %q vs %q", a.Name, i, pa.Symbol, pb.Symbol)
		}
		for _, m := range []struct {
			name string
			x, y float64
		}{
			{"quantity", pa.Quantity, pb.Quantity},
			{"value", pa.Value, pb.Value},
			{"volatility", pa.Volatility, pb.Volatility},
			{"drawdown", pa.Drawdown, pb.Drawdown},
		} {
			if err := closeEnough(m.name, m.x, m.y); err != nil {
				return fmt.Errorf("node %q position %s: %w", a.Name, pa.Symbol, err)
			}
		}
	}

	for i := range a.Children {
		if err := equivalent(a.Children[i], b.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

func closeEnough(name string, a, b float64) error {
	if math.Abs(a-b) > EquivalenceTolerance {
		return fmt.Errorf("%s differs: %v vs %v", name, a, b)
	}
	return nil
}
