package portfolio

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/quantbench/internal/marketdata"
	"github.com/aristath/quantbench/internal/procpool"
)

// Strategy runs one full aggregation pass over a portfolio tree. The input
// tree is never mutated; the enriched result is a fresh tree.
type Strategy interface {
	Name() string
	Run(ctx context.Context, root *Node) (*Node, error)
}

// computeFunc enriches a flattened batch of positions.
type computeFunc func(ctx context.Context, flat []Position) ([]Computed, error)

// execute is the pipeline shared by every strategy: clone the input, flatten
// it, enrich the batch, bind results back by ordinal and roll up.
func execute(ctx context.Context, root *Node, log zerolog.Logger, compute computeFunc) (*Node, error) {
	tree := root.Clone()
	flat := Flatten(tree)

	computed, err := compute(ctx, flat)
	if err != nil {
		return nil, err
	}

	Rebind(tree, computed, log)
	Aggregate(tree)
	return tree, nil
}

// Sequential computes every position on the calling goroutine. It is the
// correctness baseline the parallel strategies are verified against.
type Sequential struct {
	calc *Calculator
	log  zerolog.Logger
}

// NewSequential creates the baseline strategy
func NewSequential(calc *Calculator, log zerolog.Logger) *Sequential {
	return &Sequential{calc: calc, log: log.With().Str("strategy", "sequential").Logger()}
}

// Name implements Strategy
func (s *Sequential) Name() string { return "sequential" }

// Run implements Strategy
func (s *Sequential) Run(ctx context.Context, root *Node) (*Node, error) {
	return execute(ctx, root, s.log, func(ctx context.Context, flat []Position) ([]Computed, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return s.calc.ComputeAll(flat), nil
	})
}

// WorkerPool fans position computations out over a bounded set of
// goroutines sharing the in-process price index.
type WorkerPool struct {
	calc    *Calculator
	workers int
	log     zerolog.Logger
}

// NewWorkerPool creates the goroutine-pool strategy
func NewWorkerPool(calc *Calculator, workers int, log zerolog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		calc:    calc,
		workers: workers,
		log:     log.With().Str("strategy", "goroutines").Logger(),
	}
}

// Name implements Strategy
func (w *WorkerPool) Name() string { return "goroutines" }

// Run implements Strategy
func (w *WorkerPool) Run(ctx context.Context, root *Node) (*Node, error) {
	return execute(ctx, root, w.log, func(ctx context.Context, flat []Position) ([]Computed, error) {
		out := make([]Computed, len(flat))

		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(w.workers)
		for i, pos := range flat {
			i, pos := i, pos
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				out[i] = Computed{Ordinal: i, Position: w.calc.Compute(pos)}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// ProcessPool ships position computations to child worker processes. Each
// worker receives the full market-data snapshot once at startup, then a
// stream of position tasks; this makes the data-transfer cost of process
// isolation part of what the benchmark measures.
type ProcessPool struct {
	initPayload []byte
	workers     int
	log         zerolog.Logger
}

// NewProcessPool creates the process-pool strategy. The index snapshot is
// serialized once up front and reused across runs.
func NewProcessPool(idx *marketdata.Index, window, workers int, log zerolog.Logger) (*ProcessPool, error) {
	if workers < 1 {
		workers = 1
	}
	initPayload, err := msgpack.Marshal(&workerInit{Snapshot: idx.Snapshot(), Window: window})
	if err != nil {
		return nil, fmt.Errorf("failed to encode worker init payload: %w", err)
	}
	return &ProcessPool{
		initPayload: initPayload,
		workers:     workers,
		log:         log.With().Str("strategy", "processes").Logger(),
	}, nil
}

// Name implements Strategy
func (p *ProcessPool) Name() string { return "processes" }

// Run implements Strategy
func (p *ProcessPool) Run(ctx context.Context, root *Node) (*Node, error) {
	return execute(ctx, root, p.log, func(ctx context.Context, flat []Position) ([]Computed, error) {
		tasks := make([]procpool.Task, len(flat))
		for i, pos := range flat {
			payload, err := msgpack.Marshal(&pos)
			if err != nil {
				return nil, fmt.Errorf("failed to encode position task: %w", err)
			}
			tasks[i] = procpool.Task{Ordinal: i, Payload: payload}
		}

		pool := procpool.New(WorkerMode, p.initPayload, p.workers, p.log)
		results, err := pool.Map(ctx, tasks)
		if err != nil {
			return nil, fmt.Errorf("process pool failed: %w", err)
		}

		out := make([]Computed, 0, len(results))
		for _, res := range results {
			if res.Ordinal < 0 || res.Ordinal >= len(flat) {
				p.log.Error().Int("ordinal", res.Ordinal).Msg("Worker returned unknown ordinal")
				continue
			}
			if res.Err != "" {
				p.log.Error().
					Int("ordinal", res.Ordinal).
					Str("symbol", flat[res.Ordinal].Symbol).
					Str("error", res.Err).
					Msg("Worker failed to compute position")
				out = append(out, Computed{Ordinal: res.Ordinal, Position: zeroed(flat[res.Ordinal])})
				continue
			}
			var pos Position
			if err := msgpack.Unmarshal(res.Payload, &pos); err != nil {
				p.log.Error().
					Int("ordinal", res.Ordinal).
					Err(err).
					Msg("Failed to decode worker result")
				out = append(out, Computed{Ordinal: res.Ordinal, Position: zeroed(flat[res.Ordinal])})
				continue
			}
			out = append(out, Computed{Ordinal: res.Ordinal, Position: pos})
		}
		return out, nil
	})
}
