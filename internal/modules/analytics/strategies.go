package analytics

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/quantbench/internal/marketdata"
	"github.com/aristath/quantbench/internal/procpool"
)

// Strategy applies the rolling transform to every symbol in the index,
// returning metrics in symbol order.
type Strategy interface {
	Name() string
	Run(ctx context.Context, idx *marketdata.Index) ([]Metrics, error)
}

// Sequential computes every symbol on the calling goroutine. It is the
// correctness baseline the parallel strategies are verified against.
type Sequential struct {
	kernel Engine
	window int
	log    zerolog.Logger
}

// NewSequential creates the baseline strategy
func NewSequential(window int, log zerolog.Logger) *Sequential {
	return &Sequential{
		kernel: RowEngine{},
		window: window,
		log:    log.With().Str("strategy", "sequential").Logger(),
	}
}

// Name implements Strategy
func (s *Sequential) Name() string { return "sequential" }

// Run implements Strategy
func (s *Sequential) Run(ctx context.Context, idx *marketdata.Index) ([]Metrics, error) {
	symbols := idx.Symbols()
	out := make([]Metrics, 0, len(symbols))
	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := s.kernel.Compute(idx.History(sym), s.window)
		m.Symbol = sym
		out = append(out, m)
	}
	return out, nil
}

// WorkerPool fans symbols out over a bounded set of goroutines sharing the
// in-process index.
type WorkerPool struct {
	kernel  Engine
	window  int
	workers int
	log     zerolog.Logger
}

// NewWorkerPool creates the goroutine-pool strategy
func NewWorkerPool(window, workers int, log zerolog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		kernel:  RowEngine{},
		window:  window,
		workers: workers,
		log:     log.With().Str("strategy", "goroutines").Logger(),
	}
}

// Name implements Strategy
func (w *WorkerPool) Name() string { return "goroutines" }

// Run implements Strategy
func (w *WorkerPool) Run(ctx context.Context, idx *marketdata.Index) ([]Metrics, error) {
	symbols := idx.Symbols()
	out := make([]Metrics, len(symbols))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m := w.kernel.Compute(idx.History(sym), w.window)
			m.Symbol = sym
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ProcessPool ships each symbol's full price column to child worker
// processes, so every task pays the serialization cost of the data it works
// on. That transfer cost is the point of the comparison.
type ProcessPool struct {
	initPayload []byte
	workers     int
	log         zerolog.Logger
}

// NewProcessPool creates the process-pool strategy.
func NewProcessPool(window, workers int, log zerolog.Logger) (*ProcessPool, error) {
	if workers < 1 {
		workers = 1
	}
	initPayload, err := msgpack.Marshal(&workerInit{Window: window})
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
func (p *ProcessPool) Run(ctx context.Context, idx *marketdata.Index) ([]Metrics, error) {
	symbols := idx.Symbols()
	tasks := make([]procpool.Task, len(symbols))
	for i, sym := range symbols {
		payload, err := msgpack.Marshal(&symbolTask{Symbol: sym, Prices: idx.History(sym)})
		if err != nil {
			return nil, fmt.Errorf("failed to encode symbol task: %w", err)
		}
		tasks[i] = procpool.Task{Ordinal: i, Payload: payload}
	}

	pool := procpool.New(WorkerMode, p.initPayload, p.workers, p.log)
	results, err := pool.Map(ctx, tasks)
	if err != nil {
		return nil, fmt.Errorf("process pool failed: %w", err)
	}

	out := make([]Metrics, len(symbols))
	for _, res := range results {
		if res.Ordinal < 0 || res.Ordinal >= len(symbols) {
			p.log.Error().Int("ordinal", res.Ordinal).Msg("Worker returned unknown ordinal")
			continue
		}
		if res.Err != "" {
			p.log.Error().
				Int("ordinal", res.Ordinal).
				Str("symbol", symbols[res.Ordinal]).
				Str("error", res.Err).
				Msg("Worker failed to compute symbol")
			out[res.Ordinal] = Metrics{Symbol: symbols[res.Ordinal]}
			continue
		}
		var m Metrics
		if err := msgpack.Unmarshal(res.Payload, &m); err != nil {
			p.log.Error().Int("ordinal", res.Ordinal).Err(err).Msg("Failed to decode worker result")
			out[res.Ordinal] = Metrics{Symbol: symbols[res.Ordinal]}
			continue
		}
		out[res.Ordinal] = m
	}
	return out, nil
}
