package harness

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrRunInFlight is returned by TriggerRun while a run is executing. Runs
// measure wall-clock time and memory; overlapping them would corrupt both.
var ErrRunInFlight = errors.New("a benchmark run is already in flight")

// benchmarkRunner matches Harness.Run. The indirection keeps the loop
// testable without a full pipeline behind it.
type benchmarkRunner interface {
	Run(ctx context.Context) (*RunSummary, error)
}

// Runner serializes benchmark runs in serve mode: at most one run executes
// at a time, and triggers during a run are rejected rather than queued.
type Runner struct {
	bench benchmarkRunner
	log   zerolog.Logger

	trigger chan struct{}
	stop    chan struct{}
	stopped chan struct{}

	mu      sync.Mutex
	running bool
}

// NewRunner creates a runner around a harness.
func NewRunner(h *Harness, log zerolog.Logger) *Runner {
	return newRunner(h, log)
}

func newRunner(bench benchmarkRunner, log zerolog.Logger) *Runner {
	return &Runner{
		bench:   bench,
		log:     log.With().Str("component", "runner").Logger(),
		trigger: make(chan struct{}, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Run starts the runner loop and blocks until Stop is called or ctx is
// cancelled. Callers start it on its own goroutine.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-r.trigger:
			r.runOnce(ctx)
		}
	}
}

// Stop stops the runner loop and waits for it to exit. An in-flight run
// finishes first.
func (r *Runner) Stop() {
	close(r.stop)
	<-r.stopped
}

// TriggerRun schedules a benchmark run. Non-blocking; returns ErrRunInFlight
// when a run is already executing or pending.
func (r *Runner) TriggerRun() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrRunInFlight
	}

	select {
	case r.trigger <- struct{}{}:
		r.running = true
		return nil
	default:
		return ErrRunInFlight
	}
}

// Running reports whether a run is executing or pending.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) runOnce(ctx context.Context) {
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	if _, err := r.bench.Run(ctx); err != nil {
		r.log.Error().Err(err).Msg("Benchmark run failed")
	}
}
