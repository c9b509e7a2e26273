package procpool

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// WorkerCommand is the subcommand the pool passes when re-executing the
// current binary. The CLI must expose a command with this name that calls
// Serve on its stdio.
const WorkerCommand = "worker"

// Pool spawns worker processes and distributes tasks across them. A pool is
// cheap to construct; processes only exist for the duration of one Map call,
// mirroring how a fork-per-batch process pool behaves.
type Pool struct {
	mode        string
	initPayload []byte
	workers     int
	log         zerolog.Logger
}

// New creates a pool for the given handler mode. initPayload is delivered
// to every worker before its first task.
func New(mode string, initPayload []byte, workers int, log zerolog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		mode:        mode,
		initPayload: initPayload,
		workers:     workers,
		log:         log.With().Str("component", "procpool").Str("mode", mode).Logger(),
	}
}

// Map runs all tasks across the pool's workers and returns one result per
// task ordinal, sorted by ordinal. A worker crash does not fail the batch:
// tasks that never produced an answer come back as error results so callers
// can decide how to degrade.
func (p *Pool) Map(ctx context.Context, tasks []Task) ([]Result, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}

	workers := p.workers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	// Round-robin sharding keeps per-worker load even without needing a
	// shared task queue across process boundaries.
	shards := make([][]Task, workers)
	for i, t := range tasks {
		shards[i%workers] = append(shards[i%workers], t)
	}

	var mu sync.Mutex
	results := make([]Result, 0, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		shard := shards[i]
		worker := i
		g.Go(func() error {
			rs, err := p.runWorker(gctx, exe, shard)
			if err != nil {
				return fmt.Errorf("worker %d: %w", worker, err)
			}
			mu.Lock()
			results = append(results, rs...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(results))
	for _, r := range results {
		seen[r.Ordinal] = true
	}
	for _, t := range tasks {
		if !seen[t.Ordinal] {
			results = append(results, Result{
				Ordinal: t.Ordinal,
				Err:     "worker exited before producing a result",
			})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Ordinal < results[j].Ordinal })
	return results, nil
}

// runWorker drives one child process through its shard: send init and all
// tasks, close stdin, then collect result frames until the worker is done.
// Crashes surface as missing results, not errors; only setup failures and
// context cancellation abort.
func (p *Pool) runWorker(ctx context.Context, exe string, shard []Task) ([]Result, error) {
	cmd := exec.CommandContext(ctx, exe, WorkerCommand)
	cmd.Stderr = os.Stderr // worker logs pass through

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start worker process: %w", err)
	}

	// Feed the worker from a separate goroutine so result reading below can
	// drain stdout concurrently; otherwise a large shard deadlocks on full
	// pipe buffers.
	go func() {
		defer stdin.Close()
		if err := WriteInit(stdin, p.mode, p.initPayload); err != nil {
			p.log.Warn().Err(err).Msg("Failed to send init frame")
			return
		}
		for _, task := range shard {
			if err := WriteTask(stdin, task); err != nil {
				p.log.Warn().Err(err).Msg("Failed to send task frame")
				return
			}
		}
	}()

	results := make([]Result, 0, len(shard))
	for len(results) < len(shard) {
		res, err := ReadResult(stdout)
		if err != nil {
			if err != io.EOF {
				p.log.Error().Err(err).Msg("Failed to read worker result")
			}
			break
		}
		results = append(results, res)
	}

	if err := cmd.Wait(); err != nil {
		p.log.Warn().
			Err(err).
			Int("results", len(results)).
			Int("tasks", len(shard)).
			Msg("Worker exited abnormally")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
