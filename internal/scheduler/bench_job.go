package scheduler

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/aristath/quantbench/internal/harness"
)

// RunTrigger schedules a benchmark run; implemented by harness.Runner.
type RunTrigger interface {
	TriggerRun() error
}

// BenchmarkJob triggers a benchmark run on its cron schedule. A run already
// in flight is skipped rather than queued; the next tick tries again.
type BenchmarkJob struct {
	trigger RunTrigger
	log     zerolog.Logger
}

// NewBenchmarkJob creates the scheduled benchmark job
func NewBenchmarkJob(trigger RunTrigger, log zerolog.Logger) *BenchmarkJob {
	return &BenchmarkJob{
		trigger: trigger,
		log:     log.With().Str("job", "benchmark_run").Logger(),
	}
}

// Name implements Job
func (j *BenchmarkJob) Name() string { return "benchmark_run" }

// Run implements Job
func (j *BenchmarkJob) Run() error {
	err := j.trigger.TriggerRun()
	if errors.Is(err, harness.ErrRunInFlight) {
		j.log.Warn().Msg("Skipping scheduled run, one is already in flight")
		return nil
	}
	return err
}
