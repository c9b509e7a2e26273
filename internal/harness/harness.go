// Package harness orchestrates a full benchmark run: ingestion profiling,
// the rolling analytics kernel comparison, the concurrency strategy
// comparison, portfolio aggregation and report writing, with progress
// events on the bus at every phase.
package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/quantbench/internal/config"
	"github.com/aristath/quantbench/internal/events"
	"github.com/aristath/quantbench/internal/marketdata"
	"github.com/aristath/quantbench/internal/modules/analytics"
	"github.com/aristath/quantbench/internal/modules/ingest"
	"github.com/aristath/quantbench/internal/modules/portfolio"
	"github.com/aristath/quantbench/internal/modules/report"
	"github.com/aristath/quantbench/internal/utils"
)

// Publisher uploads run artifacts to remote storage. Implemented by the
// publish package; nil when publishing is not configured.
type Publisher interface {
	PublishRun(ctx context.Context, runID, dir string) ([]string, error)
	RotateOldRuns(ctx context.Context, retentionDays, keep int) error
}

// Harness runs the full benchmark pipeline for one scenario.
type Harness struct {
	cfg       *config.Config
	scenario  *config.Scenario
	bus       *events.Bus
	history   *HistoryRepository
	publisher Publisher
	log       zerolog.Logger
}

// New creates a harness. history and publisher may be nil; the bus is
// required (pass a bus nobody subscribes to when events are not needed).
func New(cfg *config.Config, scenario *config.Scenario, bus *events.Bus, history *HistoryRepository, publisher Publisher, log zerolog.Logger) *Harness {
	return &Harness{
		cfg:       cfg,
		scenario:  scenario,
		bus:       bus,
		history:   history,
		publisher: publisher,
		log:       log.With().Str("component", "harness").Logger(),
	}
}

// Run executes every benchmark phase in order and returns the full run
// summary. A missing dataset or a failing strategy aborts the run; a missing
// portfolio file and strategy divergence are reported but do not.
func (h *Harness) Run(ctx context.Context) (*RunSummary, error) {
	runID := uuid.New().String()
	started := time.Now().UTC()

	runs := h.scenario.Runs
	if runs < 1 {
		runs = h.cfg.BenchRuns
	}
	workers := h.cfg.EffectiveWorkers()

	h.log.Info().
		Str("run_id", runID).
		Str("scenario", h.scenario.Name).
		Str("dataset", h.scenario.DatasetPath).
		Int("runs", runs).
		Int("workers", workers).
		Bool("process_pool", h.cfg.UseProcessPool).
		Msg("Benchmark run starting")

	h.bus.Emit("harness", &events.RunStartedData{
		RunID:    runID,
		Scenario: h.scenario.Name,
		Dataset:  h.scenario.DatasetPath,
	})

	summary := &report.Summary{
		RunID:           runID,
		Scenario:        h.scenario.Name,
		Dataset:         h.scenario.DatasetPath,
		GeneratedAt:     started,
		Window:          h.scenario.Window,
		Runs:            runs,
		Workers:         workers,
		StrategiesAgree: true,
	}

	var idx *marketdata.Index
	err := h.phase(runID, "ingest", func() error {
		engines := []ingest.Engine{
			ingest.NewRowEngine(h.log),
			ingest.NewColumnarEngine(h.log),
			ingest.NewSQLEngine(h.log),
		}
		results, built, err := ingest.Profile(ctx, engines, h.scenario.DatasetPath, runs, h.log)
		if err != nil {
			return err
		}
		idx = built
		summary.Ingestion = results
		summary.Rows = idx.NumRecords()
		summary.Symbols = len(idx.Symbols())
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = h.phase(runID, "rolling", func() error {
		cmp, err := analytics.CompareEngines(ctx, idx, h.scenario.Window, runs, h.log)
		if err != nil {
			return err
		}
		summary.Rolling = cmp
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = h.phase(runID, "transform", func() error {
		svc := analytics.NewService(idx, h.scenario.Window, workers, h.log)
		results, err := svc.Profile(ctx, h.cfg.UseProcessPool)
		if err != nil {
			return err
		}
		summary.Transform = results
		if verr := analytics.VerifyStrategies(results); verr != nil {
			h.reportDivergence(runID, "transform", verr)
			summary.StrategiesAgree = false
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = h.phase(runID, "aggregate", func() error {
		return h.aggregate(ctx, runID, idx, workers, summary)
	})
	if err != nil {
		return nil, err
	}

	var artifacts *report.Artifacts
	err = h.phase(runID, "report", func() error {
		writer := report.NewWriter(h.log)
		a, err := writer.Write(h.cfg.OutputDir, summary)
		if err != nil {
			return err
		}
		artifacts = a

		files := []string{a.ReportPath, a.ResultsPath}
		files = append(files, a.ChartPaths...)
		h.bus.Emit("harness", &events.ReportWrittenData{RunID: runID, Files: files})
		return nil
	})
	if err != nil {
		return nil, err
	}

	var published []string
	if h.publisher != nil {
		err = h.phase(runID, "publish", func() error {
			published = h.publish(ctx, runID)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	completed := time.Now().UTC()
	runSummary := &RunSummary{
		RunID:       runID,
		Scenario:    h.scenario.Name,
		StartedAt:   started,
		CompletedAt: completed,
		DurationMS:  float64(completed.Sub(started).Microseconds()) / 1000,
		Report:      *summary,
		Artifacts:   artifacts,
		Published:   published,
	}

	if h.history != nil {
		if err := h.history.Save(ctx, runSummary); err != nil {
			h.log.Warn().Err(err).Str("run_id", runID).Msg("Failed to save run history")
		}
	}

	h.bus.Emit("harness", &events.RunCompletedData{
		RunID:      runID,
		DurationMS: runSummary.DurationMS,
		ReportPath: artifacts.ReportPath,
	})

	h.log.Info().
		Str("run_id", runID).
		Float64("duration_ms", runSummary.DurationMS).
		Bool("strategies_agree", summary.StrategiesAgree).
		Str("report", artifacts.ReportPath).
		Msg("Benchmark run completed")

	return runSummary, nil
}

// aggregate runs the portfolio phase. A missing or unreadable portfolio file
// leaves the aggregation section empty instead of failing the run; the other
// phases still produce a usable report.
func (h *Harness) aggregate(ctx context.Context, runID string, idx *marketdata.Index, workers int, summary *report.Summary) error {
	root, err := portfolio.LoadTree(h.scenario.PortfolioPath)
	if err != nil {
		h.log.Error().Err(err).
			Str("path", h.scenario.PortfolioPath).
			Msg("Portfolio tree unavailable, skipping aggregation")
		h.bus.Emit("harness", &events.ErrorEventData{
			Error:   err.Error(),
			Context: map[string]interface{}{"run_id": runID, "phase": "aggregate"},
		})
		return nil
	}
	summary.Positions = root.CountPositions()

	svc := portfolio.NewService(idx, h.scenario.Window, workers, h.log)
	results, err := svc.Profile(ctx, root, h.cfg.UseProcessPool)
	if err != nil {
		return err
	}
	summary.Aggregation = results

	if verr := portfolio.VerifyEquivalence(results); verr != nil {
		h.reportDivergence(runID, "aggregate", verr)
		summary.StrategiesAgree = false
	}

	enriched := results[0].Tree
	summary.TotalValue = enriched.TotalValue
	summary.AggregateVolatility = enriched.AggregateVolatility
	summary.MaxDrawdown = enriched.MaxDrawdown
	return nil
}

// publish uploads the output directory and rotates old remote runs. Publish
// failures never fail the run; the artifacts are already on disk.
func (h *Harness) publish(ctx context.Context, runID string) []string {
	published, err := h.publisher.PublishRun(ctx, runID, h.cfg.OutputDir)
	if err != nil {
		h.log.Warn().Err(err).Str("run_id", runID).Msg("Failed to publish run artifacts")
		return nil
	}

	if p := h.cfg.Publish; p != nil {
		if err := h.publisher.RotateOldRuns(ctx, p.RetentionDays, p.KeepRuns); err != nil {
			h.log.Warn().Err(err).Msg("Failed to rotate published runs")
		}
	}
	return published
}

// phase wraps one pipeline step with timing and lifecycle events. A phase
// error fails the whole run.
func (h *Harness) phase(runID, name string, fn func() error) error {
	h.bus.Emit("harness", &events.PhaseStartedData{RunID: runID, Phase: name})
	timer := utils.NewTimer("phase_"+name, h.log)

	err := fn()
	elapsed := timer.Stop()

	if err != nil {
		h.bus.Emit("harness", &events.RunFailedData{RunID: runID, Phase: name, Error: err.Error()})
		return fmt.Errorf("phase %s failed: %w", name, err)
	}

	h.bus.Emit("harness", &events.PhaseCompletedData{
		RunID:      runID,
		Phase:      name,
		DurationMS: float64(elapsed.Microseconds()) / 1000,
	})
	return nil
}

// reportDivergence records a strategy equivalence failure without aborting
// the run. The report prints the failure prominently instead.
func (h *Harness) reportDivergence(runID, phase string, err error) {
	h.log.Error().Err(err).Str("phase", phase).Msg("Strategy outputs diverge")
	h.bus.Emit("harness", &events.ErrorEventData{
		Error:   err.Error(),
		Context: map[string]interface{}{"run_id": runID, "phase": phase},
	})
}
