package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aristath/quantbench/internal/config"
	"github.com/aristath/quantbench/internal/database"
	"github.com/aristath/quantbench/internal/events"
	"github.com/aristath/quantbench/internal/harness"
	"github.com/aristath/quantbench/internal/publish"
)

var (
	runScenarioPath string
	runDataPath     string
	runPortfolio    string
	runOutDir       string
	runRepeats      int
	runWorkers      int
	runProcessPool  bool
)

// runCmd executes one full benchmark run and exits.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a full benchmark run",
	Long: `Run every benchmark phase once: profile the ingestion engines, compare
the rolling analytics kernels, time the per-symbol transform strategies,
aggregate the portfolio tree and write the comparison report.`,
	RunE: runBenchmark,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runScenarioPath, "scenario", "", "Scenario YAML file (default: built-in demo scenario)")
	runCmd.Flags().StringVar(&runDataPath, "data", "", "Dataset path override")
	runCmd.Flags().StringVar(&runPortfolio, "portfolio", "", "Portfolio tree path override")
	runCmd.Flags().StringVar(&runOutDir, "out", "", "Output directory override")
	runCmd.Flags().IntVar(&runRepeats, "runs", 0, "Repetitions per timing measurement (default from BENCH_RUNS)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "Worker count for parallel strategies (0 = all CPUs)")
	runCmd.Flags().BoolVar(&runProcessPool, "process-pool", false, "Also run the process-pool strategies")
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if runOutDir != "" {
		absOut, err := filepath.Abs(runOutDir)
		if err != nil {
			return err
		}
		cfg.OutputDir = absOut
	}
	if cmd.Flags().Changed("runs") {
		cfg.BenchRuns = runRepeats
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = runWorkers
	}
	if cmd.Flags().Changed("process-pool") {
		cfg.UseProcessPool = runProcessPool
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var scenario *config.Scenario
	if runScenarioPath != "" {
		scenario, err = config.LoadScenario(runScenarioPath)
		if err != nil {
			return err
		}
	} else {
		scenario = config.DefaultScenario(cfg.DataDir)
	}
	if runDataPath != "" {
		scenario.DatasetPath = runDataPath
	}
	if runPortfolio != "" {
		scenario.PortfolioPath = runPortfolio
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus(log)

	// Explicit path overrides are never generated; the run should fail
	// loudly when a handpicked file is missing.
	if runDataPath == "" && runPortfolio == "" {
		if err := ensureScenarioAssets(scenario, bus, log); err != nil {
			return err
		}
	}

	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, harness.HistoryFile),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		return err
	}
	defer db.Close()

	history, err := harness.NewHistoryRepository(db, log)
	if err != nil {
		return err
	}

	var publisher harness.Publisher
	if pub, err := publish.FromConfig(ctx, cfg.Publish, log); err != nil {
		log.Warn().Err(err).Msg("Publisher unavailable, continuing without publishing")
	} else if pub != nil {
		publisher = pub
	}

	h := harness.New(cfg, scenario, bus, history, publisher, log)
	run, err := h.Run(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Str("run_id", run.RunID).
		Str("report", run.Artifacts.ReportPath).
		Msg("Report ready")

	if !run.Report.StrategiesAgree {
		log.Warn().Msg("Strategy outputs diverged, see the report for details")
	}

	return nil
}
