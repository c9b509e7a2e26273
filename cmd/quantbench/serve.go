package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/quantbench/internal/config"
	"github.com/aristath/quantbench/internal/database"
	"github.com/aristath/quantbench/internal/events"
	"github.com/aristath/quantbench/internal/harness"
	"github.com/aristath/quantbench/internal/publish"
	"github.com/aristath/quantbench/internal/scheduler"
	"github.com/aristath/quantbench/internal/server"
)

var servePort int

// serveCmd runs the HTTP API with on-demand and scheduled benchmark runs.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with scheduled benchmark runs",
	Long: `Serve the benchmark over HTTP: trigger runs, browse run history, read
the latest report and charts, and follow run progress over a websocket.
When BENCH_CRON is set, runs are also started on that schedule.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (default from QUANTBENCH_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Info().Msg("Starting quantbench")

	bus := events.NewBus(log)

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

	// Serve mode always runs the demo scenario; missing inputs are generated
	// at startup so the first triggered run has something to measure.
	scenario := config.DefaultScenario(cfg.DataDir)
	if err := ensureScenarioAssets(scenario, bus, log); err != nil {
		log.Warn().Err(err).Msg("Failed to prepare scenario inputs, runs may fail")
	}

	var publisher harness.Publisher
	if pub, err := publish.FromConfig(cmd.Context(), cfg.Publish, log); err != nil {
		log.Warn().Err(err).Msg("Publisher unavailable, continuing without publishing")
	} else if pub != nil {
		publisher = pub
		log.Info().Str("bucket", cfg.Publish.Bucket).Msg("Artifact publishing enabled")
	}

	h := harness.New(cfg, scenario, bus, history, publisher, log)
	runner := harness.NewRunner(h, log)
	go runner.Run(context.Background())

	srv := server.New(server.Config{
		Log:     log,
		Config:  cfg,
		Runner:  runner,
		History: history,
		Bus:     bus,
		Port:    cfg.Port,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	sched := scheduler.New(log)
	if cfg.BenchCron != "" {
		job := scheduler.NewBenchmarkJob(runner, log)
		if err := sched.AddJob(cfg.BenchCron, job); err != nil {
			return err
		}
		log.Info().Str("schedule", cfg.BenchCron).Msg("Scheduled benchmark runs enabled")
	}
	sched.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// No new scheduled triggers, then wait for any in-flight run before the
	// server goes away; the run writes artifacts the API serves.
	sched.Stop()
	runner.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
	return nil
}
