package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/quantbench/internal/config"
	"github.com/aristath/quantbench/pkg/logger"
)

var (
	flagLogLevel string
	flagPretty   bool
)

// rootCmd is the base command for the quantbench CLI
var rootCmd = &cobra.Command{
	Use:   "quantbench",
	Short: "Benchmark harness for financial time-series engines",
	Long: `Quantbench measures how data layout and concurrency choices behave on
synthetic financial time-series: row, columnar and SQL ingestion engines,
row-major versus column-major rolling analytics, and sequential, goroutine
and process-pool strategies for per-symbol transforms and portfolio
aggregation. Every run writes a markdown comparison report plus JSON
artifacts.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&flagPretty, "pretty", true, "Human-readable console logging")
}

// loadConfig reads environment configuration, applies the global flag
// overrides and builds the logger every command shares.
func loadConfig(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Pretty = flagPretty
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.Pretty,
	})
	logger.SetGlobalLogger(log)

	return cfg, log, nil
}
