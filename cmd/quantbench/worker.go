package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/quantbench/internal/modules/analytics"
	"github.com/aristath/quantbench/internal/modules/portfolio"
	"github.com/aristath/quantbench/internal/procpool"
)

// workerCmd is the child-process entry point used by the process pool. The
// parent re-executes this binary with this subcommand and exchanges
// length-prefixed msgpack frames over stdio.
var workerCmd = &cobra.Command{
	Use:    procpool.WorkerCommand,
	Short:  "Process-pool worker (internal)",
	Hidden: true,
	RunE:   runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	// Frames own stdout, so worker logs go to stderr and stay quiet unless
	// something breaks.
	log := zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()

	registry := func(mode string) (procpool.Handler, error) {
		switch mode {
		case portfolio.WorkerMode:
			return portfolio.NewWorkerHandler(log), nil
		case analytics.WorkerMode:
			return analytics.NewWorkerHandler(log), nil
		default:
			return nil, fmt.Errorf("no handler registered")
		}
	}

	return procpool.Serve(os.Stdin, os.Stdout, registry)
}
