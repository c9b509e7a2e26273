// Package main is the entry point for the quantbench benchmark harness.
// It compares ingestion engines (row, columnar, SQL), rolling analytics
// kernels and concurrency strategies over synthetic financial time-series,
// and writes a markdown comparison report with machine-readable artifacts.
//
// The binary has four modes:
//   - run: execute one full benchmark run and exit
//   - generate: produce a synthetic dataset and demo portfolio tree
//   - serve: HTTP API with on-demand and cron-scheduled runs
//   - worker: hidden child-process entry used by the process pool
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
