// Package ingest implements the dataset ingestion engines the benchmark
// compares: row structs, columnar slices, and an embedded SQL store. All
// three parse the same CSV dataset and must produce identical price indexes;
// what differs is how the data is held in memory and what that costs.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/aristath/quantbench/internal/marketdata"
)

// Engine loads a dataset and builds the price index from its own storage
// representation. Load may be called repeatedly; each call replaces the
// previous contents.
type Engine interface {
	Name() string
	Load(path string) (int, error)
	BuildIndex() (*marketdata.Index, error)
	Close() error
}

// loadCSV streams a dataset file, validating the header and handing each
// good row to sink. Malformed rows are skipped with a warning; an unreadable
// file or a wrong header fails the whole load.
func loadCSV(path string, log zerolog.Logger, sink func(marketdata.Record) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(marketdata.Header)

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read dataset header: %w", err)
	}
	if err := marketdata.ValidateHeader(header); err != nil {
		return 0, fmt.Errorf("invalid dataset header: %w", err)
	}

	rows := 0
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Warn().Int("line", line).Err(err).Msg("Skipping malformed row")
			continue
		}
		rec, err := marketdata.ParseRow(row)
		if err != nil {
			log.Warn().Int("line", line).Err(err).Msg("Skipping malformed row")
			continue
		}
		if err := sink(rec); err != nil {
			return rows, err
		}
		rows++
	}
	return rows, nil
}
