package ingest

import (
	"github.com/rs/zerolog"

	"github.com/aristath/quantbench/internal/marketdata"
)

// RowEngine stores the dataset the straightforward way: one struct per
// observation in a single slice. Cheap to build, pays for itself in pointer
// and padding overhead when datasets grow.
type RowEngine struct {
	records []marketdata.Record
	log     zerolog.Logger
}

// NewRowEngine creates the row-oriented engine
func NewRowEngine(log zerolog.Logger) *RowEngine {
	return &RowEngine{log: log.With().Str("engine", "rows").Logger()}
}

// Name implements Engine
func (e *RowEngine) Name() string { return "rows" }

// Load implements Engine
func (e *RowEngine) Load(path string) (int, error) {
	e.records = e.records[:0]
	return loadCSV(path, e.log, func(rec marketdata.Record) error {
		e.records = append(e.records, rec)
		return nil
	})
}

// BuildIndex implements Engine
func (e *RowEngine) BuildIndex() (*marketdata.Index, error) {
	return marketdata.BuildIndex(e.records), nil
}

// Close implements Engine
func (e *RowEngine) Close() error {
	e.records = nil
	return nil
}
