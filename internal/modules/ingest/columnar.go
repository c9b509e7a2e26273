package ingest

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantbench/internal/marketdata"
)

// ColumnarEngine stores the dataset as parallel primitive columns instead of
// a slice of structs. Timestamps collapse to unix nanoseconds so each column
// is a flat, cache-friendly array; the trade-off is reassembling records
// when the index is built.
type ColumnarEngine struct {
	timestamps []int64
	symbols    []string
	prices     []float64
	log        zerolog.Logger
}

// NewColumnarEngine creates the column-oriented engine
func NewColumnarEngine(log zerolog.Logger) *ColumnarEngine {
	return &ColumnarEngine{log: log.With().Str("engine", "columnar").Logger()}
}

// Name implements Engine
func (e *ColumnarEngine) Name() string { return "columnar" }

// Load implements Engine
func (e *ColumnarEngine) Load(path string) (int, error) {
	e.timestamps = e.timestamps[:0]
	e.symbols = e.symbols[:0]
	e.prices = e.prices[:0]

	return loadCSV(path, e.log, func(rec marketdata.Record) error {
		e.timestamps = append(e.timestamps, rec.Timestamp.UnixNano())
		e.symbols = append(e.symbols, rec.Symbol)
		e.prices = append(e.prices, rec.Price)
		return nil
	})
}

// BuildIndex implements Engine
func (e *ColumnarEngine) BuildIndex() (*marketdata.Index, error) {
	idx := marketdata.NewIndex()
	for i := range e.prices {
		idx.Add(marketdata.Record{
			Timestamp: time.Unix(0, e.timestamps[i]).UTC(),
			Symbol:    e.symbols[i],
			Price:     e.prices[i],
		})
	}
	return idx, nil
}

// Close implements Engine
func (e *ColumnarEngine) Close() error {
	e.timestamps = nil
	e.symbols = nil
	e.prices = nil
	return nil
}
