// Package marketdata defines the market-data model shared by the ingestion
// engines: the price record, the dataset CSV format, and the price-history
// index consumed by the analytics and portfolio modules.
package marketdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the timestamp format used by dataset files.
const TimeLayout = time.RFC3339

// Header enforces the exact column set of a dataset file (order and count).
var Header = []string{"timestamp", "symbol", "price"}

// Record is a single market-data observation.
type Record struct {
	Timestamp time.Time `json:"timestamp" msgpack:"timestamp"`
	Symbol    string    `json:"symbol" msgpack:"symbol"`
	Price     float64   `json:"price" msgpack:"price"`
}

// ValidateHeader checks a dataset header strictly against Header.
func ValidateHeader(header []string) error {
	if len(header) != len(Header) {
		return fmt.Errorf("invalid header length: expected %d columns, got %d", len(Header), len(header))
	}
	for i, h := range header {
		if strings.TrimSpace(h) != Header[i] {
			return fmt.Errorf("invalid header at col %d: expected %q, got %q", i+1, Header[i], h)
		}
	}
	return nil
}

// ParseRow converts one CSV row into a Record. The row must already have
// the validated column count.
func ParseRow(row []string) (Record, error) {
	var rec Record

	ts, err := time.Parse(TimeLayout, strings.TrimSpace(row[0]))
	if err != nil {
		return rec, fmt.Errorf("invalid timestamp: %w", err)
	}
	rec.Timestamp = ts

	rec.Symbol = strings.TrimSpace(row[1])
	if rec.Symbol == "" {
		return rec, fmt.Errorf("empty symbol")
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil {
		return rec, fmt.Errorf("invalid price: %w", err)
	}
	rec.Price = price

	return rec, nil
}

// WriteFile writes records to a dataset CSV file, header included.
// Records are written in the order given; callers are expected to pass
// time-ascending data since the index builders rely on it.
func WriteFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, 3)
	for _, rec := range records {
		row[0] = rec.Timestamp.Format(TimeLayout)
		row[1] = rec.Symbol
		row[2] = strconv.FormatFloat(rec.Price, 'f', -1, 64)
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush dataset file: %w", err)
	}
	return nil
}
