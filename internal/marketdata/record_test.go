package marketdata

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		wantErr bool
	}{
		{"exact", []string{"timestamp", "symbol", "price"}, false},
		{"padded", []string{" timestamp", "symbol ", " price "}, false},
		{"wrong order", []string{"symbol", "timestamp", "price"}, true},
		{"missing column", []string{"timestamp", "symbol"}, true},
		{"extra column", []string{"timestamp", "symbol", "price", "volume"}, true},
		{"wrong name", []string{"time", "symbol", "price"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHeader(tt.header)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseRow(t *testing.T) {
	rec, err := ParseRow([]string{"2024-01-02T21:00:00Z", "AAPL", "185.5"})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", rec.Symbol)
	assert.Equal(t, 185.5, rec.Price)
	assert.Equal(t, time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC), rec.Timestamp)
}

func TestParseRowErrors(t *testing.T) {
	tests := []struct {
		name string
		row  []string
	}{
		{"bad timestamp", []string{"yesterday", "AAPL", "185.5"}},
		{"empty symbol", []string{"2024-01-02T21:00:00Z", " ", "185.5"}},
		{"bad price", []string{"2024-01-02T21:00:00Z", "AAPL", "expensive"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRow(tt.row)
			assert.Error(t, err)
		})
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	records := []Record{
		{Timestamp: time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC), Symbol: "AAPL", Price: 185.5},
		{Timestamp: time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC), Symbol: "MSFT", Price: 410.25},
		{Timestamp: time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC), Symbol: "AAPL", Price: 186.0},
	}
	require.NoError(t, WriteFile(path, records))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4) // header + 3 rows
	require.NoError(t, ValidateHeader(rows[0]))

	for i, row := range rows[1:] {
		rec, err := ParseRow(row)
		require.NoError(t, err)
		assert.Equal(t, records[i], rec)
	}
}
