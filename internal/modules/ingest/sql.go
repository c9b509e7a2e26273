package ingest

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantbench/internal/database"
	"github.com/aristath/quantbench/internal/marketdata"
	"github.com/aristath/quantbench/internal/utils"
)

// insertBatchSize bounds how many rows go into one INSERT transaction.
const insertBatchSize = 500

// sqlEngineSeq disambiguates the shared-cache in-memory database name per
// engine instance, so concurrent engines never see each other's data.
var sqlEngineSeq atomic.Int64

// SQLEngine loads the dataset into an in-memory SQLite store and derives the
// index with queries. Slowest of the three by design: it carries the full
// cost of a real storage engine (parsing, transactions, b-trees) that the
// in-process engines skip.
type SQLEngine struct {
	db  *database.DB
	log zerolog.Logger
}

// NewSQLEngine creates the SQL-backed engine
func NewSQLEngine(log zerolog.Logger) *SQLEngine {
	return &SQLEngine{log: log.With().Str("engine", "sql").Logger()}
}

// Name implements Engine
func (e *SQLEngine) Name() string { return "sql" }

// Load implements Engine
func (e *SQLEngine) Load(path string) (int, error) {
	if err := e.ensureStore(); err != nil {
		return 0, err
	}
	if _, err := e.db.Exec("DELETE FROM market_data"); err != nil {
		return 0, fmt.Errorf("failed to clear market data: %w", err)
	}

	batch := make([]marketdata.Record, 0, insertBatchSize)
	total := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := e.insertBatch(batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	rows, err := loadCSV(path, e.log, func(rec marketdata.Record) error {
		batch = append(batch, rec)
		if len(batch) == insertBatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := flush(); err != nil {
		return 0, err
	}

	e.log.Debug().Int("rows", total).Msg("Dataset loaded into SQL store")
	return rows, nil
}

// BuildIndex implements Engine
func (e *SQLEngine) BuildIndex() (*marketdata.Index, error) {
	if e.db == nil {
		return nil, fmt.Errorf("sql engine has no loaded data")
	}

	done := utils.MeasureDBQuery("scan_market_data", e.log)

	// One ordered scan rebuilds the index; rowid breaks ties between rows
	// sharing a timestamp so insert order is preserved.
	rows, err := e.db.Query("SELECT ts, symbol, price FROM market_data ORDER BY ts, rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to scan market data: %w", err)
	}
	defer rows.Close()

	idx := marketdata.NewIndex()
	count := int64(0)
	for rows.Next() {
		var ts int64
		var symbol string
		var price float64
		if err := rows.Scan(&ts, &symbol, &price); err != nil {
			return nil, fmt.Errorf("failed to scan market data row: %w", err)
		}
		idx.Add(marketdata.Record{
			Timestamp: time.Unix(0, ts).UTC(),
			Symbol:    symbol,
			Price:     price,
		})
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("market data scan failed: %w", err)
	}

	done(count)
	return idx, nil
}

// Close implements Engine
func (e *SQLEngine) Close() error {
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	return err
}

// ensureStore opens the in-memory database and creates the schema on first
// use. The store persists across Load calls until Close.
func (e *SQLEngine) ensureStore() error {
	if e.db != nil {
		return nil
	}

	name := fmt.Sprintf("ingest_%d", sqlEngineSeq.Add(1))
	db, err := database.New(database.Config{
		Path:    database.MemoryPath(name),
		Profile: database.ProfileMemory,
		Name:    "ingest",
	})
	if err != nil {
		return fmt.Errorf("failed to open ingest store: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS market_data (
			ts     INTEGER NOT NULL,
			symbol TEXT    NOT NULL,
			price  REAL    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_market_data_symbol_ts ON market_data(symbol, ts);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create ingest schema: %w", err)
	}

	e.db = db
	return nil
}

// insertBatch writes one batch inside a transaction with a prepared insert.
func (e *SQLEngine) insertBatch(batch []marketdata.Record) error {
	done := utils.MeasureDBQuery("insert_market_data", e.log)

	err := database.WithTransaction(e.db.Conn(), func(tx *sql.Tx) error {
		stmt, err := tx.Prepare("INSERT INTO market_data (ts, symbol, price) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range batch {
			if _, err := stmt.Exec(rec.Timestamp.UnixNano(), rec.Symbol, rec.Price); err != nil {
				return fmt.Errorf("failed to insert record: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	done(int64(len(batch)))
	return nil
}
