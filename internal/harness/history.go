package harness

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantbench/internal/database"
)

// HistoryFile is the on-disk name of the run history database.
const HistoryFile = "runs.db"

// HistoryRepository persists completed run summaries so serve mode can list
// past runs after a restart. One row per run, full summary stored as JSON.
type HistoryRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// RunRecord is the light listing view of a stored run.
type RunRecord struct {
	RunID      string    `json:"run_id"`
	Scenario   string    `json:"scenario"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS float64   `json:"duration_ms"`
}

// NewHistoryRepository opens the repository over an existing database handle
// and creates the schema when missing.
func NewHistoryRepository(db *database.DB, log zerolog.Logger) (*HistoryRepository, error) {
	repo := &HistoryRepository{
		db:  db,
		log: log.With().Str("repository", "history").Logger(),
	}
	if err := repo.migrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *HistoryRepository) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			scenario    TEXT    NOT NULL,
			started_at  INTEGER NOT NULL,
			duration_ms REAL    NOT NULL,
			summary     TEXT    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	return nil
}

// Save stores a run summary, replacing any previous row with the same run ID.
func (r *HistoryRepository) Save(ctx context.Context, run *RunSummary) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode run summary: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (run_id, scenario, started_at, duration_ms, summary)
		VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.Scenario, run.StartedAt.UnixMilli(), run.DurationMS, string(data))
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.RunID, err)
	}

	r.log.Debug().Str("run_id", run.RunID).Msg("Run summary saved")
	return nil
}

// Get returns one stored run by ID, or nil when the run is unknown.
func (r *HistoryRepository) Get(ctx context.Context, runID string) (*RunSummary, error) {
	var data string
	err := r.db.QueryRowContext(ctx, "SELECT summary FROM runs WHERE run_id = ?", runID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	return decodeSummary(data)
}

// Latest returns the most recently started run, or nil when no runs exist.
func (r *HistoryRepository) Latest(ctx context.Context) (*RunSummary, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		"SELECT summary FROM runs ORDER BY started_at DESC LIMIT 1").Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest run: %w", err)
	}
	return decodeSummary(data)
}

// List returns up to limit runs, newest first.
func (r *HistoryRepository) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, scenario, started_at, duration_ms
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var startedMilli int64
		if err := rows.Scan(&rec.RunID, &rec.Scenario, &startedMilli, &rec.DurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		rec.StartedAt = time.UnixMilli(startedMilli).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return records, nil
}

// Ping verifies the underlying store is reachable and intact.
func (r *HistoryRepository) Ping(ctx context.Context) error {
	return r.db.QuickCheck(ctx)
}

func decodeSummary(data string) (*RunSummary, error) {
	var run RunSummary
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, fmt.Errorf("failed to decode stored run summary: %w", err)
	}
	return &run, nil
}
