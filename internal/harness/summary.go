package harness

import (
	"time"

	"github.com/aristath/quantbench/internal/modules/report"
)

// RunSummary is the complete record of one benchmark run: the measured
// results plus the run's own metadata and the artifacts it produced. This is
// what the history database stores and the API serves.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	Scenario    string    `json:"scenario"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMS  float64   `json:"duration_ms"`

	Report    report.Summary    `json:"report"`
	Artifacts *report.Artifacts `json:"artifacts,omitempty"`
	Published []string          `json:"published,omitempty"`
}
