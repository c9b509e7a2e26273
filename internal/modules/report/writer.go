package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/quantbench/internal/modules/charts"
)

// Artifact file names inside a run's output directory.
const (
	ReportFile  = "performance_report.md"
	ResultsFile = "results.json"
	ChartsDir   = "charts"
)

// Artifacts lists the files one run left in its output directory.
type Artifacts struct {
	ReportPath  string   `json:"report_path"`
	ResultsPath string   `json:"results_path"`
	ChartPaths  []string `json:"chart_paths"`
}

// Writer renders a run summary to disk: the markdown report, results.json
// and the chart data artifacts.
type Writer struct {
	builder *Builder
	charts  *charts.Service
	log     zerolog.Logger
}

// NewWriter creates a new report writer
func NewWriter(log zerolog.Logger) *Writer {
	return &Writer{
		builder: NewBuilder(log),
		charts:  charts.NewService(log),
		log:     log.With().Str("component", "report").Logger(),
	}
}

// Write renders every artifact for the run into dir.
func (w *Writer) Write(dir string, s *Summary) (*Artifacts, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	reportPath := filepath.Join(dir, ReportFile)
	if err := os.WriteFile(reportPath, []byte(w.builder.Build(s)), 0644); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode results: %w", err)
	}
	resultsPath := filepath.Join(dir, ResultsFile)
	if err := os.WriteFile(resultsPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write results: %w", err)
	}

	chartPaths, err := w.charts.WriteAll(filepath.Join(dir, ChartsDir), BuildCharts(s))
	if err != nil {
		return nil, err
	}

	w.log.Info().
		Str("dir", dir).
		Int("charts", len(chartPaths)).
		Msg("Run artifacts written")

	return &Artifacts{
		ReportPath:  reportPath,
		ResultsPath: resultsPath,
		ChartPaths:  chartPaths,
	}, nil
}

// BuildCharts converts a summary into chart artifacts: ingestion time and
// memory per engine, rolling kernel times, and the strategy timings.
func BuildCharts(s *Summary) []charts.Chart {
	var out []charts.Chart

	ingestTime := charts.Chart{
		Name:  "ingestion_time",
		Title: "Data Ingestion Time (Lower is Better)",
		Unit:  "ms",
	}
	ingestMem := charts.Chart{
		Name:  "ingestion_memory",
		Title: "Data Ingestion Peak Memory (Lower is Better)",
		Unit:  "MiB",
	}
	for _, r := range s.Ingestion {
		ingestTime.Points = append(ingestTime.Points, charts.ChartDataPoint{Time: r.Engine, Value: r.AvgLoadMS})
		ingestMem.Points = append(ingestMem.Points, charts.ChartDataPoint{Time: r.Engine, Value: r.PeakMiB})
	}
	if len(ingestTime.Points) > 0 {
		out = append(out, ingestTime, ingestMem)
	}

	if s.Rolling != nil && len(s.Rolling.Results) > 0 {
		rolling := charts.Chart{
			Name:  "rolling_time",
			Title: "Rolling Analytics Time (Lower is Better)",
			Unit:  "ms",
		}
		for _, r := range s.Rolling.Results {
			rolling.Points = append(rolling.Points, charts.ChartDataPoint{Time: r.Engine, Value: r.AvgComputeMS})
		}
		out = append(out, rolling)
	}

	if len(s.Transform) > 0 {
		transform := charts.Chart{
			Name:  "transform_strategies",
			Title: "Rolling Transform Strategies (Lower is Better)",
			Unit:  "ms",
		}
		for _, r := range s.Transform {
			transform.Points = append(transform.Points, charts.ChartDataPoint{Time: r.Strategy, Value: r.DurationMS})
		}
		out = append(out, transform)
	}

	if len(s.Aggregation) > 0 {
		agg := charts.Chart{
			Name:  "aggregation_strategies",
			Title: "Portfolio Aggregation Strategies (Lower is Better)",
			Unit:  "ms",
		}
		for _, r := range s.Aggregation {
			agg.Points = append(agg.Points, charts.ChartDataPoint{Time: r.Strategy, Value: r.DurationMS})
		}
		out = append(out, agg)
	}

	return out
}
