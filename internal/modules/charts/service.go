// Package charts builds the chart-data artifacts a benchmark run leaves next
// to its report. Plotting is delegated to whatever reads the JSON.
package charts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ChartDataPoint represents a single point on a chart
type ChartDataPoint struct {
	Time  string  `json:"time"`  // category label, or YYYY-MM-DD for series
	Value float64 `json:"value"`
}

// Chart is one named series, serialized to <name>.json.
type Chart struct {
	Name   string           `json:"name"`
	Title  string           `json:"title"`
	Unit   string           `json:"unit"`
	Points []ChartDataPoint `json:"points"`
}

// Service writes and loads chart artifacts under a run's output directory.
type Service struct {
	log zerolog.Logger
}

// NewService creates a new charts service
func NewService(log zerolog.Logger) *Service {
	return &Service{log: log.With().Str("service", "charts").Logger()}
}

// chartName keeps artifact names to a safe character set, so handler input
// can be passed through without escaping the charts directory.
var chartName = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Write serializes one chart to dir/<name>.json.
func (s *Service) Write(dir string, chart Chart) (string, error) {
	if !chartName.MatchString(chart.Name) {
		return "", fmt.Errorf("invalid chart name %q", chart.Name)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create chart directory: %w", err)
	}

	data, err := json.MarshalIndent(chart, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode chart %s: %w", chart.Name, err)
	}

	path := filepath.Join(dir, chart.Name+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write chart %s: %w", chart.Name, err)
	}

	s.log.Debug().Str("chart", chart.Name).Str("path", path).Msg("Chart artifact written")
	return path, nil
}

// WriteAll writes every chart, returning the artifact paths in input order.
func (s *Service) WriteAll(dir string, charts []Chart) ([]string, error) {
	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		path, err := s.Write(dir, c)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Load reads a chart artifact back by name.
func (s *Service) Load(dir, name string) (*Chart, error) {
	if !chartName.MatchString(name) {
		return nil, fmt.Errorf("invalid chart name %q", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, name+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read chart %s: %w", name, err)
	}

	var chart Chart
	if err := json.Unmarshal(data, &chart); err != nil {
		return nil, fmt.Errorf("failed to decode chart %s: %w", name, err)
	}
	return &chart, nil
}

// List returns the names of every chart artifact in dir, sorted. A missing
// directory is an empty list, not an error.
func (s *Service) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list charts: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
