package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario describes a single benchmark scenario: the dataset and portfolio
// tree it runs against, plus the generator parameters used to produce them.
type Scenario struct {
	Name          string   `yaml:"name"`
	DatasetPath   string   `yaml:"dataset"`
	PortfolioPath string   `yaml:"portfolio"`
	Symbols       []string `yaml:"symbols"`
	Days          int      `yaml:"days"`
	Seed          int64    `yaml:"seed"`
	Window        int      `yaml:"window"`
	Runs          int      `yaml:"runs"` // 0 = use the configured BenchRuns
}

// DefaultScenario returns the built-in demo scenario rooted at dataDir.
func DefaultScenario(dataDir string) *Scenario {
	return &Scenario{
		Name:          "default",
		DatasetPath:   filepath.Join(dataDir, "market_data.csv"),
		PortfolioPath: filepath.Join(dataDir, "portfolio.json"),
		Symbols:       []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "TSLA", "META", "JPM"},
		Days:          252,
		Seed:          42,
		Window:        20,
	}
}

// LoadScenario reads a scenario file. Relative dataset and portfolio paths
// are resolved against the scenario file's own directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}

	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	s.applyDefaults()

	base := filepath.Dir(path)
	s.DatasetPath = resolvePath(base, s.DatasetPath)
	s.PortfolioPath = resolvePath(base, s.PortfolioPath)

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", s.Name, err)
	}

	return &s, nil
}

// Save writes the scenario as YAML so a generated dataset can be re-run later.
func (s *Scenario) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}
	return nil
}

// Validate checks scenario consistency
func (s *Scenario) Validate() error {
	if s.DatasetPath == "" {
		return fmt.Errorf("dataset path is required")
	}
	if s.PortfolioPath == "" {
		return fmt.Errorf("portfolio path is required")
	}
	if s.Window < 2 {
		return fmt.Errorf("window %d too small: need at least 2", s.Window)
	}
	if s.Days < 1 {
		return fmt.Errorf("days %d too small: need at least 1", s.Days)
	}
	return nil
}

func (s *Scenario) applyDefaults() {
	if s.Window == 0 {
		s.Window = 20
	}
	if s.Days == 0 {
		s.Days = 252
	}
	if s.Seed == 0 {
		s.Seed = 42
	}
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
