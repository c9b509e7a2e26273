package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/quantbench/internal/config"
	"github.com/aristath/quantbench/internal/events"
	"github.com/aristath/quantbench/internal/marketdata"
	"github.com/aristath/quantbench/internal/modules/portfolio"
	"github.com/aristath/quantbench/internal/utils"
)

// treeDepth controls the size of generated demo portfolios: two group nodes
// per level, 2-4 positions per node.
const treeDepth = 3

var (
	genOutDir  string
	genSymbols string
	genDays    int
	genSeed    int64
)

// generateCmd produces the synthetic inputs a benchmark run consumes.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic dataset and demo portfolio tree",
	Long: `Generate a deterministic synthetic market-data CSV, a nested demo
portfolio tree and a scenario file describing both, so the same inputs can
be benchmarked again later.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&genOutDir, "out", "", "Directory for the generated files (default: data dir)")
	generateCmd.Flags().StringVar(&genSymbols, "symbols", "", "Comma-separated symbol list (default: built-in demo symbols)")
	generateCmd.Flags().IntVar(&genDays, "days", 252, "Trading days per symbol")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 42, "Generator seed")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	outDir := cfg.DataDir
	if genOutDir != "" {
		outDir, err = filepath.Abs(genOutDir)
		if err != nil {
			return fmt.Errorf("failed to resolve output directory: %w", err)
		}
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	scenario := config.DefaultScenario(outDir)
	scenario.Days = genDays
	scenario.Seed = genSeed
	if symbols := utils.ParseCSV(genSymbols); len(symbols) > 0 {
		scenario.Symbols = symbols
	}
	if err := scenario.Validate(); err != nil {
		return err
	}

	bus := events.NewBus(log)
	if err := generateScenarioAssets(scenario, bus, log); err != nil {
		return err
	}

	scenarioPath := filepath.Join(outDir, "scenario.yaml")
	if err := scenario.Save(scenarioPath); err != nil {
		return err
	}

	log.Info().
		Str("dataset", scenario.DatasetPath).
		Str("portfolio", scenario.PortfolioPath).
		Str("scenario", scenarioPath).
		Int("symbols", len(scenario.Symbols)).
		Int("days", scenario.Days).
		Msg("Scenario generated")

	return nil
}

// generateScenarioAssets writes the scenario's dataset and portfolio tree,
// overwriting existing files.
func generateScenarioAssets(scenario *config.Scenario, bus *events.Bus, log zerolog.Logger) error {
	gen := marketdata.NewGenerator(scenario.Seed, log)
	rows, err := gen.GenerateToFile(scenario.DatasetPath, scenario.Symbols, scenario.Days)
	if err != nil {
		return fmt.Errorf("failed to generate dataset: %w", err)
	}
	bus.Emit("generate", &events.DatasetGeneratedData{
		Path:    scenario.DatasetPath,
		Symbols: len(scenario.Symbols),
		Rows:    rows,
	})

	tree := portfolio.GenerateTree(scenario.Symbols, treeDepth, scenario.Seed)
	if err := portfolio.SaveTree(scenario.PortfolioPath, tree); err != nil {
		return fmt.Errorf("failed to write portfolio tree: %w", err)
	}

	return nil
}

// ensureScenarioAssets generates any inputs the scenario is missing.
// Scenarios carry their own generator parameters, so a fresh checkout can
// run the demo scenario without a separate generate step. Scenarios without
// symbols are never generated; the run fails in the ingest phase instead.
func ensureScenarioAssets(scenario *config.Scenario, bus *events.Bus, log zerolog.Logger) error {
	if len(scenario.Symbols) == 0 {
		return nil
	}

	if _, err := os.Stat(scenario.DatasetPath); os.IsNotExist(err) {
		log.Info().Str("dataset", scenario.DatasetPath).Msg("Dataset missing, generating")
		gen := marketdata.NewGenerator(scenario.Seed, log)
		rows, genErr := gen.GenerateToFile(scenario.DatasetPath, scenario.Symbols, scenario.Days)
		if genErr != nil {
			return fmt.Errorf("failed to generate dataset: %w", genErr)
		}
		bus.Emit("bootstrap", &events.DatasetGeneratedData{
			Path:    scenario.DatasetPath,
			Symbols: len(scenario.Symbols),
			Rows:    rows,
		})
	}

	if _, err := os.Stat(scenario.PortfolioPath); os.IsNotExist(err) {
		log.Info().Str("portfolio", scenario.PortfolioPath).Msg("Portfolio tree missing, generating")
		tree := portfolio.GenerateTree(scenario.Symbols, treeDepth, scenario.Seed)
		if saveErr := portfolio.SaveTree(scenario.PortfolioPath, tree); saveErr != nil {
			return fmt.Errorf("failed to write portfolio tree: %w", saveErr)
		}
	}

	return nil
}
