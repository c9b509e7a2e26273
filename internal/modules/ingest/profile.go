package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantbench/internal/marketdata"
	"github.com/aristath/quantbench/internal/utils"
)

// EngineResult summarizes one engine's profiled loads.
type EngineResult struct {
	Engine    string  `json:"engine"`
	Rows      int     `json:"rows"`
	Runs      int     `json:"runs"`
	AvgLoadMS float64 `json:"avg_load_ms"`
	MinLoadMS float64 `json:"min_load_ms"`
	MaxLoadMS float64 `json:"max_load_ms"`
	PeakMiB   float64 `json:"peak_mib"`
}

// Profile loads the dataset with every engine `runs` times, timing load plus
// index build per run and tracking peak RSS per engine. All engines must
// produce the same index; the first engine's index is returned for the rest
// of the benchmark to use.
func Profile(ctx context.Context, engines []Engine, path string, runs int, log zerolog.Logger) ([]EngineResult, *marketdata.Index, error) {
	if len(engines) == 0 {
		return nil, nil, fmt.Errorf("no ingestion engines given")
	}
	if runs < 1 {
		runs = 1
	}
	log = log.With().Str("component", "ingest").Logger()

	results := make([]EngineResult, 0, len(engines))
	var baseIndex *marketdata.Index

	for _, engine := range engines {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		metrics := &utils.PerformanceMetrics{OperationName: "load_" + engine.Name()}
		sampler := utils.NewMemorySampler(5 * time.Millisecond)
		sampler.Start()

		var rows int
		var idx *marketdata.Index
		for run := 0; run < runs; run++ {
			if err := ctx.Err(); err != nil {
				sampler.Stop()
				return nil, nil, err
			}

			start := time.Now()
			n, err := engine.Load(path)
			if err != nil {
				sampler.Stop()
				return nil, nil, fmt.Errorf("engine %s failed to load dataset: %w", engine.Name(), err)
			}
			built, err := engine.BuildIndex()
			if err != nil {
				sampler.Stop()
				return nil, nil, fmt.Errorf("engine %s failed to build index: %w", engine.Name(), err)
			}
			metrics.Record(time.Since(start))
			rows, idx = n, built
		}

		mem := sampler.Stop()
		metrics.LogMetrics(log)

		if err := engine.Close(); err != nil {
			log.Warn().Err(err).Str("engine", engine.Name()).Msg("Failed to close engine")
		}

		if baseIndex == nil {
			baseIndex = idx
		} else if err := indexEquivalent(baseIndex, idx); err != nil {
			return nil, nil, fmt.Errorf("engine %s produced a different index than %s: %w",
				engine.Name(), engines[0].Name(), err)
		}

		results = append(results, EngineResult{
			Engine:    engine.Name(),
			Rows:      rows,
			Runs:      runs,
			AvgLoadMS: toMS(metrics.AvgDuration()),
			MinLoadMS: toMS(metrics.MinDuration),
			MaxLoadMS: toMS(metrics.MaxDuration),
			PeakMiB:   mem.PeakMiB(),
		})
	}

	return results, baseIndex, nil
}

// indexEquivalent verifies two indexes agree on symbols, histories and
// latest observations. The benchmark is invalid if engines disagree.
func indexEquivalent(a, b *marketdata.Index) error {
	if a.NumRecords() != b.NumRecords() {
		return fmt.Errorf("record count mismatch: %d vs %d", a.NumRecords(), b.NumRecords())
	}

	symA, symB := a.Symbols(), b.Symbols()
	if len(symA) != len(symB) {
		return fmt.Errorf("symbol count mismatch: %d vs %d", len(symA), len(symB))
	}
	for i := range symA {
		if symA[i] != symB[i] {
			return fmt.Errorf("symbol mismatch at %d: %q vs %q", i, symA[i], symB[i])
		}
	}

	for _, symbol := range symA {
		histA, histB := a.History(symbol), b.History(symbol)
		if len(histA) != len(histB) {
			return fmt.Errorf("history length mismatch for %s: %d vs %d", symbol, len(histA), len(histB))
		}
		for i := range histA {
			if histA[i] != histB[i] {
				return fmt.Errorf("history mismatch for %s at %d: %v vs %v", symbol, i, histA[i], histB[i])
			}
		}

		latestA, _ := a.Latest(symbol)
		latestB, ok := b.Latest(symbol)
		if !ok {
			return fmt.Errorf("latest record missing for %s", symbol)
		}
		if latestA.Price != latestB.Price || !latestA.Timestamp.Equal(latestB.Timestamp) {
			return fmt.Errorf("latest record mismatch for %s: %v@%v vs %v@%v",
				symbol, latestA.Price, latestA.Timestamp, latestB.Price, latestB.Timestamp)
		}
	}
	return nil
}

func toMS(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
