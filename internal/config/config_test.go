package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("QUANTBENCH_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.Equal(t, filepath.Join(cfg.DataDir, "out"), cfg.OutputDir)
	assert.Equal(t, 8090, cfg.Port)
	assert.Equal(t, 3, cfg.BenchRuns)
	assert.Equal(t, 0, cfg.Workers)
	assert.False(t, cfg.UseProcessPool)
	assert.False(t, cfg.Publish.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("QUANTBENCH_DATA_DIR", t.TempDir())
	t.Setenv("QUANTBENCH_PORT", "9001")
	t.Setenv("BENCH_RUNS", "5")
	t.Setenv("BENCH_WORKERS", "4")
	t.Setenv("BENCH_PROCESS_POOL", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, 5, cfg.BenchRuns)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 4, cfg.EffectiveWorkers())
	assert.True(t, cfg.UseProcessPool)
}

func TestLoadCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	t.Setenv("QUANTBENCH_DATA_DIR", dir)

	_, err := Load()
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"port too low", Config{Port: 0, BenchRuns: 1}},
		{"port too high", Config{Port: 70000, BenchRuns: 1}},
		{"zero runs", Config{Port: 8090, BenchRuns: 0}},
		{"negative workers", Config{Port: 8090, BenchRuns: 1, Workers: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestEffectiveWorkersFallsBackToCPUCount(t *testing.T) {
	cfg := Config{Port: 8090, BenchRuns: 1, Workers: 0}
	assert.Greater(t, cfg.EffectiveWorkers(), 0)
}

func TestPublishEnabled(t *testing.T) {
	p := &PublishConfig{
		Endpoint:        "https://example.com",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Bucket:          "bench",
	}
	assert.True(t, p.Enabled())

	p.Bucket = ""
	assert.False(t, p.Enabled())

	var nilCfg *PublishConfig
	assert.False(t, nilCfg.Enabled())
}
