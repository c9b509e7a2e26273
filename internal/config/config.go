// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for datasets and run artifacts (always absolute)
	OutputDir      string // Directory for reports and artifacts, defaults to <DataDir>/out
	LogLevel       string
	Pretty         bool
	Port           int
	BenchRuns      int    // Repetitions per ingestion engine when profiling load time
	Workers        int    // Worker count for the parallel strategies (0 = NumCPU)
	UseProcessPool bool   // Also run the process-pool strategies during a benchmark run
	BenchCron      string // Optional cron spec for scheduled runs in serve mode
	Publish        *PublishConfig
}

// PublishConfig holds the optional S3-compatible artifact publisher settings.
// Publishing stays disabled unless endpoint, credentials and bucket are all set.
type PublishConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	KeepRuns        int // Minimum number of published runs kept during rotation
	RetentionDays   int // Published runs older than this are eligible for deletion
}

// Enabled reports whether the publisher is fully configured.
func (p *PublishConfig) Enabled() bool {
	return p != nil && p.Endpoint != "" && p.AccessKeyID != "" && p.SecretAccessKey != "" && p.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("QUANTBENCH_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	outDir := getEnv("QUANTBENCH_OUT_DIR", "")
	if outDir == "" {
		outDir = filepath.Join(absDataDir, "out")
	}
	absOutDir, err := filepath.Abs(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory path: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		OutputDir:      absOutDir,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Pretty:         getEnvAsBool("LOG_PRETTY", true),
		Port:           getEnvAsInt("QUANTBENCH_PORT", 8090),
		BenchRuns:      getEnvAsInt("BENCH_RUNS", 3),
		Workers:        getEnvAsInt("BENCH_WORKERS", 0),
		UseProcessPool: getEnvAsBool("BENCH_PROCESS_POOL", false),
		BenchCron:      getEnv("BENCH_CRON", ""),
		Publish:        loadPublishConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and consistent
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be in 1..65535", c.Port)
	}
	if c.BenchRuns < 1 {
		return fmt.Errorf("invalid bench runs %d: must be at least 1", c.BenchRuns)
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid worker count %d: must be zero or positive", c.Workers)
	}
	return nil
}

// EffectiveWorkers resolves the configured worker count, falling back to the
// host's logical CPU count when unset.
func (c *Config) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// loadPublishConfig loads the optional publisher settings. Credentials have
// no defaults; a partially configured publisher reports Enabled() == false.
func loadPublishConfig() *PublishConfig {
	return &PublishConfig{
		Endpoint:        getEnv("PUBLISH_S3_ENDPOINT", ""),
		Region:          getEnv("PUBLISH_S3_REGION", "auto"),
		AccessKeyID:     getEnv("PUBLISH_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("PUBLISH_S3_SECRET_ACCESS_KEY", ""),
		Bucket:          getEnv("PUBLISH_S3_BUCKET", ""),
		KeepRuns:        getEnvAsInt("PUBLISH_KEEP_RUNS", 3),
		RetentionDays:   getEnvAsInt("PUBLISH_RETENTION_DAYS", 30),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
