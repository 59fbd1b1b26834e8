// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jungho-shin/data-migration-study/internal/constants"
	"github.com/jungho-shin/data-migration-study/internal/datasets"
)

// Collector defaults
const (
	// DefaultOutputDir is where artifacts land when a submission does not
	// name a directory
	DefaultOutputDir = "data"
	// DefaultMaxConcurrentJobs bounds parallel jobs to avoid saturating
	// the host's network and disk
	DefaultMaxConcurrentJobs = 2
	// DefaultCourtesyDelay is the pause between consecutive period fetches
	// of one job
	DefaultCourtesyDelay = time.Second
)

// Collector holds the configuration consumed by the acquisition engine
type Collector struct {
	// OutputDir is the default directory for downloaded artifacts
	OutputDir string
	// MaxConcurrentJobs is how many jobs may run at once
	MaxConcurrentJobs int
	// CourtesyDelay is the pause between consecutive period fetches
	CourtesyDelay time.Duration
	// BaseURL is the trip-data mirror base URL
	BaseURL string
}

// LoadCollector reads the collector configuration from the environment and
// validates it
func LoadCollector() (*Collector, error) {
	cfg := &Collector{
		OutputDir: GetEnv(constants.EnvOutputDir, DefaultOutputDir),
		BaseURL:   GetEnv(constants.EnvTripdataBaseURL, datasets.DefaultBaseURL),
	}

	maxJobs, err := GetEnvInt(constants.EnvMaxConcurrentJobs, DefaultMaxConcurrentJobs)
	if err != nil {
		return nil, err
	}
	cfg.MaxConcurrentJobs = maxJobs

	delay, err := GetEnvDuration(constants.EnvCourtesyDelay, DefaultCourtesyDelay)
	if err != nil {
		return nil, err
	}
	cfg.CourtesyDelay = delay

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the collector configuration
func (c *Collector) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.MaxConcurrentJobs < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", constants.EnvMaxConcurrentJobs, c.MaxConcurrentJobs)
	}
	if c.CourtesyDelay < 0 {
		return fmt.Errorf("%s cannot be negative, got %s", constants.EnvCourtesyDelay, c.CourtesyDelay)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	return nil
}

// GetEnv retrieves the value of an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// GetEnvInt retrieves an integer environment variable with a fallback value if not set
func GetEnvInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return n, nil
}

// GetEnvBool retrieves a boolean environment variable with a fallback value if not set
func GetEnvBool(key string, fallback bool) (bool, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return b, nil
}

// GetEnvDuration retrieves a duration environment variable with a fallback value if not set
func GetEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return d, nil
}
