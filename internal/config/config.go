// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/aristath/rebalancer/internal/domain"
)

// ScheduleParser accepts five or six field cron specs and descriptors such as "@every 1h"
var ScheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Config holds application configuration
type Config struct {
	DataDir           string // Directory holding the account store (always absolute)
	LogLevel          string
	Port              int
	DevMode           bool
	MetricsEnabled    bool
	RankingSchedule   string            // Cron spec for the scheduled ranking cycle
	SchedulerManagers []domain.Identity // Managers whose portfolios the scheduler cycles
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("REBALANCER_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	managers, err := parseManagers(getEnv("SCHEDULER_MANAGERS", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:           absDataDir,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Port:              getEnvAsInt("PORT", 8001),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		MetricsEnabled:    getEnvAsBool("METRICS_ENABLED", true),
		RankingSchedule:   getEnv("RANKING_SCHEDULE", "@every 1h"),
		SchedulerManagers: managers,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DatabasePath is the location of the account store
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "rebalancer.db")
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if _, err := ScheduleParser.Parse(c.RankingSchedule); err != nil {
		return fmt.Errorf("invalid RANKING_SCHEDULE %q: %w", c.RankingSchedule, err)
	}
	for _, m := range c.SchedulerManagers {
		if domain.IsZero(m) {
			return fmt.Errorf("SCHEDULER_MANAGERS must not contain the zero identity")
		}
	}
	return nil
}

func parseManagers(raw string) ([]domain.Identity, error) {
	var managers []domain.Identity
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := domain.ParseIdentity(part)
		if err != nil {
			return nil, fmt.Errorf("invalid SCHEDULER_MANAGERS entry: %w", err)
		}
		managers = append(managers, id)
	}
	return managers, nil
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
