// Package config loads service configuration from an optional YAML file,
// a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"college-budgeting-backend/internal/logging"
	"college-budgeting-backend/internal/storage"
)

// Config holds the complete service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Model    ModelConfig    `koanf:"model"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig selects and tunes the SQL backend.
type DatabaseConfig struct {
	Driver     string        `koanf:"driver"`
	URL        string        `koanf:"url"`
	MaxRetries int           `koanf:"max_retries"`
	RetryDelay time.Duration `koanf:"retry_delay"`
}

// RedisConfig configures the read cache. The service runs without it when
// Disabled is set or the server is unreachable.
type RedisConfig struct {
	URL      string `koanf:"url"`
	Disabled bool   `koanf:"disabled"`
}

// ModelConfig configures category model storage and retraining.
type ModelConfig struct {
	Path            string        `koanf:"path"`
	MinSamples      int           `koanf:"min_samples"`
	RetrainInterval time.Duration `koanf:"retrain_interval"`
	RetrainTimeout  time.Duration `koanf:"retrain_timeout"`
	// Schedule is a cron spec for periodic retrains. "off" disables it.
	Schedule string `koanf:"schedule"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ScheduleOff disables the periodic retrain.
const ScheduleOff = "off"

// RetrainSchedule returns the cron spec to install, or "" when disabled.
func (m ModelConfig) RetrainSchedule() string {
	if m.Schedule == ScheduleOff {
		return ""
	}
	return m.Schedule
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case storage.DriverPostgres, storage.DriverSQLite:
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Model.Path == "" {
		return errors.New("model.path is required")
	}
	if c.Model.MinSamples <= 0 {
		return fmt.Errorf("model.min_samples must be positive, got %d", c.Model.MinSamples)
	}
	if spec := c.Model.RetrainSchedule(); spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid model.schedule %q: %w", spec, err)
		}
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case logging.FormatJSON, logging.FormatConsole:
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	return nil
}
