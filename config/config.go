// Package config loads application configuration from file and environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Training TrainingConfig `mapstructure:"training"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// ForecastConfig holds forecast generation configuration.
type ForecastConfig struct {
	Hours     int    `mapstructure:"hours"`
	ChartPath string `mapstructure:"chart_path"`
}

// TrainingConfig holds model training configuration.
type TrainingConfig struct {
	WindowDays          int           `mapstructure:"window_days"`
	MinRealObservations int           `mapstructure:"min_real_observations"`
	StaleAfter          time.Duration `mapstructure:"stale_after"`
	Seed                uint64        `mapstructure:"seed"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the given file, falling back to defaults for
// anything unset. Environment variables prefixed with AQICAST_ override file
// values. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("AQICAST")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.path", "aqicast.db")
	v.SetDefault("forecast.hours", 24)
	v.SetDefault("forecast.chart_path", "")
	v.SetDefault("training.window_days", 30)
	v.SetDefault("training.min_real_observations", 50)
	v.SetDefault("training.stale_after", 24*time.Hour)
	v.SetDefault("training.seed", 0)
	v.SetDefault("logging.level", "info")
}

// Validate checks the configuration for values the predictor would reject.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path must not be empty")
	}
	if c.Forecast.Hours < 1 || c.Forecast.Hours > 168 {
		return fmt.Errorf("forecast.hours must be in [1, 168], got %d", c.Forecast.Hours)
	}
	if c.Training.WindowDays < 1 {
		return fmt.Errorf("training.window_days must be positive, got %d", c.Training.WindowDays)
	}
	if c.Training.StaleAfter <= 0 {
		return fmt.Errorf("training.stale_after must be positive, got %s", c.Training.StaleAfter)
	}
	return nil
}
