package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config represents the refwire configuration
type Config struct {
	Scenes   []string       `mapstructure:"scenes"`
	Validate ValidateConfig `mapstructure:"validate"`
	Output   OutputConfig   `mapstructure:"output"`
	Log      LogConfig      `mapstructure:"log"`
	History  HistoryConfig  `mapstructure:"history"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ValidateConfig controls how scenes are checked
type ValidateConfig struct {
	AllowRepair    bool `mapstructure:"allow_repair"`
	FailOnWarnings bool `mapstructure:"fail_on_warnings"`
	OnSave         bool `mapstructure:"on_save"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// HistoryConfig selects the run history database. An empty DSN disables history.
type HistoryConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// WatchConfig controls the watch command
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// MetricsConfig controls the Prometheus textfile export. An empty file disables it.
type MetricsConfig struct {
	File string `mapstructure:"file"`
}

// FileNames are the config file names looked up in the working directory, in order
var FileNames = []string{"refwire.yaml", "refwire.yml"}

// Load loads the configuration from refwire.yaml in dir, REFWIRE_* environment variables and
// defaults
func Load(dir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("scenes", []string{"**/*.scene.yaml"})
	v.SetDefault("validate.allow_repair", true)
	v.SetDefault("validate.fail_on_warnings", false)
	v.SetDefault("validate.on_save", true)
	v.SetDefault("output.format", "text")
	v.SetDefault("output.no_color", false)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.development", false)
	v.SetDefault("history.driver", "sqlite3")
	v.SetDefault("history.dsn", "")
	v.SetDefault("watch.debounce", 100*time.Millisecond)
	v.SetDefault("metrics.file", "")

	v.SetConfigName("refwire")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("REFWIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// FindRoot walks up from dir to the nearest directory holding a config file
func FindRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		for _, name := range FileNames {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no refwire.yaml found")
		}
		dir = parent
	}
}

// NewLogger builds the zap logger described by the log section
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	var zc zap.Config
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

func parseLevel(s string) (zapcore.Level, error) {
	var level zapcore.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

func validateConfig(cfg *Config) error {
	switch cfg.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("output.format must be text or json, got: %s", cfg.Output.Format)
	}

	if _, err := parseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	switch cfg.History.Driver {
	case "sqlite3", "pgx", "postgres":
	default:
		return fmt.Errorf("history.driver must be sqlite3, pgx or postgres, got: %s", cfg.History.Driver)
	}

	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got: %s", cfg.Watch.Debounce)
	}
	return nil
}
