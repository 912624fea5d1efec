// Package config loads pipeline configuration from a file plus defaults.
// The resulting Config value is passed explicitly into component constructors;
// there is no package-level mutable state.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all settings for the transform and merge stages.
type Config struct {
	// BronzeDir is the root directory holding one subdirectory of raw
	// snapshot parquet files per entity.
	BronzeDir string `mapstructure:"bronze_dir"`

	// SilverDir is where transformed dimension/fact parquet tables are
	// written, under dims/ and facts/ subdirectories.
	SilverDir string `mapstructure:"silver_dir"`

	Warehouse Warehouse `mapstructure:"warehouse"`
	Logging   Logging   `mapstructure:"logging"`
	Metrics   Metrics   `mapstructure:"metrics"`

	// CalendarFallbackStart seeds the calendar dimension when no source
	// entity carries a parsable date (format 2006-01-02).
	CalendarFallbackStart string `mapstructure:"calendar_fallback_start"`
}

// Warehouse configures the merge target.
type Warehouse struct {
	// Kind selects the registered backend: "postgres", "sqlite" or "mssql".
	Kind string `mapstructure:"kind"`
	DSN  string `mapstructure:"dsn"`

	// Schema qualifies warehouse table names (ignored by sqlite).
	Schema string `mapstructure:"schema"`

	// BatchSize bounds rows per merge statement/transaction.
	BatchSize int `mapstructure:"batch_size"`

	// AutoCreateTables runs idempotent DDL before the first merge.
	AutoCreateTables bool `mapstructure:"auto_create_tables"`
}

// Logging configures log output.
type Logging struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Metrics configures the optional Datadog backend.
type Metrics struct {
	Enabled    bool          `mapstructure:"enabled"`
	JobName    string        `mapstructure:"job_name"`
	Tags       []string      `mapstructure:"tags"`
	FlushEvery time.Duration `mapstructure:"flush_every"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		BronzeDir: "data/bronze",
		SilverDir: "data/silver",
		Warehouse: Warehouse{
			Kind:             "postgres",
			Schema:           "analytics",
			BatchSize:        1000,
			AutoCreateTables: true,
		},
		Logging:               Logging{Level: "info", Pretty: true},
		Metrics:               Metrics{JobName: "systock-dw", FlushEvery: time.Minute},
		CalendarFallbackStart: "2023-01-01",
	}
}

// Load reads a config file (YAML/JSON/TOML by extension) over the defaults.
// An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("bronze_dir", cfg.BronzeDir)
	v.SetDefault("silver_dir", cfg.SilverDir)
	v.SetDefault("warehouse.kind", cfg.Warehouse.Kind)
	v.SetDefault("warehouse.schema", cfg.Warehouse.Schema)
	v.SetDefault("warehouse.batch_size", cfg.Warehouse.BatchSize)
	v.SetDefault("warehouse.auto_create_tables", cfg.Warehouse.AutoCreateTables)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.pretty", cfg.Logging.Pretty)
	v.SetDefault("metrics.job_name", cfg.Metrics.JobName)
	v.SetDefault("metrics.flush_every", cfg.Metrics.FlushEvery)
	v.SetDefault("calendar_fallback_start", cfg.CalendarFallbackStart)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.BronzeDir == "" {
		return fmt.Errorf("bronze_dir must be set")
	}
	if c.SilverDir == "" {
		return fmt.Errorf("silver_dir must be set")
	}
	if c.Warehouse.BatchSize <= 0 {
		return fmt.Errorf("warehouse.batch_size must be positive")
	}
	switch c.Warehouse.Kind {
	case "postgres", "sqlite", "mssql":
	default:
		return fmt.Errorf("warehouse.kind must be postgres, sqlite or mssql, got %q", c.Warehouse.Kind)
	}
	if _, err := time.Parse("2006-01-02", c.CalendarFallbackStart); err != nil {
		return fmt.Errorf("calendar_fallback_start must be a YYYY-MM-DD date, got %q", c.CalendarFallbackStart)
	}
	return nil
}

// CalendarFallback returns calendar_fallback_start as a time. Load rejects
// values that do not parse, so a loaded Config never yields the zero time.
func (c Config) CalendarFallback() time.Time {
	t, _ := time.Parse("2006-01-02", c.CalendarFallbackStart)
	return t
}
