// Package cli implements the command-line interface for systock-dw.
package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"systock/internal/config"
	"systock/internal/logging"
	"systock/internal/metrics"
	"systock/internal/metrics/datadog"
	"systock/internal/snapshot"
	"systock/internal/star"
	"systock/internal/transform"
)

var (
	// Global flags
	cfgFile  string
	logLevel string

	// Global state built by initConfig
	cfg config.Config
	log zerolog.Logger

	rootCmd = &cobra.Command{
		Use:   "systock-dw",
		Short: "Star-schema warehouse pipeline for retail snapshot data",
		Long: `systock-dw transforms raw entity snapshots (bronze parquet) into
dimension and fact tables (silver parquet) and merges them into a
relational warehouse (postgres, sqlite or mssql).

Stages can run separately: 'transform' only rebuilds the silver layer,
'load' only merges existing silver tables, and 'run' does both.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(reportCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log = logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})
	return nil
}

func layout() star.Layout {
	return star.Layout{Dir: cfg.SilverDir}
}

// newMetrics returns the configured metrics backend, or Nop when disabled.
// The returned cleanup flushes and closes the backend.
func newMetrics(ctx context.Context) (metrics.Backend, func(), error) {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}, func() {}, nil
	}

	be, err := datadog.NewBackend(ctx, datadog.Options{
		JobName:    cfg.Metrics.JobName,
		Tags:       cfg.Metrics.Tags,
		FlushEvery: cfg.Metrics.FlushEvery,
	})
	if err != nil {
		return nil, nil, err
	}
	return be, func() {
		if err := be.Close(); err != nil {
			log.Warn().Err(err).Msg("metrics backend close failed")
		}
	}, nil
}

// newBuilders wires the bronze reader into dimension and fact builders.
// Config validation guarantees the calendar fallback date parses.
func newBuilders() (*transform.DimensionBuilder, *transform.FactBuilder) {
	src := snapshot.NewReader(cfg.BronzeDir, log)
	return transform.NewDimensionBuilder(src, cfg.CalendarFallback(), log),
		transform.NewFactBuilder(src, log)
}
