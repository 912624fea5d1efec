package cli

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"systock/internal/load"
	"systock/internal/metrics"
	"systock/internal/star"
	"systock/internal/transform"
	"systock/internal/warehouse"

	// Register warehouse backends.
	_ "systock/internal/warehouse/mssql"
	_ "systock/internal/warehouse/postgres"
	_ "systock/internal/warehouse/sqlite"
)

var (
	onlyDimensions bool
	onlyFacts      bool
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Rebuild silver dimension and fact tables from the bronze snapshots",
	Long: `Read the newest snapshot per entity from the bronze directory, apply the
star-schema transformations and write one parquet file per dimension and
fact table under the silver directory. The warehouse is not touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()
		return runPipeline(ctx, false)
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Merge existing silver tables into the warehouse",
	Long: `Merge the silver parquet tables produced by a previous 'transform' into the
configured warehouse without rebuilding them. Dimension rows overwrite
unconditionally; fact rows only replace strictly older loads.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		met, closeMetrics, err := newMetrics(ctx)
		if err != nil {
			return err
		}
		defer closeMetrics()

		counts, failures := newLoader(met).MergeSilver(ctx, layout(), selectTables())
		for table, n := range counts {
			log.Info().Str("table", table).Int64("affected", n).Msg("table loaded")
		}
		return failureSummary(failures)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Transform and load in one pass",
	Long: `Run the full pipeline: rebuild the silver layer from the bronze snapshots
and merge each table into the warehouse as it is built. A failing entity
is logged and skipped; the remaining entities still run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()
		return runPipeline(ctx, true)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{transformCmd, loadCmd, runCmd} {
		cmd.Flags().BoolVar(&onlyDimensions, "dimensions", false,
			"process dimension tables only")
		cmd.Flags().BoolVar(&onlyFacts, "facts", false,
			"process fact tables only")
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func newLoader(met metrics.Backend) *load.Loader {
	return load.New(
		warehouse.Config{
			Kind:   cfg.Warehouse.Kind,
			DSN:    cfg.Warehouse.DSN,
			Schema: cfg.Warehouse.Schema,
		},
		load.Options{
			BatchSize:    cfg.Warehouse.BatchSize,
			EnsureTables: cfg.Warehouse.AutoCreateTables,
			Metrics:      met,
		},
		log,
	)
}

// selectTables resolves the --dimensions/--facts filter for load-only runs.
func selectTables() []star.TableSpec {
	all := star.AllTables()
	if onlyDimensions == onlyFacts {
		return all
	}

	var out []star.TableSpec
	for _, spec := range all {
		if (onlyDimensions && spec.Kind == "dimension") || (onlyFacts && spec.Kind == "fact") {
			out = append(out, spec)
		}
	}
	return out
}

// runPipeline drives the coordinator; withMerge false means transform-only.
func runPipeline(ctx context.Context, withMerge bool) error {
	met, closeMetrics, err := newMetrics(ctx)
	if err != nil {
		return err
	}
	defer closeMetrics()

	var merger transform.Merger
	if withMerge {
		merger = newLoader(met)
	}

	dims, facts := newBuilders()
	coord := transform.NewCoordinator(dims, facts, layout(), merger, met, log)

	var rep transform.Report
	switch {
	case onlyDimensions && !onlyFacts:
		rep = coord.RunDimensions(ctx)
	case onlyFacts && !onlyDimensions:
		rep = coord.RunFacts(ctx)
	default:
		rep = coord.RunAll(ctx)
	}

	var total int64
	for _, n := range rep.Counts {
		total += n
	}
	log.Info().Int64("rows", total).Int("entities", len(rep.Counts)).Msg("pipeline finished")

	return failureSummary(rep.Failures)
}

func failureSummary(failures map[string]error) error {
	if len(failures) == 0 {
		return nil
	}
	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("%d of the processed entities failed: %v", len(failures), names)
}
