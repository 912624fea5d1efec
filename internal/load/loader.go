// Package load merges transformed star rows into the warehouse in bounded
// batches.
package load

import (
	"context"

	"github.com/rs/zerolog"

	"systock/internal/errs"
	"systock/internal/metrics"
	"systock/internal/star"
	"systock/internal/warehouse"
)

// DefaultBatchSize bounds the number of rows per merge statement.
const DefaultBatchSize = 1000

// Loader merges row batches into the configured warehouse backend. A Store is
// acquired per Merge invocation and closed on exit, so a failed run never
// leaks connections into the next entity.
type Loader struct {
	cfg       warehouse.Config
	batchSize int
	ensure    bool
	log       zerolog.Logger
	met       metrics.Backend

	// open is a seam for tests; production uses warehouse.New.
	open func(ctx context.Context, cfg warehouse.Config) (warehouse.Store, error)
}

// Options tune a Loader beyond the backend selection.
type Options struct {
	// BatchSize caps rows per statement. If <= 0, DefaultBatchSize is used.
	BatchSize int

	// EnsureTables makes every Merge create the target table first.
	EnsureTables bool

	Metrics metrics.Backend
}

// New returns a Loader for the given backend configuration.
func New(cfg warehouse.Config, opts Options, log zerolog.Logger) *Loader {
	batch := opts.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	met := opts.Metrics
	if met == nil {
		met = metrics.Nop{}
	}
	return &Loader{
		cfg:       cfg,
		batchSize: batch,
		ensure:    opts.EnsureTables,
		log:       log,
		met:       met,
		open:      warehouse.New,
	}
}

// Merge upserts rows into the spec's warehouse table and returns the number of
// rows affected across all batches.
//
// Edge cases:
//   - Empty input is a logged no-op, not an error; no connection is opened.
//   - A failing batch aborts the run with a LoadError naming the batch index;
//     batches committed before it stand.
func (l *Loader) Merge(ctx context.Context, spec star.TableSpec, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		l.log.Info().Str("table", spec.Name).Msg("no rows to merge, skipping")
		return 0, nil
	}

	store, err := l.open(ctx, l.cfg)
	if err != nil {
		return 0, &errs.LoadError{Table: spec.Name, Batch: -1, Err: err}
	}
	defer store.Close()

	if l.ensure {
		if err := store.EnsureTables(ctx, []star.TableSpec{spec}); err != nil {
			return 0, &errs.LoadError{Table: spec.Name, Batch: -1, Err: err}
		}
	}

	var total int64
	for batch := 0; batch*l.batchSize < len(rows); batch++ {
		lo := batch * l.batchSize
		hi := min(lo+l.batchSize, len(rows))

		n, err := store.MergeRows(ctx, spec, rows[lo:hi])
		if err != nil {
			return total, &errs.LoadError{Table: spec.Name, Batch: batch, Err: err}
		}
		total += n
		l.met.IncCounter(metrics.BatchesTotal, 1, nil)
	}

	l.log.Info().
		Str("table", spec.Name).
		Int("rows", len(rows)).
		Int64("affected", total).
		Msg("merge complete")
	return total, nil
}
