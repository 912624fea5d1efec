// Package warehouse abstracts the destination database behind a small Store
// interface. Backends register themselves from init() in their own package and
// are selected by the configured kind, so the loader never imports a driver.
package warehouse

import (
	"context"
	"fmt"
	"sync"

	"systock/internal/star"
)

// Config selects and parameterizes a backend.
//
// Edge cases:
//   - Kind must match a registered backend kind.
//   - Schema is applied where the dialect supports one; sqlite ignores it.
type Config struct {
	Kind   string
	DSN    string
	Schema string
}

// Store is a backend-agnostic warehouse connection.
//
// Each backend implements the merge semantics in its own dialect (Postgres and
// SQLite via INSERT ... ON CONFLICT, SQL Server via MERGE), but the contract
// is shared: rows conflict on the spec's natural key, and when the spec names
// a load-timestamp column a stored row is rewritten only by a strictly newer
// incoming row.
type Store interface {
	// Close releases backend resources. Call once when done.
	Close()

	// EnsureTables creates the schema and tables idempotently, including the
	// unique constraint on each spec's natural key.
	EnsureTables(ctx context.Context, tables []star.TableSpec) error

	// MergeRows upserts one batch of rows into the spec's table and reports
	// the number of rows affected. Row value slices align with spec.Columns.
	MergeRows(ctx context.Context, spec star.TableSpec, rows [][]any) (int64, error)
}

type factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend factory under a kind (e.g. "postgres").
//
// Panics:
//   - If kind is empty.
//   - If f is nil.
//   - If kind is already registered. Intentional, to fail fast on ambiguous
//     backend selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("warehouse: Register called with empty kind")
	}
	if f == nil {
		panic("warehouse: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("warehouse: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Store using the registered backend factory.
func New(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("warehouse: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported warehouse.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
