package star

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// Layout resolves silver-layer file paths: one parquet file per table under
// dims/ and facts/ subdirectories of the silver root.
type Layout struct {
	Dir string
}

// Dim returns the path of a dimension table file, e.g. Dim("dim_clientes").
func (l Layout) Dim(table string) string {
	return filepath.Join(l.Dir, "dims", table+".parquet")
}

// Fact returns the path of a fact table file, e.g. Fact("fact_vendas").
func (l Layout) Fact(table string) string {
	return filepath.Join(l.Dir, "facts", table+".parquet")
}

// WriteTable writes rows as a snappy-compressed parquet file, replacing any
// previous version of the table.
func WriteTable[T any](path string, rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := parquet.WriteFile(path, rows, parquet.Compression(&parquet.Snappy)); err != nil {
		return fmt.Errorf("write table %s: %w", path, err)
	}
	return nil
}

// ReadTable reads a previously written table back into typed rows.
func ReadTable[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}
	return rows, nil
}
