// Package sqlite implements warehouse.Store on SQLite via modernc.org/sqlite.
//
// SQLite has no native timestamp type: time.Time arguments are bound as
// fixed-width UTC strings so the load-timestamp guard compares correctly with
// TEXT affinity. RFC3339Nano would not work here: it trims trailing zeros,
// which breaks lexicographic ordering. Schemas do not exist in SQLite; the
// configured schema is ignored and tables live in the main database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"systock/internal/star"
	"systock/internal/warehouse"
)

func init() {
	warehouse.Register("sqlite", New)
}

// Store is a SQLite-backed warehouse.Store.
type Store struct {
	db *sql.DB
}

// New opens (and creates, for file DSNs) the SQLite database.
func New(ctx context.Context, cfg warehouse.Config) (warehouse.Store, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() { _ = s.db.Close() }

// EnsureTables creates every table idempotently with a unique constraint on
// the natural key.
func (s *Store) EnsureTables(ctx context.Context, tables []star.TableSpec) error {
	for _, t := range tables {
		ddl, err := buildCreateSQL(t)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}

// MergeRows executes a single multi-row upsert for the batch.
func (s *Store) MergeRows(ctx context.Context, spec star.TableSpec, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	sqlText, args := buildMergeSQL(spec, rows)
	res, err := s.db.ExecContext(ctx, sqlText, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// timeLayout is fixed-width so TEXT comparison orders like timestamps.
const timeLayout = "2006-01-02 15:04:05.000000000"

// buildMergeSQL constructs a single INSERT ... ON CONFLICT statement and its
// args. time.Time values are normalized to fixed-width UTC text so the guard
// column compares lexicographically in timestamp order.
func buildMergeSQL(spec star.TableSpec, rows [][]any) (string, []any) {
	cols := spec.ColumnNames()

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(ident(spec.Name))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ident(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(cols))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString("?")
			args = append(args, bindValue(row[j]))
		}
		b.WriteString(")")
	}

	b.WriteString(" ON CONFLICT (")
	for i, k := range spec.NaturalKey {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ident(k))
	}
	b.WriteString(") DO UPDATE SET ")
	for i, c := range spec.NonKeyColumns() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ident(c))
		b.WriteString(" = excluded.")
		b.WriteString(ident(c))
	}
	if g := spec.LoadTimestampColumn; g != "" {
		b.WriteString(" WHERE ")
		b.WriteString(ident(spec.Name))
		b.WriteString(".")
		b.WriteString(ident(g))
		b.WriteString(" < excluded.")
		b.WriteString(ident(g))
	}
	b.WriteString(";")
	return b.String(), args
}

func buildCreateSQL(t star.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("sqlite: table name is empty")
	}

	defs := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		def := ident(c.Name) + " " + sqliteType(c.Type)
		if !c.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	keys := make([]string, len(t.NaturalKey))
	for i, k := range t.NaturalKey {
		keys[i] = ident(k)
	}
	defs = append(defs, "UNIQUE ("+strings.Join(keys, ", ")+")")

	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s);`,
		ident(t.Name), strings.Join(defs, ", ")), nil
}

// sqliteType maps portable keywords to SQLite affinities. Unknown types fall
// through as-is; SQLite accepts any type name.
func sqliteType(portable string) string {
	switch portable {
	case "bigint", "integer", "boolean":
		return "INTEGER"
	case "double precision":
		return "REAL"
	case "text", "date", "timestamptz":
		return "TEXT"
	}
	return portable
}

func bindValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(timeLayout)
	}
	return v
}

func ident(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
