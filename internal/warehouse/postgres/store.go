// Package postgres implements warehouse.Store on Postgres via pgx.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"systock/internal/star"
	"systock/internal/warehouse"
)

func init() {
	warehouse.Register("postgres", New)
}

// Store is a Postgres-backed warehouse.Store using a pgx connection pool.
type Store struct {
	pool   *pgxpool.Pool
	schema string
}

// New opens a connection pool for cfg.DSN.
func New(ctx context.Context, cfg warehouse.Config) (warehouse.Store, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}
	return &Store{pool: pool, schema: cfg.Schema}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// EnsureTables creates the schema and every table idempotently, with a unique
// constraint on the natural key so the merge upsert has a conflict target.
func (s *Store) EnsureTables(ctx context.Context, tables []star.TableSpec) error {
	if s.schema != "" {
		ddl := fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s;`, pgIdent(s.schema))
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create schema %s: %w", s.schema, err)
		}
	}
	for _, t := range tables {
		ddl, err := buildCreateSQL(s.schema, t)
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
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
	sql, args := buildMergeSQL(s.schema, spec, rows)
	cmd, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// buildMergeSQL constructs a single INSERT ... ON CONFLICT statement and its
// args. Pure and deterministic so placeholder numbering and the timestamp
// guard are unit-testable without a database.
func buildMergeSQL(schema string, spec star.TableSpec, rows [][]any) (string, []any) {
	cols := spec.ColumnNames()

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(qualify(schema, spec.Name))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(cols))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}

	b.WriteString(" ON CONFLICT (")
	for i, k := range spec.NaturalKey {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(k))
	}
	b.WriteString(") DO UPDATE SET ")
	for i, c := range spec.NonKeyColumns() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
		b.WriteString(" = EXCLUDED.")
		b.WriteString(pgIdent(c))
	}
	if g := spec.LoadTimestampColumn; g != "" {
		b.WriteString(" WHERE ")
		b.WriteString(qualify("", spec.Name))
		b.WriteString(".")
		b.WriteString(pgIdent(g))
		b.WriteString(" < EXCLUDED.")
		b.WriteString(pgIdent(g))
	}
	b.WriteString(";")
	return b.String(), args
}

func buildCreateSQL(schema string, t star.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("postgres: table name is empty")
	}

	defs := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		sqlType, err := pgType(c.Type)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", t.Name, err)
		}
		def := pgIdent(c.Name) + " " + sqlType
		if !c.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	keys := make([]string, len(t.NaturalKey))
	for i, k := range t.NaturalKey {
		keys[i] = pgIdent(k)
	}
	defs = append(defs, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)",
		pgIdent(t.Name+"_natural_key"), strings.Join(keys, ", ")))

	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s);`,
		qualify(schema, t.Name), strings.Join(defs, ", ")), nil
}

func pgType(portable string) (string, error) {
	switch portable {
	case "bigint":
		return "BIGINT", nil
	case "integer":
		return "INTEGER", nil
	case "text":
		return "TEXT", nil
	case "double precision":
		return "DOUBLE PRECISION", nil
	case "boolean":
		return "BOOLEAN", nil
	case "date":
		return "DATE", nil
	case "timestamptz":
		return "TIMESTAMPTZ", nil
	}
	return "", fmt.Errorf("unsupported column type %q", portable)
}

func qualify(schema, table string) string {
	if schema == "" {
		return pgIdent(table)
	}
	return pgIdent(schema) + "." + pgIdent(table)
}

// pgIdent double-quotes an identifier, escaping embedded quotes.
func pgIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
