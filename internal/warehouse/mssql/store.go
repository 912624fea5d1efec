// Package mssql implements warehouse.Store on Microsoft SQL Server.
//
// Upserts use MERGE with a VALUES table constructor as the source. The
// HOLDLOCK hint serializes concurrent merges on the same key range, which is
// the standard guard against the MERGE race on unique keys.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"systock/internal/star"
	"systock/internal/warehouse"
)

func init() {
	warehouse.Register("mssql", New)
}

// Store is a SQL Server-backed warehouse.Store.
type Store struct {
	db     *sql.DB
	schema string
}

// New opens a connection pool for cfg.DSN and validates connectivity.
func New(ctx context.Context, cfg warehouse.Config) (warehouse.Store, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}

	// Conservative defaults for bursty batch loads.
	db.SetMaxOpenConns(64)
	db.SetMaxIdleConns(64)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}
	return &Store{db: db, schema: cfg.Schema}, nil
}

func (s *Store) Close() { _ = s.db.Close() }

// EnsureTables creates the schema and every table idempotently, with a unique
// constraint on the natural key.
func (s *Store) EnsureTables(ctx context.Context, tables []star.TableSpec) error {
	if s.schema != "" {
		ddl := fmt.Sprintf(
			`IF NOT EXISTS (SELECT 1 FROM sys.schemas WHERE name = N'%s') EXEC('CREATE SCHEMA %s');`,
			strings.ReplaceAll(s.schema, "'", "''"), msIdent(s.schema))
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create schema %s: %w", s.schema, err)
		}
	}
	for _, t := range tables {
		ddl, err := buildCreateSQL(s.schema, t)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}

// MergeRows executes the batch as one transaction. SQL Server caps a statement
// at 2100 bound parameters and each row binds one per column, so wide batches
// are split across several MERGE statements inside the transaction.
func (s *Store) MergeRows(ctx context.Context, spec star.TableSpec, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	chunk := mergeChunkSize(len(spec.Columns))
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))

		sqlText, args := buildMergeSQL(s.schema, spec, rows[start:end])
		res, err := tx.ExecContext(ctx, sqlText, args...)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

// mergeChunkSize bounds rows per MERGE statement. The 2000 budget leaves
// headroom under the 2100-parameter limit.
func mergeChunkSize(columns int) int {
	n := 2000 / max(1, columns)
	if n < 1 {
		n = 1
	}
	return n
}

// buildMergeSQL constructs a MERGE statement and its args. Pure, so placeholder
// numbering and the timestamp guard are unit-testable without a server.
func buildMergeSQL(schema string, spec star.TableSpec, rows [][]any) (string, []any) {
	cols := spec.ColumnNames()

	var b strings.Builder
	b.WriteString("MERGE ")
	b.WriteString(qualify(schema, spec.Name))
	b.WriteString(" WITH (HOLDLOCK) AS target USING (VALUES ")

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
			fmt.Fprintf(&b, "@p%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}

	b.WriteString(") AS src (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(msIdent(c))
	}
	b.WriteString(") ON ")
	for i, k := range spec.NaturalKey {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString("target.")
		b.WriteString(msIdent(k))
		b.WriteString(" = src.")
		b.WriteString(msIdent(k))
	}

	b.WriteString(" WHEN MATCHED")
	if g := spec.LoadTimestampColumn; g != "" {
		b.WriteString(" AND target.")
		b.WriteString(msIdent(g))
		b.WriteString(" < src.")
		b.WriteString(msIdent(g))
	}
	b.WriteString(" THEN UPDATE SET ")
	for i, c := range spec.NonKeyColumns() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("target.")
		b.WriteString(msIdent(c))
		b.WriteString(" = src.")
		b.WriteString(msIdent(c))
	}

	b.WriteString(" WHEN NOT MATCHED THEN INSERT (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(msIdent(c))
	}
	b.WriteString(") VALUES (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("src.")
		b.WriteString(msIdent(c))
	}
	b.WriteString(");")
	return b.String(), args
}

func buildCreateSQL(schema string, t star.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("mssql: table name is empty")
	}

	defs := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		sqlType, err := msType(c.Type)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", t.Name, err)
		}
		def := msIdent(c.Name) + " " + sqlType
		if !c.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	keys := make([]string, len(t.NaturalKey))
	for i, k := range t.NaturalKey {
		keys[i] = msIdent(k)
	}
	defs = append(defs, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)",
		msIdent(t.Name+"_natural_key"), strings.Join(keys, ", ")))

	objectName := t.Name
	if schema != "" {
		objectName = schema + "." + t.Name
	}
	return fmt.Sprintf(`IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (%s);`,
		strings.ReplaceAll(objectName, "'", "''"),
		qualify(schema, t.Name), strings.Join(defs, ", ")), nil
}

func msType(portable string) (string, error) {
	switch portable {
	case "bigint":
		return "BIGINT", nil
	case "integer":
		return "INT", nil
	case "text":
		return "NVARCHAR(1000)", nil
	case "double precision":
		return "FLOAT", nil
	case "boolean":
		return "BIT", nil
	case "date":
		return "DATE", nil
	case "timestamptz":
		return "DATETIMEOFFSET", nil
	}
	return "", fmt.Errorf("unsupported column type %q", portable)
}

func qualify(schema, table string) string {
	if schema == "" {
		return msIdent(table)
	}
	return msIdent(schema) + "." + msIdent(table)
}

// msIdent bracket-quotes an identifier, escaping embedded closing brackets.
func msIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
