package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"systock/internal/star"
	"systock/internal/warehouse"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(context.Background(), warehouse.Config{
		Kind: "sqlite",
		DSN:  filepath.Join(t.TempDir(), "warehouse.db"),
	})
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st.(*Store)
}

func estoqueRow(id int64, finalQty int64, loaded time.Time) []any {
	return []any{id, int32(20240115), int64(1), int64(7), int64(0), finalQty, 0.0, 0.0, finalQty, int64(0), loaded}
}

// TestMergeRows_TimestampGuard verifies the fact merge rule end to end: an
// older load timestamp leaves the stored row unchanged, a strictly newer one
// rewrites it.
func TestMergeRows_TimestampGuard(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.EnsureTables(ctx, star.AllTables()))

	t1 := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	n, err := st.MergeRows(ctx, star.FatoEstoque, [][]any{estoqueRow(1, 10, t1)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// Older snapshot: guarded out.
	_, err = st.MergeRows(ctx, star.FatoEstoque, [][]any{estoqueRow(1, 99, t1.Add(-time.Hour))})
	require.NoError(t, err)
	assert.Equal(t, int64(10), selectFinalQty(t, st, 1))

	// Strictly newer snapshot: applied.
	_, err = st.MergeRows(ctx, star.FatoEstoque, [][]any{estoqueRow(1, 99, t1.Add(time.Hour))})
	require.NoError(t, err)
	assert.Equal(t, int64(99), selectFinalQty(t, st, 1))

	// Equal timestamp: not strictly newer, guarded out.
	_, err = st.MergeRows(ctx, star.FatoEstoque, [][]any{estoqueRow(1, 42, t1.Add(time.Hour))})
	require.NoError(t, err)
	assert.Equal(t, int64(99), selectFinalQty(t, st, 1))
}

// TestMergeRows_DimensionOverwrite verifies dimensions are rewritten
// unconditionally on conflict.
func TestMergeRows_DimensionOverwrite(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.EnsureTables(ctx, []star.TableSpec{star.DimLoja}))

	loaded := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	_, err := st.MergeRows(ctx, star.DimLoja, [][]any{{int64(1), "Loja Centro", "Rua A, 1", loaded}})
	require.NoError(t, err)

	// Older load timestamp still overwrites: dimensions carry no guard.
	_, err = st.MergeRows(ctx, star.DimLoja, [][]any{{int64(1), "Loja Centro Renomeada", "Rua B, 2", loaded.Add(-time.Hour)}})
	require.NoError(t, err)

	var nome string
	err = st.db.QueryRow(`SELECT nome_loja FROM dim_loja WHERE id_loja_api = 1`).Scan(&nome)
	require.NoError(t, err)
	assert.Equal(t, "Loja Centro Renomeada", nome)
}

// TestMergeRows_MultiColumnKey verifies line-exploded facts with the same
// header id but different products land as distinct rows.
func TestMergeRows_MultiColumnKey(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.EnsureTables(ctx, []star.TableSpec{star.FatoDistribuicoes}))

	loaded := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	rows := [][]any{
		{int64(5), int64(1), int64(2), int32(20240115), int64(100), int64(3), "concluida", loaded},
		{int64(5), int64(1), int64(2), int32(20240115), int64(200), int64(4), "concluida", loaded},
	}
	n, err := st.MergeRows(ctx, star.FatoDistribuicoes, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var count int
	err = st.db.QueryRow(`SELECT COUNT(*) FROM fato_distribuicoes WHERE id_distribuicao_api = 5`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMergeRows_EmptyBatch(t *testing.T) {
	st := openTestStore(t)
	n, err := st.MergeRows(context.Background(), star.DimLoja, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEnsureTables_Idempotent(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.EnsureTables(ctx, star.AllTables()))
	require.NoError(t, st.EnsureTables(ctx, star.AllTables()))
}

func TestBuildMergeSQL(t *testing.T) {
	sqlText, args := buildMergeSQL(star.DimTempo, [][]any{
		{int32(20240115), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), int32(2024), int32(1), int32(15), int32(1), int32(3), int32(1), false},
	})

	require.Len(t, args, len(star.DimTempo.Columns))
	assert.Contains(t, sqlText, `INSERT INTO "dim_tempo"`)
	assert.Contains(t, sqlText, `ON CONFLICT ("id_tempo") DO UPDATE SET`)
	assert.Contains(t, sqlText, `"ano" = excluded."ano"`)
	assert.NotContains(t, sqlText, "WHERE", "dim_tempo merge must not carry a timestamp guard")
}

func TestBindValue_TimeIsFixedWidth(t *testing.T) {
	whole := bindValue(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)).(string)
	frac := bindValue(time.Date(2024, 1, 15, 12, 0, 0, 500, time.UTC)).(string)

	assert.Len(t, frac, len(whole), "timestamps must be fixed-width for lexicographic ordering")
	assert.Less(t, whole, frac)
}

func TestSqliteType(t *testing.T) {
	assert.Equal(t, "INTEGER", sqliteType("bigint"))
	assert.Equal(t, "INTEGER", sqliteType("boolean"))
	assert.Equal(t, "REAL", sqliteType("double precision"))
	assert.Equal(t, "TEXT", sqliteType("timestamptz"))
}

func selectFinalQty(t *testing.T, st *Store, id int64) int64 {
	t.Helper()
	var qty int64
	err := st.db.QueryRow(`SELECT quantidade_final FROM fato_estoque WHERE id_estoque_api = ?`, id).Scan(&qty)
	require.NoError(t, err)
	return qty
}
