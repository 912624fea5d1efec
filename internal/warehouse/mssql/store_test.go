package mssql

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"systock/internal/star"
)

func TestBuildMergeSQL_FactGuard(t *testing.T) {
	now := time.Now()
	rows := [][]any{
		{int64(1), int32(20240101), int64(2), int64(3), int64(0), int64(10), 0.0, 50.0, int64(10), int64(0), now},
	}

	sqlText, args := buildMergeSQL("analytics", star.FatoEstoque, rows)

	require.Len(t, args, len(star.FatoEstoque.Columns))

	assert.True(t, strings.HasPrefix(sqlText, "MERGE [analytics].[fato_estoque] WITH (HOLDLOCK) AS target USING (VALUES "), sqlText)
	assert.Contains(t, sqlText, "ON target.[id_estoque_api] = src.[id_estoque_api]")
	assert.Contains(t, sqlText, "WHEN MATCHED AND target.[data_carga] < src.[data_carga] THEN UPDATE SET")
	assert.Contains(t, sqlText, "target.[quantidade_final] = src.[quantidade_final]")
	assert.Contains(t, sqlText, "WHEN NOT MATCHED THEN INSERT (")
	assert.Contains(t, sqlText, "@p1")
	assert.Contains(t, sqlText, "@p11")
	assert.NotContains(t, sqlText, "@p12")

	// The key column is the join condition, never an update target.
	assert.NotContains(t, sqlText, "target.[id_estoque_api] = src.[id_estoque_api],")
}

func TestBuildMergeSQL_DimensionUnconditional(t *testing.T) {
	rows := [][]any{{int64(1), "Loja Centro", "Rua A, 1", time.Now()}}

	sqlText, _ := buildMergeSQL("", star.DimLoja, rows)

	assert.True(t, strings.HasPrefix(sqlText, "MERGE [dim_loja] WITH (HOLDLOCK)"), sqlText)
	assert.Contains(t, sqlText, "WHEN MATCHED THEN UPDATE SET")
	assert.NotContains(t, sqlText, "WHEN MATCHED AND")
}

func TestBuildMergeSQL_CompositeKey(t *testing.T) {
	now := time.Now()
	rows := [][]any{
		{int64(5), int64(1), int64(2), int32(20240115), int64(100), int64(3), "concluida", now},
	}

	sqlText, _ := buildMergeSQL("dw", star.FatoDistribuicoes, rows)

	assert.Contains(t, sqlText,
		"ON target.[id_distribuicao_api] = src.[id_distribuicao_api] AND target.[id_produto] = src.[id_produto]")
}

// SQL Server rejects statements binding more than 2100 parameters, so a
// default-sized batch of the widest fact must be split across statements.
func TestMergeChunkSize_StaysUnderParameterLimit(t *testing.T) {
	for _, spec := range star.AllTables() {
		chunk := mergeChunkSize(len(spec.Columns))
		assert.Positive(t, chunk, spec.Name)
		assert.LessOrEqual(t, chunk*len(spec.Columns), 2100, spec.Name)
	}

	// Degenerate widths still make progress one row at a time.
	assert.Equal(t, 1, mergeChunkSize(2000))
	assert.Equal(t, 1, mergeChunkSize(5000))
	assert.Equal(t, 2000, mergeChunkSize(0))
}

func TestBuildMergeSQL_DefaultBatchChunksBindAtMost2100Params(t *testing.T) {
	cols := len(star.FatoVendas.Columns)
	rows := make([][]any, 1000)
	for i := range rows {
		rows[i] = make([]any, cols)
	}

	chunk := mergeChunkSize(cols)
	statements := 0
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		_, args := buildMergeSQL("analytics", star.FatoVendas, rows[start:end])
		assert.LessOrEqual(t, len(args), 2100)
		statements++
	}

	assert.Greater(t, statements, 1, "a 1000-row fato_vendas batch cannot fit one statement")
}

func TestBuildCreateSQL(t *testing.T) {
	ddl, err := buildCreateSQL("analytics", star.DimCliente)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ddl, "IF OBJECT_ID(N'analytics.dim_cliente', N'U') IS NULL CREATE TABLE [analytics].[dim_cliente] ("), ddl)
	assert.Contains(t, ddl, "[id_cliente_api] BIGINT NOT NULL")
	assert.Contains(t, ddl, "[tipo_cliente] NVARCHAR(1000) NOT NULL")
	assert.Contains(t, ddl, "[data_carga] DATETIMEOFFSET NOT NULL")
	assert.Contains(t, ddl, "CONSTRAINT [dim_cliente_natural_key] UNIQUE ([id_cliente_api])")
}

func TestBuildCreateSQL_UnknownType(t *testing.T) {
	_, err := buildCreateSQL("", star.TableSpec{
		Name:       "t",
		Columns:    []star.ColumnSpec{{Name: "c", Type: "uuid"}},
		NaturalKey: []string{"c"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported column type")
}

func TestMsIdent(t *testing.T) {
	assert.Equal(t, "[data_carga]", msIdent("data_carga"))
	assert.Equal(t, "[wei]]rd]", msIdent("wei]rd"))
}
