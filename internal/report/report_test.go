package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"systock/internal/star"
)

func TestCollect(t *testing.T) {
	layout := star.Layout{Dir: t.TempDir()}

	loja := []star.LojaRow{
		{IDLoja: 1, NomeLoja: "Loja Centro", DataCarga: time.Now()},
		{IDLoja: 2, NomeLoja: "Loja Norte", DataCarga: time.Now()},
	}
	require.NoError(t, star.WriteTable(layout.Dim("dim_loja"), loja))

	estoque := []star.EstoqueRow{
		{IDEstoque: 1, IDLoja: 1, IDProduto: 7, QuantidadeFinal: 5, DataCarga: time.Now()},
	}
	require.NoError(t, star.WriteTable(layout.Fact("fato_estoque"), estoque))

	stats, err := Collect(layout)
	require.NoError(t, err)

	// Only the two written tables appear, in load order.
	require.Len(t, stats.Tables, 2)
	assert.Equal(t, "dim_loja", stats.Tables[0].Table)
	assert.Equal(t, "dimension", stats.Tables[0].Kind)
	assert.Equal(t, int64(2), stats.Tables[0].Rows)
	assert.Equal(t, 4, stats.Tables[0].Columns)
	assert.Positive(t, stats.Tables[0].SizeBytes)

	assert.Equal(t, "fato_estoque", stats.Tables[1].Table)
	assert.Equal(t, int64(1), stats.Tables[1].Rows)
	assert.Equal(t, 11, stats.Tables[1].Columns)

	assert.Equal(t, int64(3), stats.TotalRows)
	assert.Equal(t, stats.Tables[0].SizeBytes+stats.Tables[1].SizeBytes, stats.TotalBytes)
}

func TestCollect_EmptyLayout(t *testing.T) {
	stats, err := Collect(star.Layout{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, stats.Tables)
	assert.Zero(t, stats.TotalRows)
}

func TestFormat(t *testing.T) {
	stats := Stats{
		Tables: []TableStats{
			{Table: "dim_loja", Kind: "dimension", Rows: 1234, Columns: 4, SizeBytes: 2048},
		},
		TotalRows:  1234,
		TotalBytes: 2048,
	}

	var b strings.Builder
	require.NoError(t, stats.Format(&b))
	out := b.String()

	assert.Contains(t, out, "dim_loja")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "TOTAL")
	// pt-BR digit grouping.
	assert.Contains(t, out, "1.234")
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", humanBytes(512))
	assert.Equal(t, "1.0 KiB", humanBytes(1024))
	assert.Equal(t, "1.5 MiB", humanBytes(3*1024*1024/2))
}
