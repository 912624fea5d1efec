package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"systock/internal/snapshot"
	"systock/internal/star"
)

func TestBuildTempo_RangeFromSources(t *testing.T) {
	dir := t.TempDir()
	delivered := "2024-01-12T09:00:00Z"
	writeSnapshot(t, dir, "vendas", []snapshot.Sale{
		{ID: 1, SaleDate: "2024-01-10T10:00:00Z", DeliveredAt: &delivered, Status: "entregue"},
	})
	writeSnapshot(t, dir, "estoque", []snapshot.Inventory{
		{ID: 1, StoreID: 1, ProductID: 1, UpdatedAt: "2024-01-15 08:30:00", Quantity: 5},
	})

	rows, err := newTestDimensionBuilder(t, dir).BuildTempo()
	require.NoError(t, err)

	// Closed range 2024-01-10 .. 2024-01-15: one row per day.
	require.Len(t, rows, 6)
	assert.Equal(t, int32(20240110), rows[0].IDTempo)
	assert.Equal(t, int32(20240115), rows[5].IDTempo)

	seen := make(map[int32]bool)
	for _, r := range rows {
		assert.False(t, seen[r.IDTempo], "duplicate surrogate key %d", r.IDTempo)
		seen[r.IDTempo] = true
		assert.Equal(t, dayKey(r.DataCompleta), r.IDTempo)
	}
}

func TestBuildTempo_Attributes(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "vendas", []snapshot.Sale{
		{ID: 1, SaleDate: "2024-01-13"}, // Saturday
	})

	rows, err := newTestDimensionBuilder(t, dir).BuildTempo()
	require.NoError(t, err)
	require.Len(t, rows, 1)

	sat := rows[0]
	assert.Equal(t, int32(2024), sat.Ano)
	assert.Equal(t, int32(1), sat.Mes)
	assert.Equal(t, int32(13), sat.Dia)
	assert.Equal(t, int32(1), sat.Trimestre)
	assert.Equal(t, int32(2), sat.Semana)
	assert.Equal(t, int32(6), sat.DiaSemana)
	assert.True(t, sat.EhFimSemana)
}

func TestBuildTempo_WeekdayConvention(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "vendas", []snapshot.Sale{
		{ID: 1, SaleDate: "2024-01-08"}, // Monday
		{ID: 2, SaleDate: "2024-01-14"}, // Sunday
	})

	rows, err := newTestDimensionBuilder(t, dir).BuildTempo()
	require.NoError(t, err)
	require.Len(t, rows, 7)

	byKey := make(map[int32]star.TempoRow, len(rows))
	for _, r := range rows {
		byKey[r.IDTempo] = r
	}

	assert.Equal(t, int32(1), byKey[20240108].DiaSemana)
	assert.False(t, byKey[20240108].EhFimSemana)
	assert.Equal(t, int32(5), byKey[20240112].DiaSemana)
	assert.False(t, byKey[20240112].EhFimSemana)
	assert.Equal(t, int32(7), byKey[20240114].DiaSemana)
	assert.True(t, byKey[20240114].EhFimSemana)
}

func TestBuildTempo_FallbackRange(t *testing.T) {
	dir := t.TempDir()
	b := newTestDimensionBuilder(t, dir)
	b.fallbackStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return time.Date(2024, 3, 5, 17, 0, 0, 0, time.UTC) }

	rows, err := b.BuildTempo()
	require.NoError(t, err)

	require.Len(t, rows, 5)
	assert.Equal(t, int32(20240301), rows[0].IDTempo)
	assert.Equal(t, int32(20240305), rows[4].IDTempo)
}

func TestBuildTempo_UnparsableDatesFallBack(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "vendas", []snapshot.Sale{
		{ID: 1, SaleDate: "definitely not a date"},
	})

	b := newTestDimensionBuilder(t, dir)
	b.fallbackStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC) }

	rows, err := b.BuildTempo()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int32(20240301), rows[0].IDTempo)
}
