package transform

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"systock/internal/errs"
	"systock/internal/snapshot"
)

var testLoadTime = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

func newTestDimensionBuilder(t *testing.T, dir string) *DimensionBuilder {
	t.Helper()
	b := NewDimensionBuilder(snapshot.NewReader(dir, zerolog.Nop()), time.Time{}, zerolog.Nop())
	b.now = func() time.Time { return testLoadTime }
	return b
}

func writeSnapshot[T any](t *testing.T, dir, entity string, rows []T) {
	t.Helper()
	_, err := snapshot.Write(dir, entity, rows)
	require.NoError(t, err)
}

func TestClassifyCliente(t *testing.T) {
	tests := []struct {
		doc  string
		want string
	}{
		{doc: "12345678901", want: "Pessoa Física"},
		{doc: "12345678000199", want: "Pessoa Jurídica"},
		{doc: "", want: "Não Classificado"},
		{doc: "123", want: "Não Classificado"},
		{doc: "123456789012345", want: "Não Classificado"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, classifyCliente(tc.doc), "doc=%q", tc.doc)
	}
}

func TestBuildClientes(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "clientes", []snapshot.Client{
		{ID: 1, Name: "Ana Lima", CPFCNPJ: "12345678901", Email: "ana@ex.com"},
		{ID: 2, Name: "Mercado Azul LTDA", CPFCNPJ: "12345678000199"},
		{ID: 1, Name: "Ana L. Lima", CPFCNPJ: "12345678901", Email: "ana.lima@ex.com"},
	})

	rows, err := newTestDimensionBuilder(t, dir).BuildClientes()
	require.NoError(t, err)

	// Dedupe by (id, doc) keeps the last occurrence at the first-seen position.
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].IDCliente)
	assert.Equal(t, "Ana L. Lima", rows[0].NomeCliente)
	assert.Equal(t, "ana.lima@ex.com", rows[0].Email)
	assert.Equal(t, "Pessoa Física", rows[0].TipoCliente)
	assert.Equal(t, "Pessoa Jurídica", rows[1].TipoCliente)
	assert.Equal(t, testLoadTime, rows[0].DataCarga)
}

func TestBuildClientes_MissingSource(t *testing.T) {
	_, err := newTestDimensionBuilder(t, t.TempDir()).BuildClientes()

	var missing *errs.MissingSourceError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "clientes", missing.Entity)
}

func TestBuildClientes_EmptySnapshotIsEmptyResult(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "clientes", []snapshot.Client{})

	rows, err := newTestDimensionBuilder(t, dir).BuildClientes()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestBuildProdutos_CategoryJoin(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "produtos", []snapshot.Product{
		{ID: 1, Name: "Ração Premium", CategoryID: 10, SalePrice: 99.9, CostPrice: 60, Active: true},
		{ID: 2, Name: "Coleira", CategoryID: 99, SalePrice: 25, CostPrice: 10, Active: true},
	})
	writeSnapshot(t, dir, "categorias", []snapshot.Category{
		{ID: 10, Name: "Alimentação", Description: "Rações e petiscos"},
	})

	rows, err := newTestDimensionBuilder(t, dir).BuildProdutos()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].NomeCategoria)
	assert.Equal(t, "Alimentação", *rows[0].NomeCategoria)
	require.NotNil(t, rows[0].DescricaoCategoria)

	// Unmatched category id degrades to null attributes.
	assert.Nil(t, rows[1].NomeCategoria)
	assert.Nil(t, rows[1].DescricaoCategoria)
}

func TestBuildProdutos_MissingCategorias(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "produtos", []snapshot.Product{
		{ID: 1, Name: "Ração Premium", CategoryID: 10},
	})

	rows, err := newTestDimensionBuilder(t, dir).BuildProdutos()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].NomeCategoria)
}

func TestBuildLojas_DedupeKeepLast(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "lojas", []snapshot.Store{
		{ID: 1, Name: "Loja Centro", Address: "Rua A, 1"},
		{ID: 2, Name: "Loja Norte", Address: "Av B, 2"},
		{ID: 1, Name: "Loja Centro Reformada", Address: "Rua A, 1"},
	})

	rows, err := newTestDimensionBuilder(t, dir).BuildLojas()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Loja Centro Reformada", rows[0].NomeLoja)
	assert.Equal(t, "Loja Norte", rows[1].NomeLoja)
}

// Idempotence: building twice from the same snapshot yields identical rows.
func TestBuildClientes_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "clientes", []snapshot.Client{
		{ID: 1, Name: "Ana", CPFCNPJ: "12345678901"},
		{ID: 1, Name: "Ana 2", CPFCNPJ: "12345678901"},
	})

	b := newTestDimensionBuilder(t, dir)
	first, err := b.BuildClientes()
	require.NoError(t, err)
	second, err := b.BuildClientes()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
