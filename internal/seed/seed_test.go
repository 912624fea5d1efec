package seed

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"systock/internal/snapshot"
)

func testOptions() Options {
	return Options{
		Seed:          42,
		Clients:       10,
		Categories:    3,
		Products:      8,
		Stores:        3,
		Sales:         15,
		Inventories:   20,
		Distributions: 5,
		Entries:       4,
	}
}

func generateTo(t *testing.T, opts Options) *snapshot.Reader {
	t.Helper()
	dir := t.TempDir()

	g := New(opts.Seed, zerolog.Nop())
	g.now = func() time.Time { return time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC) }
	require.NoError(t, g.generate(dir, opts))

	return snapshot.NewReader(dir, zerolog.Nop())
}

func TestGenerate_WritesAllEntities(t *testing.T) {
	opts := testOptions()
	r := generateTo(t, opts)

	clients, err := snapshot.Read[snapshot.Client](r, "clientes")
	require.NoError(t, err)
	assert.Len(t, clients, opts.Clients)

	categories, err := snapshot.Read[snapshot.Category](r, "categorias")
	require.NoError(t, err)
	assert.Len(t, categories, opts.Categories)

	products, err := snapshot.Read[snapshot.Product](r, "produtos")
	require.NoError(t, err)
	assert.Len(t, products, opts.Products)

	stores, err := snapshot.Read[snapshot.Store](r, "lojas")
	require.NoError(t, err)
	assert.Len(t, stores, opts.Stores)

	sales, err := snapshot.Read[snapshot.Sale](r, "vendas")
	require.NoError(t, err)
	assert.Len(t, sales, opts.Sales)

	inventories, err := snapshot.Read[snapshot.Inventory](r, "estoque")
	require.NoError(t, err)
	assert.Len(t, inventories, opts.Inventories)

	distributions, err := snapshot.Read[snapshot.Distribution](r, "distribuicao_interna")
	require.NoError(t, err)
	assert.Len(t, distributions, opts.Distributions)

	entries, err := snapshot.Read[snapshot.Entry](r, "entradas")
	require.NoError(t, err)
	assert.Len(t, entries, opts.Entries)
}

func TestGenerate_ReferentialIntegrity(t *testing.T) {
	opts := testOptions()
	r := generateTo(t, opts)

	categories, err := snapshot.Read[snapshot.Category](r, "categorias")
	require.NoError(t, err)
	categoryIDs := idSet(t, len(categories), func(i int) int64 { return categories[i].ID })

	products, err := snapshot.Read[snapshot.Product](r, "produtos")
	require.NoError(t, err)
	productIDs := idSet(t, len(products), func(i int) int64 { return products[i].ID })
	for _, p := range products {
		assert.Contains(t, categoryIDs, p.CategoryID, "product %d references unknown category", p.ID)
		assert.Greater(t, p.SalePrice, 0.0)
		assert.Greater(t, p.CostPrice, 0.0)
	}

	stores, err := snapshot.Read[snapshot.Store](r, "lojas")
	require.NoError(t, err)
	storeIDs := idSet(t, len(stores), func(i int) int64 { return stores[i].ID })

	sales, err := snapshot.Read[snapshot.Sale](r, "vendas")
	require.NoError(t, err)
	for _, s := range sales {
		assert.Contains(t, storeIDs, s.StoreID)
		assert.GreaterOrEqual(t, s.ClientID, int64(1))
		assert.LessOrEqual(t, s.ClientID, int64(opts.Clients))
		require.NotEmpty(t, s.Items, "sale %d has no line items", s.ID)
		for _, it := range s.Items {
			assert.Contains(t, productIDs, it.ProductID)
			assert.Positive(t, it.Quantity)
		}
		_, err := time.Parse(time.RFC3339, s.SaleDate)
		assert.NoError(t, err)
	}

	inventories, err := snapshot.Read[snapshot.Inventory](r, "estoque")
	require.NoError(t, err)
	for _, inv := range inventories {
		assert.Contains(t, storeIDs, inv.StoreID)
		_, err := time.Parse(time.RFC3339, inv.UpdatedAt)
		assert.NoError(t, err)
	}

	distributions, err := snapshot.Read[snapshot.Distribution](r, "distribuicao_interna")
	require.NoError(t, err)
	for _, d := range distributions {
		assert.Contains(t, storeIDs, d.FromStoreID)
		assert.Contains(t, storeIDs, d.ToStoreID)
		assert.NotEqual(t, d.FromStoreID, d.ToStoreID)
		assert.NotEmpty(t, d.Items)
	}
}

func TestGenerate_ClientDocuments(t *testing.T) {
	r := generateTo(t, testOptions())

	clients, err := snapshot.Read[snapshot.Client](r, "clientes")
	require.NoError(t, err)

	for _, c := range clients {
		n := len(c.CPFCNPJ)
		assert.True(t, n == 11 || n == 14, "client %d has document of length %d", c.ID, n)
	}
}

func TestGenerate_Reproducible(t *testing.T) {
	opts := testOptions()

	first := generateTo(t, opts)
	second := generateTo(t, opts)

	a, err := snapshot.Read[snapshot.Client](first, "clientes")
	require.NoError(t, err)
	b, err := snapshot.Read[snapshot.Client](second, "clientes")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	pa, err := snapshot.Read[snapshot.Product](first, "produtos")
	require.NoError(t, err)
	pb, err := snapshot.Read[snapshot.Product](second, "produtos")
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func idSet(t *testing.T, n int, id func(int) int64) map[int64]struct{} {
	t.Helper()
	set := make(map[int64]struct{}, n)
	for i := range n {
		set[id(i)] = struct{}{}
	}
	return set
}
