// Package seed generates consistent fake raw snapshots for local runs: every
// foreign reference in the generated facts points at a generated dimension
// entity. It stands in for the external extraction stage during development.
package seed

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"

	"systock/internal/snapshot"
)

// Options sizes one generated snapshot set. Zero values fall back to small
// but non-trivial defaults.
type Options struct {
	// Seed makes generation reproducible; 0 derives one from the clock.
	Seed uint64

	Clients       int
	Categories    int
	Products      int
	Stores        int
	Sales         int
	Inventories   int
	Distributions int
	Entries       int
}

func (o *Options) applyDefaults() {
	if o.Seed == 0 {
		o.Seed = uint64(time.Now().UnixNano())
	}
	def := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	def(&o.Clients, 50)
	def(&o.Categories, 6)
	def(&o.Products, 40)
	def(&o.Stores, 4)
	def(&o.Sales, 120)
	def(&o.Inventories, 200)
	def(&o.Distributions, 30)
	def(&o.Entries, 20)
}

// Generator produces one consistent snapshot set per Generate call.
type Generator struct {
	faker *gofakeit.Faker
	log   zerolog.Logger
	now   func() time.Time
}

// New returns a Generator seeded from opts.Seed.
func New(seed uint64, log zerolog.Logger) *Generator {
	return &Generator{
		faker: gofakeit.New(seed),
		log:   log,
		now:   time.Now,
	}
}

// Generate writes one snapshot file per raw entity under dir.
func Generate(dir string, opts Options, log zerolog.Logger) error {
	opts.applyDefaults()
	g := New(opts.Seed, log)
	return g.generate(dir, opts)
}

func (g *Generator) generate(dir string, opts Options) error {
	end := g.now().UTC().Truncate(time.Hour)
	start := end.AddDate(0, 0, -30)

	clients := g.clients(opts.Clients)
	categories := g.categories(opts.Categories)
	products := g.products(opts.Products, categories)
	stores := g.stores(opts.Stores)
	sales := g.sales(opts.Sales, clients, products, stores, start, end)
	inventories := g.inventories(opts.Inventories, products, stores, start, end)
	distributions := g.distributions(opts.Distributions, products, stores, start, end)
	entries := g.entries(opts.Entries, start, end)

	writes := []struct {
		entity string
		write  func() (string, error)
	}{
		{"clientes", func() (string, error) { return snapshot.Write(dir, "clientes", clients) }},
		{"categorias", func() (string, error) { return snapshot.Write(dir, "categorias", categories) }},
		{"produtos", func() (string, error) { return snapshot.Write(dir, "produtos", products) }},
		{"lojas", func() (string, error) { return snapshot.Write(dir, "lojas", stores) }},
		{"vendas", func() (string, error) { return snapshot.Write(dir, "vendas", sales) }},
		{"estoque", func() (string, error) { return snapshot.Write(dir, "estoque", inventories) }},
		{"distribuicao_interna", func() (string, error) { return snapshot.Write(dir, "distribuicao_interna", distributions) }},
		{"entradas", func() (string, error) { return snapshot.Write(dir, "entradas", entries) }},
	}
	for _, w := range writes {
		path, err := w.write()
		if err != nil {
			return fmt.Errorf("seed %s: %w", w.entity, err)
		}
		g.log.Info().Str("entity", w.entity).Str("file", path).Msg("snapshot seeded")
	}
	return nil
}

func (g *Generator) clients(n int) []snapshot.Client {
	out := make([]snapshot.Client, n)
	for i := range out {
		// Mix individuals (11-digit CPF) and companies (14-digit CNPJ).
		doc := g.faker.DigitN(11)
		name := g.faker.Name()
		if g.faker.Bool() {
			doc = g.faker.DigitN(14)
			name = g.faker.Company()
		}
		out[i] = snapshot.Client{
			ID:      int64(i + 1),
			Name:    name,
			CPFCNPJ: doc,
			Email:   g.faker.Email(),
			Phone:   g.faker.Phone(),
			Address: g.faker.Address().Address,
		}
	}
	return out
}

func (g *Generator) categories(n int) []snapshot.Category {
	out := make([]snapshot.Category, n)
	for i := range out {
		out[i] = snapshot.Category{
			ID:          int64(i + 1),
			Name:        g.faker.ProductCategory(),
			Description: g.faker.Sentence(6),
		}
	}
	return out
}

func (g *Generator) products(n int, categories []snapshot.Category) []snapshot.Product {
	out := make([]snapshot.Product, n)
	for i := range out {
		sale := g.faker.Price(10, 200)
		out[i] = snapshot.Product{
			ID:          int64(i + 1),
			Name:        g.faker.ProductName(),
			Description: g.faker.ProductDescription(),
			CategoryID:  g.pickCategory(categories),
			SalePrice:   sale,
			CostPrice:   round2(sale * 0.6),
			Active:      g.faker.Number(0, 9) > 0,
		}
	}
	return out
}

func (g *Generator) stores(n int) []snapshot.Store {
	out := make([]snapshot.Store, n)
	for i := range out {
		out[i] = snapshot.Store{
			ID:      int64(i + 1),
			Name:    "Loja " + g.faker.City(),
			Address: g.faker.Address().Address,
		}
	}
	return out
}

func (g *Generator) sales(n int, clients []snapshot.Client, products []snapshot.Product, stores []snapshot.Store, start, end time.Time) []snapshot.Sale {
	statuses := []string{"pendente", "enviada", "entregue", "cancelada"}

	out := make([]snapshot.Sale, n)
	for i := range out {
		saleAt := g.faker.DateRange(start, end)
		s := snapshot.Sale{
			ID:       int64(i + 1),
			SaleDate: saleAt.Format(time.RFC3339),
			Status:   statuses[g.faker.Number(0, len(statuses)-1)],
			StoreID:  g.pickStore(stores),
			ClientID: int64(g.faker.Number(1, len(clients))),
		}

		predicted := saleAt.AddDate(0, 0, g.faker.Number(1, 7)).Format(time.RFC3339)
		s.PredictedDelivery = &predicted
		if s.Status == "entregue" {
			delivered := saleAt.AddDate(0, 0, g.faker.Number(1, 10)).Format(time.RFC3339)
			s.DeliveredAt = &delivered
		}

		items := g.faker.Number(1, 3)
		for range items {
			p := products[g.faker.Number(0, len(products)-1)]
			item := snapshot.SaleItem{
				ProductID: p.ID,
				Quantity:  int64(g.faker.Number(1, 8)),
			}
			// Some feeds omit item prices; the transform falls back to the
			// product catalogue, so the generator exercises both shapes.
			if g.faker.Number(0, 3) > 0 {
				price := p.SalePrice
				cost := p.CostPrice
				item.UnitPrice = &price
				item.TotalPrice = &cost
			}
			s.Items = append(s.Items, item)
		}
		out[i] = s
	}
	return out
}

func (g *Generator) inventories(n int, products []snapshot.Product, stores []snapshot.Store, start, end time.Time) []snapshot.Inventory {
	out := make([]snapshot.Inventory, n)
	for i := range out {
		out[i] = snapshot.Inventory{
			ID:        int64(i + 1),
			StoreID:   g.pickStore(stores),
			ProductID: int64(g.faker.Number(1, len(products))),
			UpdatedAt: g.faker.DateRange(start, end).Format(time.RFC3339),
			Quantity:  int64(g.faker.Number(0, 500)),
		}
	}
	return out
}

func (g *Generator) distributions(n int, products []snapshot.Product, stores []snapshot.Store, start, end time.Time) []snapshot.Distribution {
	statuses := []string{"pendente", "em_transito", "concluida"}

	out := make([]snapshot.Distribution, n)
	for i := range out {
		from := g.pickStore(stores)
		to := g.pickStore(stores)
		for to == from && len(stores) > 1 {
			to = g.pickStore(stores)
		}

		d := snapshot.Distribution{
			ID:               int64(i + 1),
			FromStoreID:      from,
			ToStoreID:        to,
			DistributionDate: g.faker.DateRange(start, end).Format(time.RFC3339),
			Status:           statuses[g.faker.Number(0, len(statuses)-1)],
		}
		for range g.faker.Number(1, 4) {
			d.Items = append(d.Items, snapshot.DistributionItem{
				ProductID: int64(g.faker.Number(1, len(products))),
				Quantity:  int64(g.faker.Number(1, 50)),
			})
		}
		out[i] = d
	}
	return out
}

func (g *Generator) entries(n int, start, end time.Time) []snapshot.Entry {
	out := make([]snapshot.Entry, n)
	for i := range out {
		out[i] = snapshot.Entry{
			ID:        int64(i + 1),
			EntryDate: g.faker.DateRange(start, end).Format(time.RFC3339),
		}
	}
	return out
}

func (g *Generator) pickCategory(categories []snapshot.Category) int64 {
	return categories[g.faker.Number(0, len(categories)-1)].ID
}

func (g *Generator) pickStore(stores []snapshot.Store) int64 {
	return stores[g.faker.Number(0, len(stores)-1)].ID
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
