package transform

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"systock/internal/snapshot"
	"systock/internal/star"
)

// FactBuilder derives the fact tables from raw snapshots. Monetary math runs
// on decimals and is stored as float64 in the star schema.
type FactBuilder struct {
	src *snapshot.Reader
	log zerolog.Logger
	now func() time.Time
}

// NewFactBuilder returns a builder reading from src.
func NewFactBuilder(src *snapshot.Reader, log zerolog.Logger) *FactBuilder {
	return &FactBuilder{src: src, log: log, now: time.Now}
}

// productRef carries the price/cost fallbacks a fact line uses when its own
// values are absent.
type productRef struct {
	salePrice float64
	costPrice float64
}

func (b *FactBuilder) productIndex() map[int64]productRef {
	products, ok, err := snapshot.ReadOptional[snapshot.Product](b.src, "produtos")
	if err != nil || !ok {
		if err != nil {
			b.log.Warn().Err(err).Msg("produtos unavailable, fact monetary fallbacks default to zero")
		}
		return map[int64]productRef{}
	}
	idx := make(map[int64]productRef, len(products))
	for _, p := range products {
		idx[p.ID] = productRef{salePrice: p.SalePrice, costPrice: p.CostPrice}
	}
	return idx
}

// BuildVendas explodes each sale into one row per line item and derives the
// monetary measures. Item-level values win; the product catalogue fills what
// the item is missing, and zero stands in when both are absent.
//
// The raw feed stores the item's unit cost in its total_price field, so that
// is where the cost coalesce starts.
//
// Rows are unique per (sale, product), the warehouse natural key: duplicate
// sale records keep the last occurrence, and duplicate product lines within a
// sale collapse into one with their quantities summed.
func (b *FactBuilder) BuildVendas() ([]star.VendaRow, error) {
	sales, err := snapshot.Read[snapshot.Sale](b.src, "vendas")
	if err != nil {
		return nil, err
	}
	products := b.productIndex()
	loaded := b.now()

	sales = dedupeLast(sales, func(s snapshot.Sale) int64 { return s.ID })

	out := make([]star.VendaRow, 0, len(sales))
	for _, s := range sales {
		idTempo := dayKeyOf(s.SaleDate)
		if idTempo == 0 {
			b.log.Warn().Int64("id_venda", s.ID).Str("sale_date", s.SaleDate).
				Msg("unparsable sale date, id_tempo set to 0")
		}
		for _, it := range mergeSaleItems(s.Items) {
			ref := products[it.ProductID]

			unitPrice := coalesce(it.UnitPrice, ref.salePrice)
			unitCost := coalesce(it.TotalPrice, ref.costPrice)

			qty := decimal.NewFromInt(it.Quantity)
			price := decimal.NewFromFloat(unitPrice)
			cost := decimal.NewFromFloat(unitCost)

			total := qty.Mul(price)
			totalCost := qty.Mul(cost)
			profit := total.Sub(totalCost)

			var margin *float64
			if total.IsPositive() {
				m, _ := profit.Div(total).Float64()
				margin = &m
			}

			totalF, _ := total.Float64()
			totalCostF, _ := totalCost.Float64()
			profitF, _ := profit.Float64()

			out = append(out, star.VendaRow{
				IDVenda:       s.ID,
				IDTempo:       idTempo,
				IDLoja:        s.StoreID,
				IDCliente:     s.ClientID,
				IDProduto:     it.ProductID,
				Quantidade:    it.Quantity,
				ValorUnitario: unitPrice,
				CustoUnitario: unitCost,
				ValorTotal:    totalF,
				CustoTotal:    totalCostF,
				Lucro:         profitF,
				MargemLucro:   margin,
				DataCarga:     loaded,
			})
		}
	}

	b.log.Info().Int("sales", len(sales)).Int("rows", len(out)).Msg("vendas fact built")
	return out, nil
}

// BuildEstoque turns absolute inventory readings into windowed deltas: within
// each (store, product) partition ordered by update time, a row's initial
// quantity is the previous reading's final quantity, 0 for the first.
func (b *FactBuilder) BuildEstoque() ([]star.EstoqueRow, error) {
	readings, err := snapshot.Read[snapshot.Inventory](b.src, "estoque")
	if err != nil {
		return nil, err
	}
	products := b.productIndex()
	loaded := b.now()

	readings = dedupeLast(readings, func(r snapshot.Inventory) int64 { return r.ID })

	ordered := make([]snapshot.Inventory, len(readings))
	copy(ordered, readings)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, z := ordered[i], ordered[j]
		if a.StoreID != z.StoreID {
			return a.StoreID < z.StoreID
		}
		if a.ProductID != z.ProductID {
			return a.ProductID < z.ProductID
		}
		ta, _ := parseDate(a.UpdatedAt)
		tz, _ := parseDate(z.UpdatedAt)
		return ta.Before(tz)
	})

	type partition struct {
		store, product int64
	}
	prevFinal := make(map[partition]int64)

	out := make([]star.EstoqueRow, 0, len(ordered))
	for _, r := range ordered {
		p := partition{store: r.StoreID, product: r.ProductID}
		initial := prevFinal[p]
		final := r.Quantity
		delta := final - initial
		prevFinal[p] = final

		cost := decimal.NewFromFloat(products[r.ProductID].costPrice)
		initialValue, _ := decimal.NewFromInt(initial).Mul(cost).Float64()
		finalValue, _ := decimal.NewFromInt(final).Mul(cost).Float64()

		idTempo := dayKeyOf(r.UpdatedAt)
		if idTempo == 0 {
			b.log.Warn().Int64("id_estoque", r.ID).Str("updated_at", r.UpdatedAt).
				Msg("unparsable inventory timestamp, id_tempo set to 0")
		}

		out = append(out, star.EstoqueRow{
			IDEstoque:           r.ID,
			IDTempo:             idTempo,
			IDLoja:              r.StoreID,
			IDProduto:           r.ProductID,
			QuantidadeInicial:   initial,
			QuantidadeFinal:     final,
			ValorEstoqueInicial: initialValue,
			ValorEstoqueFinal:   finalValue,
			Entradas:            max(delta, 0),
			Saidas:              max(-delta, 0),
			DataCarga:           loaded,
		})
	}

	b.log.Info().Int("rows", len(out)).Int("partitions", len(prevFinal)).Msg("estoque fact built")
	return out, nil
}

// BuildDistribuicoes explodes internal distributions into one row per line
// item joined to its header. Headers without line items produce no rows.
// Duplicate headers keep the last occurrence and duplicate product lines sum
// their quantities, so rows are unique per (distribution, product).
func (b *FactBuilder) BuildDistribuicoes() ([]star.DistribuicaoRow, error) {
	dists, err := snapshot.Read[snapshot.Distribution](b.src, "distribuicao_interna")
	if err != nil {
		return nil, err
	}
	loaded := b.now()

	dists = dedupeLast(dists, func(d snapshot.Distribution) int64 { return d.ID })

	out := make([]star.DistribuicaoRow, 0, len(dists))
	for _, d := range dists {
		idTempo := dayKeyOf(d.DistributionDate)
		if idTempo == 0 {
			b.log.Warn().Int64("id_distribuicao", d.ID).Str("distribution_date", d.DistributionDate).
				Msg("unparsable distribution date, id_tempo set to 0")
		}
		for _, it := range mergeDistributionItems(d.Items) {
			out = append(out, star.DistribuicaoRow{
				IDDistribuicao: d.ID,
				IDLojaOrigem:   d.FromStoreID,
				IDLojaDestino:  d.ToStoreID,
				IDTempo:        idTempo,
				IDProduto:      it.ProductID,
				Quantidade:     it.Quantity,
				Status:         d.Status,
				DataCarga:      loaded,
			})
		}
	}

	b.log.Info().Int("distributions", len(dists)).Int("rows", len(out)).Msg("distribuicoes fact built")
	return out, nil
}

func coalesce(item *float64, fallback float64) float64 {
	if item != nil {
		return *item
	}
	return fallback
}

// dedupeLast keeps the last record per id at its first-seen position, the same
// rule the dimension builders apply. Facts need it because the warehouse
// rejects a batch that touches the same natural key twice.
func dedupeLast[T any](rows []T, id func(T) int64) []T {
	out := make([]T, 0, len(rows))
	at := make(map[int64]int, len(rows))
	for _, r := range rows {
		if i, ok := at[id(r)]; ok {
			out[i] = r
			continue
		}
		at[id(r)] = len(out)
		out = append(out, r)
	}
	return out
}

// mergeSaleItems collapses duplicate product lines within one sale: quantities
// sum, the later line's unit values win.
func mergeSaleItems(items []snapshot.SaleItem) []snapshot.SaleItem {
	if len(items) < 2 {
		return items
	}
	out := make([]snapshot.SaleItem, 0, len(items))
	at := make(map[int64]int, len(items))
	for _, it := range items {
		if i, ok := at[it.ProductID]; ok {
			it.Quantity += out[i].Quantity
			out[i] = it
			continue
		}
		at[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}

func mergeDistributionItems(items []snapshot.DistributionItem) []snapshot.DistributionItem {
	if len(items) < 2 {
		return items
	}
	out := make([]snapshot.DistributionItem, 0, len(items))
	at := make(map[int64]int, len(items))
	for _, it := range items {
		if i, ok := at[it.ProductID]; ok {
			it.Quantity += out[i].Quantity
			out[i] = it
			continue
		}
		at[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}
