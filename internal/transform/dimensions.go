// Package transform builds the dimensional model from raw snapshots: the
// dimension and fact builders plus the coordinator that sequences them.
package transform

import (
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"systock/internal/snapshot"
	"systock/internal/star"
)

// Client type classification by document length.
const (
	tipoPessoaFisica    = "Pessoa Física"
	tipoPessoaJuridica  = "Pessoa Jurídica"
	tipoNaoClassificado = "Não Classificado"
)

// DimensionBuilder converts raw snapshots into deduplicated dimension rows.
type DimensionBuilder struct {
	src *snapshot.Reader
	log zerolog.Logger

	// now stamps data_carga; injected for deterministic tests.
	now func() time.Time

	// fallbackStart seeds the calendar range when no source date parses.
	fallbackStart time.Time
}

// NewDimensionBuilder returns a builder reading from src. fallbackStart may be
// zero, in which case 2023-01-01 is used.
func NewDimensionBuilder(src *snapshot.Reader, fallbackStart time.Time, log zerolog.Logger) *DimensionBuilder {
	if fallbackStart.IsZero() {
		fallbackStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &DimensionBuilder{
		src:           src,
		log:           log,
		now:           time.Now,
		fallbackStart: fallbackStart,
	}
}

// BuildClientes maps raw clients into dim_cliente rows, classifying the client
// type from the document length and deduplicating by (id, cpf_cnpj) with the
// last occurrence in input order winning.
func (b *DimensionBuilder) BuildClientes() ([]star.ClienteRow, error) {
	raw, err := snapshot.Read[snapshot.Client](b.src, "clientes")
	if err != nil {
		return nil, err
	}

	loaded := b.now()

	type key struct {
		id  int64
		doc string
	}
	out := make([]star.ClienteRow, 0, len(raw))
	seen := make(map[key]int, len(raw))

	for _, c := range raw {
		row := star.ClienteRow{
			IDCliente:   c.ID,
			NomeCliente: c.Name,
			CPFCNPJ:     c.CPFCNPJ,
			Email:       c.Email,
			Telefone:    c.Phone,
			Endereco:    c.Address,
			TipoCliente: classifyCliente(c.CPFCNPJ),
			DataCarga:   loaded,
		}
		k := key{id: c.ID, doc: c.CPFCNPJ}
		if i, ok := seen[k]; ok {
			// Last occurrence wins; position of the first is kept so the
			// output order stays deterministic.
			out[i] = row
			continue
		}
		seen[k] = len(out)
		out = append(out, row)
	}

	b.log.Info().Int("rows", len(out)).Msg("clientes dimension built")
	return out, nil
}

func classifyCliente(doc string) string {
	switch utf8.RuneCountInString(doc) {
	case 11:
		return tipoPessoaFisica
	case 14:
		return tipoPessoaJuridica
	default:
		return tipoNaoClassificado
	}
}

// BuildProdutos maps raw products into dim_produto rows, left-joining the
// categorias reference set when available. A missing categorias snapshot
// degrades to null category attributes instead of failing.
func (b *DimensionBuilder) BuildProdutos() ([]star.ProdutoRow, error) {
	raw, err := snapshot.Read[snapshot.Product](b.src, "produtos")
	if err != nil {
		return nil, err
	}

	cats, haveCats, err := snapshot.ReadOptional[snapshot.Category](b.src, "categorias")
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]snapshot.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	loaded := b.now()
	out := make([]star.ProdutoRow, 0, len(raw))
	for _, p := range raw {
		row := star.ProdutoRow{
			IDProduto:        p.ID,
			NomeProduto:      p.Name,
			DescricaoProduto: p.Description,
			IDCategoria:      p.CategoryID,
			PrecoVenda:       p.SalePrice,
			CustoFornecedor:  p.CostPrice,
			Ativo:            p.Active,
			DataCarga:        loaded,
		}
		if haveCats {
			if c, ok := byID[p.CategoryID]; ok {
				name, desc := c.Name, c.Description
				row.NomeCategoria = &name
				row.DescricaoCategoria = &desc
			}
		}
		out = append(out, row)
	}

	b.log.Info().Int("rows", len(out)).Bool("categorias", haveCats).Msg("produtos dimension built")
	return out, nil
}

// BuildLojas maps raw stores into dim_loja rows, deduplicating by store id
// with the last occurrence winning.
func (b *DimensionBuilder) BuildLojas() ([]star.LojaRow, error) {
	raw, err := snapshot.Read[snapshot.Store](b.src, "lojas")
	if err != nil {
		return nil, err
	}

	loaded := b.now()
	out := make([]star.LojaRow, 0, len(raw))
	seen := make(map[int64]int, len(raw))

	for _, s := range raw {
		row := star.LojaRow{
			IDLoja:       s.ID,
			NomeLoja:     s.Name,
			EnderecoLoja: s.Address,
			DataCarga:    loaded,
		}
		if i, ok := seen[s.ID]; ok {
			out[i] = row
			continue
		}
		seen[s.ID] = len(out)
		out = append(out, row)
	}

	b.log.Info().Int("rows", len(out)).Msg("lojas dimension built")
	return out, nil
}
