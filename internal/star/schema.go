// Package star defines the dimensional model: typed dimension/fact rows, the
// warehouse table metadata driving merge SQL and DDL, and parquet I/O for the
// intermediate (silver) tables.
//
// TableSpec lives here so transform, load and warehouse backends can share it
// without import cycles.
package star

// ColumnSpec describes one warehouse column using portable SQL type keywords;
// backends translate the keyword to their dialect.
type ColumnSpec struct {
	Name     string
	Type     string // "bigint" | "integer" | "text" | "double precision" | "boolean" | "date" | "timestamptz"
	Nullable bool
}

// TableSpec describes one warehouse table and its merge rules.
type TableSpec struct {
	// Name is the bare table name; backends qualify it with the configured
	// schema where the dialect supports one.
	Name string

	Kind string // "dimension" | "fact"

	// Columns are ordered; merged row value slices align with this order.
	Columns []ColumnSpec

	// NaturalKey columns drive upsert conflict detection.
	NaturalKey []string

	// LoadTimestampColumn guards updates on conflict: when set, non-key
	// columns are rewritten only if the incoming value in this column is
	// strictly greater than the stored one. Empty means unconditional
	// overwrite of non-key columns.
	LoadTimestampColumn string
}

// ColumnNames returns the ordered column names.
func (t TableSpec) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// IsKey reports whether name is part of the natural key.
func (t TableSpec) IsKey(name string) bool {
	for _, k := range t.NaturalKey {
		if k == name {
			return true
		}
	}
	return false
}

// NonKeyColumns returns the ordered names of columns outside the natural key
// (the columns rewritten on conflict).
func (t TableSpec) NonKeyColumns() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !t.IsKey(c.Name) {
			out = append(out, c.Name)
		}
	}
	return out
}

// Warehouse table specs. Column order matches the Values() order of the
// corresponding row types in rows.go.

var DimCliente = TableSpec{
	Name: "dim_cliente",
	Kind: "dimension",
	Columns: []ColumnSpec{
		{Name: "id_cliente_api", Type: "bigint"},
		{Name: "nome_cliente", Type: "text"},
		{Name: "cpf_cnpj", Type: "text"},
		{Name: "email", Type: "text"},
		{Name: "telefone", Type: "text"},
		{Name: "endereco", Type: "text"},
		{Name: "tipo_cliente", Type: "text"},
		{Name: "data_carga", Type: "timestamptz"},
	},
	NaturalKey: []string{"id_cliente_api"},
}

var DimProduto = TableSpec{
	Name: "dim_produto",
	Kind: "dimension",
	Columns: []ColumnSpec{
		{Name: "id_produto_api", Type: "bigint"},
		{Name: "nome_produto", Type: "text"},
		{Name: "descricao_produto", Type: "text"},
		{Name: "id_categoria", Type: "bigint"},
		{Name: "preco_venda", Type: "double precision"},
		{Name: "custo_fornecedor", Type: "double precision"},
		{Name: "ativo", Type: "boolean"},
		{Name: "nome_categoria", Type: "text", Nullable: true},
		{Name: "descricao_categoria", Type: "text", Nullable: true},
		{Name: "data_carga", Type: "timestamptz"},
	},
	NaturalKey: []string{"id_produto_api"},
}

var DimLoja = TableSpec{
	Name: "dim_loja",
	Kind: "dimension",
	Columns: []ColumnSpec{
		{Name: "id_loja_api", Type: "bigint"},
		{Name: "nome_loja", Type: "text"},
		{Name: "endereco_loja", Type: "text"},
		{Name: "data_carga", Type: "timestamptz"},
	},
	NaturalKey: []string{"id_loja_api"},
}

// DimTempo has no load-timestamp guard: the calendar is deterministic for a
// given day, so conflicts are plain overwrites.
var DimTempo = TableSpec{
	Name: "dim_tempo",
	Kind: "dimension",
	Columns: []ColumnSpec{
		{Name: "id_tempo", Type: "integer"},
		{Name: "data_completa", Type: "date"},
		{Name: "ano", Type: "integer"},
		{Name: "mes", Type: "integer"},
		{Name: "dia", Type: "integer"},
		{Name: "trimestre", Type: "integer"},
		{Name: "semana", Type: "integer"},
		{Name: "dia_semana", Type: "integer"},
		{Name: "eh_fim_semana", Type: "boolean"},
	},
	NaturalKey: []string{"id_tempo"},
}

// FatoVendas is keyed by (sale, product): sales are line-exploded, so the sale
// id alone is not unique per row.
var FatoVendas = TableSpec{
	Name: "fato_vendas",
	Kind: "fact",
	Columns: []ColumnSpec{
		{Name: "id_venda_api", Type: "bigint"},
		{Name: "id_tempo", Type: "integer"},
		{Name: "id_loja", Type: "bigint"},
		{Name: "id_cliente", Type: "bigint"},
		{Name: "id_produto", Type: "bigint"},
		{Name: "quantidade", Type: "bigint"},
		{Name: "valor_unitario", Type: "double precision"},
		{Name: "custo_unitario", Type: "double precision"},
		{Name: "valor_total", Type: "double precision"},
		{Name: "custo_total", Type: "double precision"},
		{Name: "lucro", Type: "double precision"},
		{Name: "margem_lucro", Type: "double precision", Nullable: true},
		{Name: "data_carga", Type: "timestamptz"},
	},
	NaturalKey:          []string{"id_venda_api", "id_produto"},
	LoadTimestampColumn: "data_carga",
}

var FatoEstoque = TableSpec{
	Name: "fato_estoque",
	Kind: "fact",
	Columns: []ColumnSpec{
		{Name: "id_estoque_api", Type: "bigint"},
		{Name: "id_tempo", Type: "integer"},
		{Name: "id_loja", Type: "bigint"},
		{Name: "id_produto", Type: "bigint"},
		{Name: "quantidade_inicial", Type: "bigint"},
		{Name: "quantidade_final", Type: "bigint"},
		{Name: "valor_estoque_inicial", Type: "double precision"},
		{Name: "valor_estoque_final", Type: "double precision"},
		{Name: "entradas", Type: "bigint"},
		{Name: "saidas", Type: "bigint"},
		{Name: "data_carga", Type: "timestamptz"},
	},
	NaturalKey:          []string{"id_estoque_api"},
	LoadTimestampColumn: "data_carga",
}

// FatoDistribuicoes is keyed by (distribution, product) for the same reason as
// FatoVendas.
var FatoDistribuicoes = TableSpec{
	Name: "fato_distribuicoes",
	Kind: "fact",
	Columns: []ColumnSpec{
		{Name: "id_distribuicao_api", Type: "bigint"},
		{Name: "id_loja_origem", Type: "bigint"},
		{Name: "id_loja_destino", Type: "bigint"},
		{Name: "id_tempo", Type: "integer"},
		{Name: "id_produto", Type: "bigint"},
		{Name: "quantidade", Type: "bigint"},
		{Name: "status", Type: "text"},
		{Name: "data_carga", Type: "timestamptz"},
	},
	NaturalKey:          []string{"id_distribuicao_api", "id_produto"},
	LoadTimestampColumn: "data_carga",
}

// AllTables lists every warehouse table in load order (dimensions first).
func AllTables() []TableSpec {
	return []TableSpec{
		DimCliente, DimProduto, DimLoja, DimTempo,
		FatoVendas, FatoEstoque, FatoDistribuicoes,
	}
}
