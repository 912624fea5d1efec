package star

import "time"

// Record is one transformed row that knows its warehouse column values.
// Values() must align with the matching TableSpec's Columns order.
type Record interface {
	Values() []any
}

// Rows converts a typed slice into positional rows for the merge loader.
func Rows[T Record](in []T) [][]any {
	out := make([][]any, len(in))
	for i, r := range in {
		out[i] = r.Values()
	}
	return out
}

// ClienteRow is one dim_cliente row.
type ClienteRow struct {
	IDCliente   int64     `parquet:"id_cliente"`
	NomeCliente string    `parquet:"nome_cliente"`
	CPFCNPJ     string    `parquet:"cpf_cnpj"`
	Email       string    `parquet:"email"`
	Telefone    string    `parquet:"telefone"`
	Endereco    string    `parquet:"endereco"`
	TipoCliente string    `parquet:"tipo_cliente"`
	DataCarga   time.Time `parquet:"data_carga,timestamp"`
}

func (r ClienteRow) Values() []any {
	return []any{r.IDCliente, r.NomeCliente, r.CPFCNPJ, r.Email, r.Telefone, r.Endereco, r.TipoCliente, r.DataCarga}
}

// ProdutoRow is one dim_produto row. Category attributes are nil when the
// categorias reference set was unavailable at build time.
type ProdutoRow struct {
	IDProduto          int64     `parquet:"id_produto"`
	NomeProduto        string    `parquet:"nome_produto"`
	DescricaoProduto   string    `parquet:"descricao_produto"`
	IDCategoria        int64     `parquet:"id_categoria"`
	PrecoVenda         float64   `parquet:"preco_venda"`
	CustoFornecedor    float64   `parquet:"custo_fornecedor"`
	Ativo              bool      `parquet:"ativo"`
	NomeCategoria      *string   `parquet:"nome_categoria,optional"`
	DescricaoCategoria *string   `parquet:"descricao_categoria,optional"`
	DataCarga          time.Time `parquet:"data_carga,timestamp"`
}

func (r ProdutoRow) Values() []any {
	return []any{
		r.IDProduto, r.NomeProduto, r.DescricaoProduto, r.IDCategoria,
		r.PrecoVenda, r.CustoFornecedor, r.Ativo,
		ptrAny(r.NomeCategoria), ptrAny(r.DescricaoCategoria), r.DataCarga,
	}
}

// LojaRow is one dim_loja row.
type LojaRow struct {
	IDLoja       int64     `parquet:"id_loja"`
	NomeLoja     string    `parquet:"nome_loja"`
	EnderecoLoja string    `parquet:"endereco_loja"`
	DataCarga    time.Time `parquet:"data_carga,timestamp"`
}

func (r LojaRow) Values() []any {
	return []any{r.IDLoja, r.NomeLoja, r.EnderecoLoja, r.DataCarga}
}

// TempoRow is one dim_tempo row. IDTempo is the day formatted as YYYYMMDD.
type TempoRow struct {
	IDTempo      int32     `parquet:"id_tempo"`
	DataCompleta time.Time `parquet:"data_completa,date"`
	Ano          int32     `parquet:"ano"`
	Mes          int32     `parquet:"mes"`
	Dia          int32     `parquet:"dia"`
	Trimestre    int32     `parquet:"trimestre"`
	Semana       int32     `parquet:"semana"`
	DiaSemana    int32     `parquet:"dia_semana"`
	EhFimSemana  bool      `parquet:"eh_fim_semana"`
}

func (r TempoRow) Values() []any {
	return []any{r.IDTempo, r.DataCompleta, r.Ano, r.Mes, r.Dia, r.Trimestre, r.Semana, r.DiaSemana, r.EhFimSemana}
}

// VendaRow is one fato_vendas row: a single exploded sale line item.
type VendaRow struct {
	IDVenda       int64     `parquet:"id_venda"`
	IDTempo       int32     `parquet:"id_tempo"`
	IDLoja        int64     `parquet:"id_loja"`
	IDCliente     int64     `parquet:"id_cliente"`
	IDProduto     int64     `parquet:"id_produto"`
	Quantidade    int64     `parquet:"quantidade"`
	ValorUnitario float64   `parquet:"valor_unitario"`
	CustoUnitario float64   `parquet:"custo_unitario"`
	ValorTotal    float64   `parquet:"valor_total"`
	CustoTotal    float64   `parquet:"custo_total"`
	Lucro         float64   `parquet:"lucro"`
	MargemLucro   *float64  `parquet:"margem_lucro,optional"`
	DataCarga     time.Time `parquet:"data_carga,timestamp"`
}

func (r VendaRow) Values() []any {
	return []any{
		r.IDVenda, r.IDTempo, r.IDLoja, r.IDCliente, r.IDProduto, r.Quantidade,
		r.ValorUnitario, r.CustoUnitario, r.ValorTotal, r.CustoTotal, r.Lucro,
		ptrAny(r.MargemLucro), r.DataCarga,
	}
}

// EstoqueRow is one fato_estoque row: the windowed delta between consecutive
// inventory readings of a (store, product) partition.
type EstoqueRow struct {
	IDEstoque           int64     `parquet:"id_estoque"`
	IDTempo             int32     `parquet:"id_tempo"`
	IDLoja              int64     `parquet:"id_loja"`
	IDProduto           int64     `parquet:"id_produto"`
	QuantidadeInicial   int64     `parquet:"quantidade_inicial"`
	QuantidadeFinal     int64     `parquet:"quantidade_final"`
	ValorEstoqueInicial float64   `parquet:"valor_estoque_inicial"`
	ValorEstoqueFinal   float64   `parquet:"valor_estoque_final"`
	Entradas            int64     `parquet:"entradas"`
	Saidas              int64     `parquet:"saidas"`
	DataCarga           time.Time `parquet:"data_carga,timestamp"`
}

func (r EstoqueRow) Values() []any {
	return []any{
		r.IDEstoque, r.IDTempo, r.IDLoja, r.IDProduto,
		r.QuantidadeInicial, r.QuantidadeFinal,
		r.ValorEstoqueInicial, r.ValorEstoqueFinal,
		r.Entradas, r.Saidas, r.DataCarga,
	}
}

// DistribuicaoRow is one fato_distribuicoes row: a single exploded internal
// distribution line item joined to its header.
type DistribuicaoRow struct {
	IDDistribuicao int64     `parquet:"id_distribuicao"`
	IDLojaOrigem   int64     `parquet:"id_loja_origem"`
	IDLojaDestino  int64     `parquet:"id_loja_destino"`
	IDTempo        int32     `parquet:"id_tempo"`
	IDProduto      int64     `parquet:"id_produto"`
	Quantidade     int64     `parquet:"quantidade"`
	Status         string    `parquet:"status"`
	DataCarga      time.Time `parquet:"data_carga,timestamp"`
}

func (r DistribuicaoRow) Values() []any {
	return []any{
		r.IDDistribuicao, r.IDLojaOrigem, r.IDLojaDestino, r.IDTempo,
		r.IDProduto, r.Quantidade, r.Status, r.DataCarga,
	}
}

// ptrAny converts a typed nil pointer to an untyped nil so SQL drivers see a
// plain NULL instead of a non-nil interface wrapping a nil pointer.
func ptrAny[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
