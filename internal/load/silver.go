package load

import (
	"context"
	"fmt"
	"os"

	"systock/internal/star"
)

// silverReaders maps each warehouse table to a reader that decodes its silver
// parquet file into positional rows. The mapping is explicit so a new table
// fails loudly here instead of silently skipping during load-only runs.
var silverReaders = map[string]func(path string) ([][]any, error){
	star.DimCliente.Name:        readSilver[star.ClienteRow],
	star.DimProduto.Name:        readSilver[star.ProdutoRow],
	star.DimLoja.Name:           readSilver[star.LojaRow],
	star.DimTempo.Name:          readSilver[star.TempoRow],
	star.FatoVendas.Name:        readSilver[star.VendaRow],
	star.FatoEstoque.Name:       readSilver[star.EstoqueRow],
	star.FatoDistribuicoes.Name: readSilver[star.DistribuicaoRow],
}

func readSilver[T star.Record](path string) ([][]any, error) {
	rows, err := star.ReadTable[T](path)
	if err != nil {
		return nil, err
	}
	return star.Rows(rows), nil
}

// MergeSilver merges previously transformed silver tables into the warehouse
// without rebuilding them. Tables whose silver file is absent are skipped with
// a warning; a failing table is recorded and the rest still load.
func (l *Loader) MergeSilver(ctx context.Context, layout star.Layout, tables []star.TableSpec) (map[string]int64, map[string]error) {
	counts := make(map[string]int64)
	failures := make(map[string]error)

	for _, spec := range tables {
		path := layout.Dim(spec.Name)
		if spec.Kind == "fact" {
			path = layout.Fact(spec.Name)
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			l.log.Warn().Str("table", spec.Name).Str("file", path).Msg("silver table absent, skipping")
			continue
		}

		reader, ok := silverReaders[spec.Name]
		if !ok {
			failures[spec.Name] = fmt.Errorf("no silver reader registered for table %s", spec.Name)
			continue
		}

		rows, err := reader(path)
		if err != nil {
			l.log.Error().Err(err).Str("table", spec.Name).Msg("silver table unreadable")
			failures[spec.Name] = err
			continue
		}

		n, err := l.Merge(ctx, spec, rows)
		if err != nil {
			l.log.Error().Err(err).Str("table", spec.Name).Msg("merge failed, continuing")
			failures[spec.Name] = err
			continue
		}
		counts[spec.Name] = n
	}

	return counts, failures
}
