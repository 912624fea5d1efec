package transform

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"systock/internal/metrics"
	"systock/internal/star"
)

// Merger is the loader seam: the coordinator hands each built table to it as
// positional rows. A nil Merger means transform-only runs.
type Merger interface {
	Merge(ctx context.Context, spec star.TableSpec, rows [][]any) (int64, error)
}

// Report summarizes one coordinator run. Counts holds transformed row counts
// per entity; a failed entity is recorded with count 0 and its error.
type Report struct {
	Counts   map[string]int64
	Failures map[string]error
}

// Failed reports whether any entity failed.
func (r Report) Failed() bool { return len(r.Failures) > 0 }

type handler struct {
	entity string
	spec   star.TableSpec

	// build transforms the entity, writes its silver table and returns the
	// row count plus the positional rows for the merger.
	build func() (int, [][]any, error)
}

// Coordinator sequences the entity handlers: dimensions first, then facts, so
// fact rows always reference dimension rows loaded in the same run. One
// entity's failure never stops the others.
type Coordinator struct {
	handlers []handler
	merger   Merger
	met      metrics.Backend
	log      zerolog.Logger
}

// NewCoordinator wires the explicit handler registry. The registry is a fixed
// ordered slice, so a missing handler is a construction-time defect rather
// than a runtime lookup miss.
func NewCoordinator(dims *DimensionBuilder, facts *FactBuilder, layout star.Layout, merger Merger, met metrics.Backend, log zerolog.Logger) *Coordinator {
	if met == nil {
		met = metrics.Nop{}
	}
	return &Coordinator{
		handlers: []handler{
			newHandler("clientes", star.DimCliente, layout.Dim(star.DimCliente.Name), dims.BuildClientes),
			newHandler("produtos", star.DimProduto, layout.Dim(star.DimProduto.Name), dims.BuildProdutos),
			newHandler("lojas", star.DimLoja, layout.Dim(star.DimLoja.Name), dims.BuildLojas),
			newHandler("tempo", star.DimTempo, layout.Dim(star.DimTempo.Name), dims.BuildTempo),
			newHandler("vendas", star.FatoVendas, layout.Fact(star.FatoVendas.Name), facts.BuildVendas),
			newHandler("estoque", star.FatoEstoque, layout.Fact(star.FatoEstoque.Name), facts.BuildEstoque),
			newHandler("distribuicoes", star.FatoDistribuicoes, layout.Fact(star.FatoDistribuicoes.Name), facts.BuildDistribuicoes),
		},
		merger: merger,
		met:    met,
		log:    log,
	}
}

// newHandler adapts a typed builder into the untyped handler the run loop
// drives: build, persist the silver table, flatten to positional rows.
func newHandler[T star.Record](entity string, spec star.TableSpec, path string, build func() ([]T, error)) handler {
	return handler{
		entity: entity,
		spec:   spec,
		build: func() (int, [][]any, error) {
			rows, err := build()
			if err != nil {
				return 0, nil, err
			}
			if err := star.WriteTable(path, rows); err != nil {
				return 0, nil, err
			}
			return len(rows), star.Rows(rows), nil
		},
	}
}

// RunAll transforms and loads every entity.
func (c *Coordinator) RunAll(ctx context.Context) Report {
	return c.run(ctx, func(handler) bool { return true })
}

// RunDimensions transforms and loads only the dimension entities.
func (c *Coordinator) RunDimensions(ctx context.Context) Report {
	return c.run(ctx, func(h handler) bool { return h.spec.Kind == "dimension" })
}

// RunFacts transforms and loads only the fact entities.
func (c *Coordinator) RunFacts(ctx context.Context) Report {
	return c.run(ctx, func(h handler) bool { return h.spec.Kind == "fact" })
}

func (c *Coordinator) run(ctx context.Context, include func(handler) bool) Report {
	rep := Report{
		Counts:   make(map[string]int64),
		Failures: make(map[string]error),
	}

	for _, h := range c.handlers {
		if !include(h) {
			continue
		}

		start := time.Now()
		count, rows, err := h.build()
		if err == nil && c.merger != nil {
			_, err = c.merger.Merge(ctx, h.spec, rows)
		}
		c.met.ObserveHistogram(metrics.EntityDuration, time.Since(start).Seconds(), metrics.Labels{"entity": h.entity})

		if err != nil {
			c.log.Error().Err(err).Str("entity", h.entity).Msg("entity failed, continuing")
			rep.Counts[h.entity] = 0
			rep.Failures[h.entity] = err
			c.met.IncCounter(metrics.FailuresTotal, 1, metrics.Labels{"entity": h.entity})
			continue
		}

		rep.Counts[h.entity] = int64(count)
		c.met.IncCounter(metrics.RowsTotal, float64(count), metrics.Labels{"entity": h.entity})
		c.log.Info().Str("entity", h.entity).Int("rows", count).Msg("entity complete")
	}

	return rep
}
