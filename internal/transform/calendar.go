package transform

import (
	"time"

	"systock/internal/snapshot"
	"systock/internal/star"
)

// timeColumns names the temporal fields scanned per entity when deriving the
// calendar range. The scan is a union: any parsable value from any listed
// column widens the range.
//
// vendas:               sale_date, predicted_delivery, delivered_at
// distribuicao_interna: distribution_date
// estoque:              updated_at
// entradas:             entry_date

// BuildTempo generates the calendar dimension: exactly one row per day in the
// closed global date range, keyed by the YYYYMMDD surrogate.
func (b *DimensionBuilder) BuildTempo() ([]star.TempoRow, error) {
	minDate, maxDate := b.globalDateRange()

	start := truncateDay(minDate)
	end := truncateDay(maxDate)

	out := make([]star.TempoRow, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		_, week := d.ISOWeek()
		weekday := isoWeekday(d)
		out = append(out, star.TempoRow{
			IDTempo:      dayKey(d),
			DataCompleta: d,
			Ano:          int32(d.Year()),
			Mes:          int32(d.Month()),
			Dia:          int32(d.Day()),
			Trimestre:    int32((int(d.Month())-1)/3 + 1),
			Semana:       int32(week),
			DiaSemana:    weekday,
			EhFimSemana:  weekday >= 6,
		})
	}

	b.log.Info().
		Int("rows", len(out)).
		Time("from", start).
		Time("to", end).
		Msg("tempo dimension built")
	return out, nil
}

// globalDateRange scans the temporal columns of every date-bearing entity and
// returns the union min/max. Missing entities and unparsable values are
// skipped; if nothing parses anywhere, the fallback window
// [fallbackStart, now] is used.
func (b *DimensionBuilder) globalDateRange() (time.Time, time.Time) {
	var dates []time.Time

	collect := func(values ...string) {
		for _, v := range values {
			if t, ok := parseDate(v); ok {
				dates = append(dates, t)
			}
		}
	}

	if sales, ok, _ := snapshot.ReadOptional[snapshot.Sale](b.src, "vendas"); ok {
		for _, s := range sales {
			collect(s.SaleDate)
			if s.PredictedDelivery != nil {
				collect(*s.PredictedDelivery)
			}
			if s.DeliveredAt != nil {
				collect(*s.DeliveredAt)
			}
		}
	}
	if dists, ok, _ := snapshot.ReadOptional[snapshot.Distribution](b.src, "distribuicao_interna"); ok {
		for _, d := range dists {
			collect(d.DistributionDate)
		}
	}
	if invs, ok, _ := snapshot.ReadOptional[snapshot.Inventory](b.src, "estoque"); ok {
		for _, i := range invs {
			collect(i.UpdatedAt)
		}
	}
	if entries, ok, _ := snapshot.ReadOptional[snapshot.Entry](b.src, "entradas"); ok {
		for _, e := range entries {
			collect(e.EntryDate)
		}
	}

	if len(dates) == 0 {
		b.log.Warn().Msg("no valid date in any source, using fallback calendar range")
		return b.fallbackStart, b.now()
	}

	minDate, maxDate := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(minDate) {
			minDate = d
		}
		if d.After(maxDate) {
			maxDate = d
		}
	}
	return minDate, maxDate
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// isoWeekday maps to 1=Monday .. 7=Sunday.
func isoWeekday(t time.Time) int32 {
	wd := int32(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
