// Package report summarizes the silver layer: per-table row counts, column
// counts and file sizes, with a totals line. Reads only parquet metadata, so
// reporting stays cheap even for large tables.
package report

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/parquet-go/parquet-go"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"systock/internal/star"
)

// TableStats describes one silver table file.
type TableStats struct {
	Table     string
	Kind      string
	Rows      int64
	Columns   int
	SizeBytes int64
}

// Stats is the full silver inventory for one layout.
type Stats struct {
	Tables     []TableStats
	TotalRows  int64
	TotalBytes int64
}

// Collect gathers statistics for every star table present under the layout.
// Tables not yet written are skipped, so a dimensions-only run still reports.
func Collect(layout star.Layout) (Stats, error) {
	var stats Stats
	for _, spec := range star.AllTables() {
		path := layout.Dim(spec.Name)
		if spec.Kind == "fact" {
			path = layout.Fact(spec.Name)
		}

		ts, ok, err := statTable(spec, path)
		if err != nil {
			return Stats{}, err
		}
		if !ok {
			continue
		}

		stats.Tables = append(stats.Tables, ts)
		stats.TotalRows += ts.Rows
		stats.TotalBytes += ts.SizeBytes
	}
	return stats, nil
}

func statTable(spec star.TableSpec, path string) (TableStats, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return TableStats{}, false, nil
		}
		return TableStats{}, false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return TableStats{}, false, err
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return TableStats{}, false, fmt.Errorf("open table %s: %w", path, err)
	}

	return TableStats{
		Table:     spec.Name,
		Kind:      spec.Kind,
		Rows:      pf.NumRows(),
		Columns:   len(pf.Schema().Fields()),
		SizeBytes: info.Size(),
	}, true, nil
}

// Format renders the statistics as an aligned table with grouped digits.
func (s Stats) Format(w io.Writer) error {
	p := message.NewPrinter(language.BrazilianPortuguese)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "TABLE\tKIND\tROWS\tCOLUMNS\tSIZE")
	for _, t := range s.Tables {
		p.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", t.Table, t.Kind, t.Rows, t.Columns, humanBytes(t.SizeBytes))
	}
	p.Fprintf(tw, "TOTAL\t\t%d\t\t%s\n", s.TotalRows, humanBytes(s.TotalBytes))
	return tw.Flush()
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
