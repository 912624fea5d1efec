package cli

import (
	"github.com/spf13/cobra"

	"systock/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize the silver tables",
	Long: `Print a per-table summary of the silver layer: row counts, column counts
and file sizes. Tables not yet transformed are omitted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := report.Collect(layout())
		if err != nil {
			return err
		}
		return stats.Format(cmd.OutOrStdout())
	},
}
