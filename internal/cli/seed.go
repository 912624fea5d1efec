package cli

import (
	"github.com/spf13/cobra"

	"systock/internal/seed"
)

var (
	seedSeed          uint64
	seedClients       int
	seedProducts      int
	seedStores        int
	seedSales         int
	seedInventories   int
	seedDistributions int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate fake bronze snapshots for local runs",
	Long: `Write one generated snapshot file per raw entity into the bronze
directory. All foreign references are consistent, so a 'run' over the
seeded data produces fully joined dimension and fact tables.

Example:
  systock-dw seed --seed 42 --sales 500`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return seed.Generate(cfg.BronzeDir, seed.Options{
			Seed:          seedSeed,
			Clients:       seedClients,
			Products:      seedProducts,
			Stores:        seedStores,
			Sales:         seedSales,
			Inventories:   seedInventories,
			Distributions: seedDistributions,
		}, log)
	},
}

func init() {
	seedCmd.Flags().Uint64Var(&seedSeed, "seed", 0,
		"random seed for reproducible output (0 = derive from clock)")
	seedCmd.Flags().IntVar(&seedClients, "clients", 0, "number of clients")
	seedCmd.Flags().IntVar(&seedProducts, "products", 0, "number of products")
	seedCmd.Flags().IntVar(&seedStores, "stores", 0, "number of stores")
	seedCmd.Flags().IntVar(&seedSales, "sales", 0, "number of sales")
	seedCmd.Flags().IntVar(&seedInventories, "inventories", 0, "number of inventory readings")
	seedCmd.Flags().IntVar(&seedDistributions, "distributions", 0, "number of internal distributions")
}
