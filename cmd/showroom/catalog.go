package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"showroom"
	"showroom/app"
)

func newCatalogCmd() *cobra.Command {
	var (
		dump   bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Load the inventory export and print the active listing",
		Example: `  # Table of active vehicles
  showroom catalog

  # Inspect parsed records, including passthrough columns
  showroom catalog --dump`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			catalog, cleanup, err := app.NewCatalog(ctx, cfg.Catalog, &http.Client{})
			if err != nil {
				return err
			}
			defer cleanup() // nolint: errcheck

			records, err := catalog.Load(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case dump:
				showroom.Fdump(out, records)
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			default:
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tYEAR\tPRICE\tMILEAGE\tFUEL\tTYPE")
				for _, r := range records {
					fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\t%s\n", r.ID, r.Name, r.Year, r.Price, r.Mileage, r.FuelType, r.CarType)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%d active vehicles\n", len(records))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dump, "dump", false, "Dump parsed records with spew")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")

	return cmd
}
