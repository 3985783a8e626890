package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [product id...]",
	Short: "Fetches the prices of the given products, or of every product when none are given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			result, err := app.scheduler.Tick(cmd.Context())
			fmt.Fprintf(
				out,
				"products: %d, skipped: %d, failed: %d, observations: %d\n",
				result.Products, result.Skipped, result.Failed, result.Observations,
			)
			return err
		}

		var errs []error
		for _, id := range args {
			product, err := app.store.GetProduct(cmd.Context(), id)
			if err != nil {
				errs = append(errs, fmt.Errorf("product '%s': %w", id, err))
				continue
			}
			observations, err := app.orchestrator.FetchPricesForProduct(cmd.Context(), product, product.StoreUrls)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(out, "%s (%s)\n", product.Name, product.Id)
			renderObservations(out, observations)
		}
		return errors.Join(errs...)
	},
}
