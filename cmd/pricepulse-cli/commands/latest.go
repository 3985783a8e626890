package commands

import (
	"fmt"

	"pricepulse-backend/internal/tracker"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(historyCmd)
}

var latestCmd = &cobra.Command{
	Use:   "latest <product id>",
	Short: "Prints the most recent price of a product on every store.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		product, err := app.store.GetProduct(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		history, err := app.store.ListObservations(cmd.Context(), product.Id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", product.Name, product.Id)
		renderObservations(cmd.OutOrStdout(), tracker.LatestPerStore(history))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <product id>",
	Short: "Prints every price observed for a product, most recent first.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		product, err := app.store.GetProduct(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		history, err := app.store.ListObservations(cmd.Context(), product.Id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", product.Name, product.Id)
		renderObservations(cmd.OutOrStdout(), history)
		return nil
	},
}
