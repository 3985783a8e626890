package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(productsCmd)
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Lists every tracked product.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		products, err := app.store.ListProducts(cmd.Context())
		if err != nil {
			return err
		}
		renderProducts(cmd.OutOrStdout(), products)
		return nil
	},
}
