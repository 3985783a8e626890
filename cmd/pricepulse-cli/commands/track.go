package commands

import (
	"errors"
	"fmt"
	"strings"

	"pricepulse-backend/internal/store"
	"pricepulse-backend/internal/tracker"

	"github.com/spf13/cobra"
)

var (
	trackName  string
	trackImage string
	trackUrls  []string
)

func init() {
	trackCmd.Flags().StringVar(&trackName, "name", "", "The name of the product.")
	trackCmd.Flags().StringVar(&trackImage, "image", "", "An optional image url.")
	trackCmd.Flags().StringArrayVar(&trackUrls, "url", nil, "A listing of the product as store=url, repeatable.")
	trackCmd.MarkFlagRequired("name")
	trackCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(trackCmd)
}

// parseStoreUrls turns repeated store=url flags into a store url map, the last flag of a store
// wins.
func parseStoreUrls(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		key, url, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		url = strings.TrimSpace(url)
		if !ok || key == "" || url == "" {
			return nil, fmt.Errorf("invalid --url '%s', expected store=url", v)
		}
		out[key] = url
	}
	if len(out) == 0 {
		return nil, errors.New("at least one --url is required")
	}
	return out, nil
}

var trackCmd = &cobra.Command{
	Use:   "track --name <name> --url <store>=<url>...",
	Short: "Registers a product and fetches its prices right away.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		storeUrls, err := parseStoreUrls(trackUrls)
		if err != nil {
			return err
		}
		for key := range storeUrls {
			if _, ok := app.registry.Lookup(key); ok {
				continue
			}
			hint := ""
			if suggestion, ok := app.registry.Suggest(key); ok {
				hint = fmt.Sprintf(" (did you mean '%s'?)", suggestion)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: store '%s' is not supported%s\n", key, hint)
		}

		product, err := app.store.CreateProduct(cmd.Context(), store.CreateProductParams{
			Name:      trackName,
			ImageUrl:  trackImage,
			StoreUrls: storeUrls,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "tracking %s (%s)\n", product.Name, product.Id)

		observations, err := app.orchestrator.FetchPricesForProduct(cmd.Context(), product, storeUrls)
		if err != nil {
			return err
		}
		renderObservations(cmd.OutOrStdout(), tracker.LatestPerStore(observations))
		return nil
	},
}
