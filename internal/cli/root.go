package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command of the storefront CLI. Every
// subcommand acts on app.
func NewRootCommand(app *App) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "shopzone",
		Short: "ShopZone storefront",
		Long:  "Browse the ShopZone catalog, manage your cart and check out from the command line.",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (text|json)")

	cmd.AddCommand(newProductsCommand(app, opts))
	cmd.AddCommand(newSearchCommand(app, opts))
	cmd.AddCommand(newShowCommand(app, opts))
	cmd.AddCommand(newCategoriesCommand(app, opts))
	cmd.AddCommand(newCartCommand(app, opts))
	cmd.AddCommand(newLoginCommand(app, opts))
	cmd.AddCommand(newRegisterCommand(app, opts))
	cmd.AddCommand(newLogoutCommand(app, opts))
	cmd.AddCommand(newWhoamiCommand(app, opts))
	cmd.AddCommand(newRefreshCommand(app, opts))
	cmd.AddCommand(newThemeCommand(app, opts))

	return cmd
}
