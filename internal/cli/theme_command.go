package cli

import (
	"github.com/spf13/cobra"

	"github.com/mkrupp/shopzone/internal/svc/storefront"
)

func newThemeCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the display theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			theme := app.Preferences.Theme(ctx)

			switch {
			case len(args) == 0:
			case args[0] == "toggle":
				toggled, err := app.Preferences.ToggleTheme(ctx)
				if err != nil {
					return err //nolint:wrapcheck
				}

				theme = toggled
			default:
				theme = storefront.Theme(args[0])
				if err := app.Preferences.SetTheme(ctx, theme); err != nil {
					return err //nolint:wrapcheck
				}
			}

			return newOutput(rootOpts, cmd).message("Theme: " + string(theme))
		},
	}
}
