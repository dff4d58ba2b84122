package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mkrupp/shopzone/internal/domain"
)

func newLoginCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.Bridge.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err //nolint:wrapcheck
			}

			return newOutput(rootOpts, cmd).message("Welcome back " + user.Name + "! Login successful!")
		},
	}
}

func newRegisterCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <name> <email> <password>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.Bridge.Register(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err //nolint:wrapcheck
			}

			return newOutput(rootOpts, cmd).message("Welcome " + user.Name + "! Account created successfully!")
		},
	}
}

func newLogoutCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.Bridge.Logout(cmd.Context())

			return newOutput(rootOpts, cmd).message("Logged out successfully")
		},
	}
}

type whoami struct {
	Authenticated bool         `json:"authenticated"`
	DisplayName   string       `json:"displayName"`
	User          *domain.User `json:"user,omitempty"`
}

func newWhoamiCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who is signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return renderSession(app, newOutput(rootOpts, cmd))
		},
	}
}

func newRefreshCommand(app *App, rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Check the session with the auth provider and update the user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := app.Bridge.RefreshSession(cmd.Context()); err != nil {
				return err //nolint:wrapcheck
			}

			return renderSession(app, newOutput(rootOpts, cmd))
		},
	}
}

func renderSession(app *App, out output) error {
	sessions := app.Bridge.Sessions()
	data := whoami{DisplayName: sessions.DisplayName()}

	if user, ok := sessions.User(); ok {
		data.Authenticated = true
		data.User = &user
	}

	return out.emit(data, func(w io.Writer) {
		if data.User == nil {
			fmt.Fprintln(w, "Not signed in")

			return
		}

		renderUser(w, data.DisplayName, *data.User)
	})
}
