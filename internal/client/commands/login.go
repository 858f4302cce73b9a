package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bekosirs/bekoctl/internal/client/output"
	"github.com/bekosirs/bekoctl/internal/client/validation"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in and store the session token",
		Long: `Sign in to the BekoSIRS service and store the issued tokens.

The username can be given as an argument; otherwise it is prompted for.
The password is always prompted for and never echoed.

Tokens are stored with the configured backend:
- keyring: OS keystore (default on macOS and Windows)
- file: ~/.config/bekosirs/credentials.yaml with 0600 permissions (default elsewhere)
- memory: kept for this process only

Logging in again replaces the stored tokens.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var username string
			if len(args) > 0 {
				username = args[0]
			} else {
				var err error
				if username, err = a.prompter.Username(); err != nil {
					return err
				}
			}
			if err := validation.Required(validation.Field{Name: "username", Value: username}); err != nil {
				return err
			}

			password, err := a.prompter.Password("Password")
			if err != nil {
				return err
			}

			pair, err := a.session.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			return a.emit(map[string]any{
				"server":            a.cfg.API.BaseURL,
				"user":              username,
				"has_refresh_token": pair.Refresh != "",
			}, func(w io.Writer) error {
				output.PrintSuccess(w, fmt.Sprintf("Logged in to %s as %s", a.cfg.API.BaseURL, username))
				return nil
			})
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long: `Remove the stored access and refresh tokens.

This operation is idempotent - it succeeds even if no credentials are stored.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.session.Logout(cmd.Context())

			return a.emit(map[string]bool{"logged_out": true}, func(w io.Writer) error {
				output.PrintSuccess(w, "Logged out successfully")
				return nil
			})
		},
	}
}
