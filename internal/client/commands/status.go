package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	clierrors "github.com/bekosirs/bekoctl/internal/client/errors"
	"github.com/bekosirs/bekoctl/internal/client/output"
	"github.com/bekosirs/bekoctl/internal/client/session"
)

// statusView is the JSON shape of the status command
type statusView struct {
	Server  string `json:"server"`
	Backend string `json:"backend"`
	session.Info
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Long: `Show whether a session token is stored, which backend holds it and, when
the token is a JWT, its user id and expiry. The token is not verified against
the server.

Exit code is 5 when no session is stored.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			view := statusView{
				Server:  a.cfg.API.BaseURL,
				Backend: a.store.Backend().Name(),
				Info:    a.session.Inspect(cmd.Context()),
			}

			err := a.emit(view, func(w io.Writer) error {
				writeStatus(w, view)
				return nil
			})
			if err != nil {
				return err
			}
			if !view.HasAccessToken {
				return clierrors.Silent(clierrors.ExitAuthError)
			}
			return nil
		},
	}
}

func writeStatus(w io.Writer, view statusView) {
	if !view.HasAccessToken {
		output.PrintError(w, fmt.Sprintf("Not logged in to %s", view.Server))
		fmt.Fprintln(w, clierrors.AuthHint)
		return
	}

	output.PrintSuccess(w, fmt.Sprintf("Logged in to %s", view.Server))
	details := []output.Detail{
		{Label: "Storage", Value: view.Backend},
		{Label: "Refresh token", Value: yesNo(view.HasRefreshToken)},
	}
	if c := view.Claims; c != nil {
		details = append(details, output.Detail{Label: "User ID", Value: c.UserID})
		if !c.ExpiresAt.IsZero() {
			expiry := c.ExpiresAt.Local().Format(time.RFC3339)
			if c.Expired {
				expiry += " (expired)"
			}
			details = append(details, output.Detail{Label: "Expires", Value: expiry})
		}
	}
	_ = output.WriteDetails(w, details...)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
