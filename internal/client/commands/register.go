package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bekosirs/bekoctl/internal/client/output"
	"github.com/bekosirs/bekoctl/internal/models"
)

func newRegisterCmd(a *app) *cobra.Command {
	var req models.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register [username]",
		Short: "Create a new account",
		Long: `Create a new BekoSIRS account.

Username and email are prompted for when not given; the password is always
prompted for. Registering does not sign you in; run 'bekoctl login' afterwards.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if len(args) > 0 {
				req.Username = args[0]
			} else if req.Username, err = a.prompter.Username(); err != nil {
				return err
			}
			if req.Email == "" {
				if req.Email, err = a.prompter.Line("Email"); err != nil {
					return err
				}
			}
			if req.Password, err = a.prompter.Password("Password"); err != nil {
				return err
			}

			if err := a.session.Register(cmd.Context(), req); err != nil {
				return err
			}

			return a.emit(map[string]string{
				"username": req.Username,
				"email":    req.Email,
			}, func(w io.Writer) error {
				output.PrintSuccess(w, fmt.Sprintf("Account %s created. Run 'bekoctl login %s' to sign in", req.Username, req.Username))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")

	return cmd
}
