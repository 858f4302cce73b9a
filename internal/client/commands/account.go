package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bekosirs/bekoctl/internal/client/output"
)

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage your account",
	}

	cmd.AddCommand(newChangePasswordCmd(a))
	cmd.AddCommand(newChangeEmailCmd(a))

	return cmd
}

func newChangePasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "change-password",
		Short: "Change your password",
		Long: `Change the account password. The current password, the new password and
its confirmation are prompted for.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := a.prompter.Password("Current password")
			if err != nil {
				return err
			}
			newPassword, err := a.prompter.Password("New password")
			if err != nil {
				return err
			}
			confirm, err := a.prompter.Password("Confirm new password")
			if err != nil {
				return err
			}

			if err := a.session.ChangePassword(cmd.Context(), current, newPassword, confirm); err != nil {
				return err
			}

			return a.emit(map[string]bool{"password_changed": true}, func(w io.Writer) error {
				output.PrintSuccess(w, "Password changed")
				return nil
			})
		},
	}
}

func newChangeEmailCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "change-email <new-email>",
		Short: "Change your email address",
		Long: `Change the account email address. The current password is prompted for
to confirm the change.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			newEmail := args[0]

			// Prompt for confirmation unless --yes flag is set
			if !a.flags.yes {
				if !a.prompter.Confirm(fmt.Sprintf("Change account email to %s?", newEmail)) {
					fmt.Fprintln(a.streams.Err, "Email change cancelled")
					return nil
				}
			}

			password, err := a.prompter.Password("Password")
			if err != nil {
				return err
			}

			if err := a.session.ChangeEmail(cmd.Context(), newEmail, password); err != nil {
				return err
			}

			return a.emit(map[string]string{"email": newEmail}, func(w io.Writer) error {
				output.PrintSuccess(w, fmt.Sprintf("Email changed to %s", newEmail))
				return nil
			})
		},
	}
}
