package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/bekosirs/bekoctl/internal/auth"
	"github.com/bekosirs/bekoctl/internal/models"
)

// NewAuthCmd creates the auth utilities command
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Stub account utilities",
	}

	var username string
	hashCmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password for users.yaml",
		Long: `Hash a password with bcrypt for the users.yaml seed file.

The password is read without echo from a terminal, or as the first line of
stdin otherwise. Passwords shorter than the stub's minimum are rejected. With
--user the result is printed as a ready-to-paste users.yaml entry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return writeHash(cmd.OutOrStdout(), username, password)
		},
	}
	hashCmd.Flags().StringVar(&username, "user", "", "Print a users.yaml entry for this username")
	cmd.AddCommand(hashCmd)
	return cmd
}

// readSecret prompts on prompt and reads a password from in
func readSecret(in io.Reader, prompt io.Writer) (string, error) {
	fmt.Fprint(prompt, "Enter password: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(prompt)
	return strings.TrimRight(line, "\r\n"), nil
}

func writeHash(out io.Writer, username, password string) error {
	if !models.ValidPassword(password) {
		return fmt.Errorf("password must be at least %d characters", models.MinPasswordLength)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if username == "" {
		fmt.Fprintln(out, hash)
		return nil
	}
	entry, err := yaml.Marshal(auth.UsersFile{Users: []auth.UserConfig{{Username: username, Password: hash}}})
	if err != nil {
		return fmt.Errorf("failed to encode users.yaml entry: %w", err)
	}
	_, err = out.Write(entry)
	return err
}
