package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bekosirs/bekoctl/internal/cli"
)

var version = "1.0.0"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bekosirs-stub",
	Short: "BekoSIRS API stub server",
	Long: `bekosirs-stub serves a local implementation of the BekoSIRS API: token,
registration, account and product catalog endpoints backed by memory or a
JSON data file. It is meant for offline development and integration tests.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(cli.NewServerCmd("server"))
	rootCmd.AddCommand(cli.NewAuthCmd())

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Version}}
`)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
