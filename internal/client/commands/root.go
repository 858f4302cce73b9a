package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bekosirs/bekoctl/internal/cli"
	"github.com/bekosirs/bekoctl/internal/client"
	"github.com/bekosirs/bekoctl/internal/client/auth"
	"github.com/bekosirs/bekoctl/internal/client/catalog"
	"github.com/bekosirs/bekoctl/internal/client/config"
	clierrors "github.com/bekosirs/bekoctl/internal/client/errors"
	"github.com/bekosirs/bekoctl/internal/client/output"
	"github.com/bekosirs/bekoctl/internal/client/prompts"
	"github.com/bekosirs/bekoctl/internal/client/session"
	"github.com/bekosirs/bekoctl/internal/logging"
)

// Streams are the process I/O seen by commands
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// globalFlags are the persistent flags shared by every command
type globalFlags struct {
	configFile string
	url        string
	json       bool
	verbose    bool
	timeout    time.Duration
	storage    string
	yes        bool
}

// app carries the components wired for one invocation
type app struct {
	streams Streams
	flags   globalFlags
	viper   *viper.Viper

	cfg      *config.Config
	logger   *slog.Logger
	store    *auth.Store
	client   *client.Client
	session  *session.Manager
	catalog  *catalog.Catalog
	prompter *prompts.Prompter
}

// NewRootCmd builds the bekoctl command tree
func NewRootCmd(streams Streams) *cobra.Command {
	a := &app{
		streams:  streams,
		viper:    config.NewViper(),
		prompter: prompts.New(streams.In, streams.Err),
	}

	rootCmd := &cobra.Command{
		Use:   "bekoctl",
		Short: "BekoSIRS command-line client",
		Long: `bekoctl is a command-line client for the BekoSIRS product registration service.

It signs you in, keeps the session token in the platform credential store,
lists the product catalog and the products assigned to your account, and
manages your password and email.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "Path to configuration file (or use "+config.ConfigFileEnvVar+" env var)")
	pf.StringVar(&a.flags.url, "url", "", "Service base URL (default "+config.DefaultBaseURL+", or use BEKOSIRS_API_BASE_URL env var)")
	pf.BoolVar(&a.flags.json, "json", false, "Output in JSON format")
	pf.BoolVar(&a.flags.verbose, "verbose", false, "Enable verbose logging")
	pf.DurationVar(&a.flags.timeout, "timeout", 0, "HTTP request timeout (default 15s)")
	pf.StringVar(&a.flags.storage, "storage", "", "Credential storage backend: keyring, file or memory")
	pf.BoolVarP(&a.flags.yes, "yes", "y", false, "Skip confirmation prompts")

	// Unchanged flags fall through to config file, env and defaults
	_ = a.viper.BindPFlag("api.base_url", pf.Lookup("url"))
	_ = a.viper.BindPFlag("api.timeout", pf.Lookup("timeout"))
	_ = a.viper.BindPFlag("storage.backend", pf.Lookup("storage"))

	rootCmd.SetIn(streams.In)
	rootCmd.SetOut(streams.Out)
	rootCmd.SetErr(streams.Err)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.WithCode(clierrors.ExitInvalidArguments, err)
	})

	rootCmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newRegisterCmd(a),
		newStatusCmd(a),
		newProductsCmd(a),
		newMyProductsCmd(a),
		newAccountCmd(a),
		newStubServerCmd(),
	)

	return rootCmd
}

// setup loads configuration and wires the session components
func (a *app) setup(ctx context.Context) error {
	if a.flags.verbose {
		a.viper.Set("logging.level", "debug")
	}
	if err := config.ReadConfigFile(a.viper, a.flags.configFile); err != nil {
		return clierrors.WithCode(clierrors.ExitInvalidArguments, err)
	}
	cfg, err := config.LoadWithViper(a.viper)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return clierrors.InvalidArguments("invalid configuration: %w", err)
	}
	a.cfg = cfg

	a.logger = logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, a.streams.Err)

	backend, err := auth.NewBackend(cfg.Storage.Backend, cfg.BackendLocation())
	if err != nil {
		return err
	}
	a.store = auth.NewStore(backend, a.logger)
	a.client = client.NewClient(cfg.API.BaseURL, cfg.API.Timeout, a.logger)
	a.session = session.NewManager(a.client, a.store, a.logger, session.Options{AutoLogout: cfg.Session.AutoLogout})
	a.catalog = catalog.New(a.client)

	a.logger.Debug("Configuration loaded",
		"base_url", cfg.API.BaseURL,
		"storage", backend.Name(),
		"auto_logout", cfg.Session.AutoLogout)

	a.session.Restore(ctx)
	return nil
}

// emit prints data as the JSON envelope, or runs text otherwise
func (a *app) emit(data any, text func(w io.Writer) error) error {
	if a.flags.json {
		return output.OutputJSON(a.streams.Out, data, "")
	}
	return text(a.streams.Out)
}

// usageArgs tags positional argument errors as invalid usage
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return clierrors.WithCode(clierrors.ExitInvalidArguments, err)
		}
		return nil
	}
}

func newStubServerCmd() *cobra.Command {
	cmd := cli.NewServerCmd("stub-server")
	// The stub needs none of the client wiring
	cmd.PersistentPreRunE = func(*cobra.Command, []string) error { return nil }
	return cmd
}

// Run executes bekoctl with args and returns the process exit code
func Run(ctx context.Context, args []string, streams Streams) int {
	rootCmd := NewRootCmd(streams)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return clierrors.ExitSuccess
	}

	jsonOutput, _ := rootCmd.PersistentFlags().GetBool("json")
	if jsonOutput && !clierrors.IsSilent(err) {
		_ = output.OutputJSON(streams.Out, nil, clierrors.Message(err))
		return clierrors.ExitCodeFor(err)
	}
	return clierrors.Report(streams.Err, err)
}

// Execute runs bekoctl against the process streams
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return Run(ctx, os.Args[1:], Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
}
