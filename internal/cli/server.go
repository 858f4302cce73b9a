package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/bekosirs/bekoctl/internal/auth"
	"github.com/bekosirs/bekoctl/internal/config"
	"github.com/bekosirs/bekoctl/internal/logging"
	"github.com/bekosirs/bekoctl/internal/server"
	"github.com/bekosirs/bekoctl/internal/server/handlers"
	"github.com/bekosirs/bekoctl/internal/storage"
)

// NewServerCmd creates the command that runs the stub service
func NewServerCmd(use string) *cobra.Command {
	var (
		configFile string
		port       int
		dataFile   string
		seedUsers  []string
		noBanner   bool
		origins    []string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: "Run a local BekoSIRS API stub",
		Long: `Run an in-process implementation of the BekoSIRS API for offline development
and integration tests. It serves token, registration, account and catalog endpoints.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Check for config file from environment variable if not provided via flag
			if configFile == "" {
				configFile = os.Getenv(config.EnvPrefix + "_CONFIG_FILE")
			}

			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("data") {
				cfg.Storage.Path = dataFile
			}
			if cmd.Flags().Changed("cors-origin") {
				cfg.Server.CORSOrigins = origins
			}
			cfg.Auth.SeedUsers = append(cfg.Auth.SeedUsers, seedUsers...)

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			if !noBanner {
				printBanner(cmd.ErrOrStderr())
			}
			logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
			return runServer(cmd.Context(), cfg, configFile, logger)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to configuration file (optional, can also use BEKOSIRS_STUB_CONFIG_FILE env var)")
	cmd.Flags().IntVarP(&port, "port", "p", 8000, "Port to listen on")
	cmd.Flags().StringVar(&dataFile, "data", "", "Persist data to a JSON file, or to SQLite for *.db and sqlite:// paths (default: in memory)")
	cmd.Flags().StringArrayVar(&seedUsers, "seed-user", nil, "Create user:password at startup (repeatable)")
	cmd.Flags().BoolVar(&noBanner, "no-banner", false, "Do not print the startup banner")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "Browser origins allowed to call /api/ (default: any)")

	return cmd
}

func printBanner(w io.Writer) {
	fmt.Fprintln(w, figure.NewFigure("bekosirs", "cybermedium", true).String())
}

func runServer(ctx context.Context, cfg *config.Config, configFile string, logger *slog.Logger) error {
	logger.Info("Server starting",
		"port", cfg.Server.Port,
		"config_file", configFile,
		"storage_path", cfg.Storage.Path,
		"signing_key", cfg.MaskSigningKey())
	if cfg.UsesDevSigningKey() {
		logger.Warn("Using the built-in development signing key")
	}

	srv, err := NewStubServer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		return err
	}
	return nil
}

// NewStubServer builds a fully wired stub service from cfg
func NewStubServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*server.Server, error) {
	store, err := storage.NewStorage(cfg.Storage.Path, logger)
	if err != nil {
		logger.Error("Failed to initialize storage",
			"error", err,
			"storage_path", cfg.Storage.Path)
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if cfg.Storage.Seed {
		if added, err := store.SeedProducts(storage.DefaultCatalog()); err != nil {
			return nil, fmt.Errorf("failed to seed catalog: %w", err)
		} else if added {
			logger.Info("Default catalog installed", "product_count", len(storage.DefaultCatalog()))
		}
	}

	if cfg.Auth.UsersFile != "" {
		if _, err := auth.LoadUsersFile(ctx, cfg.Auth.UsersFile, store, logger); err != nil {
			logger.Error("Failed to load users file",
				"error", err,
				"users_file", cfg.Auth.UsersFile)
			return nil, fmt.Errorf("failed to load users file: %w", err)
		}
	}
	for _, pair := range cfg.Auth.SeedUsers {
		username, password, err := config.ParseSeedUser(pair)
		if err != nil {
			return nil, err
		}
		if err := auth.SeedUser(ctx, store, username, password); err != nil {
			return nil, fmt.Errorf("failed to seed user %q: %w", username, err)
		}
		logger.Info("Seed user ready", "username", username)
	}

	issuer, err := auth.NewTokenIssuer(cfg.Auth.SigningKey, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	srv := server.NewServer(cfg, logger, store, issuer)

	accounts := auth.NewAccounts(store, logger)
	metricsHandler := handlers.NewMetricsHandler(logger)
	tokenHandler := handlers.NewTokenHandler(accounts, issuer, metricsHandler, logger)
	accountHandler := handlers.NewAccountHandler(accounts, metricsHandler, logger)
	productHandler := handlers.NewProductHandler(store, metricsHandler, logger)
	healthHandler := handlers.NewHealthHandler(store, logger)

	srv.SetHandlers(server.HandlerSet{
		Health:         healthHandler.GetHealth,
		Metrics:        metricsHandler.GetMetrics,
		ObtainToken:    tokenHandler.ObtainToken,
		Register:       accountHandler.Register,
		ChangePassword: accountHandler.ChangePassword,
		ChangeEmail:    accountHandler.ChangeEmail,
		ListProducts:   productHandler.ListProducts,
		ListMyProducts: productHandler.ListMyProducts,
		CountRequests:  metricsHandler.Count,
		OnAuthFailure:  metricsHandler.IncrementAuthFailures,
		OnRateLimited:  metricsHandler.IncrementRateLimitExceeded,
	})

	return srv, nil
}
