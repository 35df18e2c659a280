package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khabaroff/apikeys-dashboard/src/config"
	"github.com/khabaroff/apikeys-dashboard/src/logging"
	"github.com/khabaroff/apikeys-dashboard/src/repositories"
	"github.com/khabaroff/apikeys-dashboard/src/services"
)

// globalFlags override values loaded from the environment
type globalFlags struct {
	envFile     string
	driver      string
	databaseURL string
	sqlitePath  string
	verbose     bool
}

// NewRootCmd creates the keyctl command tree
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "keyctl",
		Short: "Manage API keys from the command line",
		Long: `keyctl manages the API key registry directly against its store.

It reads the same environment as the server (STORE_DRIVER, DATABASE_URL,
SQLITE_PATH, DASHBOARD_JWT_SECRET) and an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	cmd.PersistentFlags().StringVar(&flags.driver, "driver", "", "store driver: postgres or sqlite (default from STORE_DRIVER)")
	cmd.PersistentFlags().StringVar(&flags.databaseURL, "database-url", "", "PostgreSQL connection URL (default from DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&flags.sqlitePath, "sqlite-path", "", "SQLite database file (default from SQLITE_PATH)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log store activity to stderr")

	cmd.AddCommand(newGenerateCmd(flags))
	cmd.AddCommand(newListCmd(flags))
	cmd.AddCommand(newRevokeCmd(flags))
	cmd.AddCommand(newValidateCmd(flags))
	cmd.AddCommand(newTokenCmd(flags))

	return cmd
}

// loadConfig reads the environment and applies flag overrides
func (f *globalFlags) loadConfig() (*config.Config, error) {
	cfg := config.Load(f.envFile)

	if f.driver != "" {
		cfg.StoreDriver = f.driver
	}
	if f.databaseURL != "" {
		cfg.DatabaseURL = f.databaseURL
	}
	if f.sqlitePath != "" {
		cfg.SQLitePath = f.sqlitePath
	}

	level := "warn"
	if f.verbose {
		level = "debug"
	}
	logging.Setup(logging.Config{
		Level:   level,
		Format:  "pretty",
		Output:  os.Stderr,
		Service: "keyctl",
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withRegistry opens the configured store and runs fn against a registry on top of it
func (f *globalFlags) withRegistry(ctx context.Context, fn func(*services.KeyRegistry) error) error {
	cfg, err := f.loadConfig()
	if err != nil {
		return err
	}

	backend, err := repositories.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer backend.Close()

	registry := services.NewKeyRegistry(backend.Store,
		services.WithTimeout(cfg.StoreTimeout),
		services.WithUsageTracking(false),
	)
	return fn(registry)
}
