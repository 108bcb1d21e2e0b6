// Package cli holds the billingctl commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sangkips/gst-billing/internal/app"
	"github.com/sangkips/gst-billing/internal/config"
	"github.com/sangkips/gst-billing/pkg/logger"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

var (
	envFile     string
	storeDriver string
)

var rootCmd = &cobra.Command{
	Use:   "billingctl",
	Short: "GST billing backend and operator tools",
	Long: `billingctl runs the GST billing API and the maintenance jobs around it:
schema migration, catalog seeding, quotation expiry, stock ledger
verification and operator token issuance.

Configuration is read from the environment and an optional .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && envFile != ".env" {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to an env file")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "Override STORE_DRIVER (postgres or memory)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and installs the global logger
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if storeDriver != "" {
		cfg.Store.Driver = storeDriver
	}
	if err := logger.Setup(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}); err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	return cfg, nil
}

// withApp loads config, builds the app and closes it after fn returns
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close resources")
		}
	}()
	return fn(a)
}
