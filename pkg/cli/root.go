// Package cli implements the assignlens command-line interface. Commands
// operate directly on the local snapshot store; no server is required.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"assignlens/internal/app"
	"assignlens/internal/config"
	"assignlens/internal/db"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// cliContext carries the wired app plus the store for cleanup.
type cliContext struct {
	app    *app.App
	store  *db.Store
	logger *slog.Logger
}

func (c *cliContext) close() {
	if c.store != nil {
		_ = c.store.Close()
	}
}

func newRootCmd() *cobra.Command {
	var (
		dbPath   string
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:           "assignlens",
		Short:         "Endpoint assignment resolution",
		Long:          "Resolves which applications, policies, and scripts apply to a managed device, and why.",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the snapshot store (default $STORE_DB_PATH or assignlens.sqlite)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	openCLI := func() (*cliContext, error) {
		if err := config.LoadDotEnv(".env"); err != nil {
			return nil, err
		}
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return nil, err
		}
		if dbPath != "" {
			cfg.StoreDBPath = dbPath
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

		store, err := db.Open(cfg.StoreDBPath, 0)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(store.Write); err != nil {
			_ = store.Close()
			return nil, err
		}

		a, err := app.New(app.Deps{Cfg: cfg, Store: store, Logger: logger})
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		return &cliContext{app: a, store: store, logger: logger}, nil
	}

	rootCmd.AddCommand(newImportCmd(openCLI))
	rootCmd.AddCommand(newDevicesCmd(openCLI))
	rootCmd.AddCommand(newCheckCmd(openCLI))

	return rootCmd
}
