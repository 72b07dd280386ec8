package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/catalog"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/config"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/flowstore"
)

var version = "0.1.0"

// app carries state shared by every subcommand.
type app struct {
	configPath string
	dbPath     string
	logLevel   string
	logFormat  string
	token      string

	settings config.Settings
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "flowcanvas",
		Short:         "Build prompt-chain flows on a canvas",
		Long:          brand.Sprint("flowcanvas") + " manages saved flows and exposes the canvas editor to agents",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	root.SetVersionTemplate("flowcanvas {{ .Version }}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (YAML or JSON)")
	flags.StringVar(&a.dbPath, "db", "", "SQLite database file (overrides store.path)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
	flags.StringVar(&a.token, "token", os.Getenv("FLOWCANVAS_TOKEN"), "Session token (default $FLOWCANVAS_TOKEN)")

	root.AddCommand(
		flowsCmd(a),
		catalogCmd(a),
		mcpCmd(a),
	)

	return root
}

// load resolves settings from the config file and flags.
func (a *app) load(cmd *cobra.Command) error {
	settings := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		settings = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		settings.Store.Driver = config.DriverSQLite
		settings.Store.Path = a.dbPath
	}
	if flags.Changed("log-level") {
		settings.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		settings.Log.Format = a.logFormat
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.settings = settings
	a.logger = settings.Logger(cmd.ErrOrStderr())
	return nil
}

// openStore opens the configured flow store.
func (a *app) openStore() (flowstore.Store, error) {
	if a.settings.Store.Driver == config.DriverMemory {
		return flowstore.NewMemoryStore(), nil
	}
	return flowstore.NewSQLiteStore(a.settings.Store.Path)
}

// catalogProvider loads the configured catalog. A missing path gives an
// empty palette; a failed load alerts on stderr and also gives an empty one.
func (a *app) catalogProvider(ctx context.Context, cmd *cobra.Command) *catalog.Provider {
	var fetcher catalog.Fetcher = catalog.StaticFetcher{}
	if a.settings.Catalog.Path != "" {
		fetcher = catalog.FileFetcher{Path: a.settings.Catalog.Path}
	}
	provider := catalog.NewProvider(fetcher,
		catalog.WithRetry(a.settings.RetryConfig()),
		catalog.WithLogger(a.logger),
		catalog.WithAlert(func(title, message string) {
			bad.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", title, message)
		}),
	)
	_ = provider.Load(ctx)
	return provider
}
