// Package cmd defines and implements the CLI commands for the titledb executable.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/ctr-titledb/internal/app"
	"github.com/JakeFAU/ctr-titledb/internal/config"
	"github.com/JakeFAU/ctr-titledb/internal/logging"
	"github.com/JakeFAU/ctr-titledb/internal/snapshot"
	"github.com/JakeFAU/ctr-titledb/internal/storage"
	"github.com/JakeFAU/ctr-titledb/pkg/jsondb"
	"github.com/JakeFAU/ctr-titledb/pkg/xmldb"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands will use.
// This allows us to inject a test app during tests.
type App interface {
	Close()
	GetLogger() *zap.Logger
	GetRunID() string
	GetClock() snapshot.Clock
	GetJSON() *jsondb.Client
	GetXML() *xmldb.Client
	GetSnapshotStore(dir string) (storage.BlobStore, error)
}

// newApp is the application factory. It's a variable so we can
// replace it with a test factory.
var newApp = func(_ context.Context, cfgPath string) (App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return app.New(cfg, logger, nil)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "titledb",
		Short: "Query the public Nintendo 3DS title databases.",
		Long: `titledb fetches 3DS title records from two public feeds: the
region-partitioned JSON lists published by hax0kartik/3dsdb and the XML
catalog served by 3dsdb.com. Records are printed as JSON on stdout; logs go
to stderr.`,
		SilenceUsage: true,

		// Runs before every subcommand: build the app and stash it in the context.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, JSON, or TOML)")

	cmd.AddCommand(
		newRegionsCmd(),
		newReleasesCmd(),
		newCatalogCmd(),
		newLookupCmd(),
		newExportCmd(),
	)

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
