// Package app initializes and holds the services a titledb command needs,
// acting as a small dependency injection container.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/ctr-titledb/internal/clock/system"
	"github.com/JakeFAU/ctr-titledb/internal/config"
	"github.com/JakeFAU/ctr-titledb/internal/id/uuid"
	"github.com/JakeFAU/ctr-titledb/internal/logging"
	"github.com/JakeFAU/ctr-titledb/internal/snapshot"
	"github.com/JakeFAU/ctr-titledb/internal/storage"
	"github.com/JakeFAU/ctr-titledb/internal/storage/local"
	"github.com/JakeFAU/ctr-titledb/pkg/jsondb"
	"github.com/JakeFAU/ctr-titledb/pkg/transport"
	"github.com/JakeFAU/ctr-titledb/pkg/xmldb"
)

// App holds the shared services for one CLI invocation.
type App struct {
	cfg    config.Config
	runID  string
	logger *zap.Logger
	clock  *system.Clock
	json   *jsondb.Client
	xml    *xmldb.Client
}

// New wires the clients for cfg. A nil getter selects the Colly transport
// configured from cfg.HTTP.
func New(cfg config.Config, logger *zap.Logger, getter transport.Getter) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	runID, err := uuid.New().NewID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	logger = logging.WithRun(logger, runID)

	if getter == nil {
		getter = transport.NewColly(transport.Config{
			UserAgent:    cfg.HTTP.UserAgent,
			Timeout:      cfg.Timeout(),
			MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		})
	}

	logger.Debug("application services initialized",
		zap.String("json_base_url", cfg.JSON.BaseURL),
		zap.String("xml_url", cfg.XML.URL),
		zap.Duration("timeout", cfg.Timeout()),
	)

	return &App{
		cfg:    cfg,
		runID:  runID,
		logger: logger,
		clock:  system.New(),
		json: jsondb.New(getter,
			jsondb.WithBaseURL(cfg.JSON.BaseURL),
			jsondb.WithLogger(logger.Named("jsondb")),
		),
		xml: xmldb.New(getter,
			xmldb.WithURL(cfg.XML.URL),
			xmldb.WithLogger(logger.Named("xmldb")),
		),
	}, nil
}

// GetLogger returns the run-scoped logger.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetConfig returns the loaded configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// GetRunID returns the ID attached to every log entry of this run.
func (a *App) GetRunID() string {
	return a.runID
}

// GetClock returns the clock used to stamp export manifests.
func (a *App) GetClock() snapshot.Clock {
	return a.clock
}

// GetJSON returns the region-partitioned feed client.
func (a *App) GetJSON() *jsondb.Client {
	return a.json
}

// GetXML returns the single-document catalog client.
func (a *App) GetXML() *xmldb.Client {
	return a.xml
}

// GetSnapshotStore opens the local store snapshots are exported to. An
// empty dir falls back to export.dir from the configuration.
func (a *App) GetSnapshotStore(dir string) (storage.BlobStore, error) {
	if dir == "" {
		dir = a.cfg.Export.Dir
	}
	store, err := local.New(local.Config{BaseDir: dir})
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return store, nil
}

// Close flushes the logger. It is called by a Cobra hook after the command
// finishes execution.
func (a *App) Close() {
	// Sync on stderr returns EINVAL on some platforms; nothing useful to do with it.
	_ = a.logger.Sync()
}
