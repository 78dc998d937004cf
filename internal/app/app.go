// Package app provides application-level wiring and dependency injection
// following hexagonal architecture: repositories behind domain ports,
// services over repositories, collaborators on the edges.
package app

import (
	"log/slog"

	"assignlens/internal/config"
	"assignlens/internal/db"
	"assignlens/internal/db/repository"
	"assignlens/internal/domain"
	"assignlens/internal/enrich"
	"assignlens/internal/service"
	"assignlens/internal/settings"
)

// Deps holds the external dependencies that main() must provide: config,
// the opened snapshot store, and optionally a directory client for
// membership enrichment.
type Deps struct {
	Cfg       *config.Config
	Store     *db.Store
	Directory domain.DirectoryClient // nil disables enrichment
	Logger    *slog.Logger
}

// App holds the fully-wired application: the two services the API and CLI
// consume, plus the repositories router setup needs directly.
type App struct {
	Resolution *service.ResolutionService
	Snapshot   *service.SnapshotService
	Scheduler  *service.RefreshScheduler // nil unless REFRESH_CRON is set
	APIKeys    *repository.APIKeyRepo
}

// New wires repositories and services from the provided deps.
func New(deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	devices := repository.NewDeviceRepo(deps.Store.Read, deps.Store.Write)
	memberships := repository.NewMembershipRepo(deps.Store.Read, deps.Store.Write)
	assets := repository.NewAssignableRepo(deps.Store.Read, deps.Store.Write)
	filters := repository.NewFilterRepo(deps.Store.Read, deps.Store.Write)
	settingsRepo := repository.NewSettingsRepo(deps.Store.Read, deps.Store.Write)
	apiKeys := repository.NewAPIKeyRepo(deps.Store.Read, deps.Store.Write)

	additive, err := settings.LoadAdditiveList(cfg.AdditiveListPath)
	if err != nil {
		return nil, err
	}

	var enricher service.Enricher
	if deps.Directory != nil {
		enricher = enrich.New(deps.Directory, logger,
			enrich.WithBatchSize(cfg.DirectoryBatchSize),
			enrich.WithRateLimit(cfg.DirectoryRPS, cfg.DirectoryBatchSize))
	}

	resolution := service.NewResolutionService(
		devices, memberships, assets, filters, settingsRepo,
		settings.NewAnalyzer(additive), logger)
	snapshot := service.NewSnapshotService(
		devices, memberships, assets, filters, settingsRepo, enricher, logger)

	app := &App{
		Resolution: resolution,
		Snapshot:   snapshot,
		APIKeys:    apiKeys,
	}
	if cfg.RefreshCron != "" {
		app.Scheduler = service.NewRefreshScheduler(snapshot, cfg.SnapshotDir, cfg.RefreshCron, logger)
	}
	return app, nil
}
