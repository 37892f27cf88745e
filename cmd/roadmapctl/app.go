package main

import (
	"context"
	"log/slog"

	"github.com/AbdouGaiming/roadmapai-deploy/internal/bootstrap"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/clients"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/config"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/migrate"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/provision"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/seed"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/staticfiles"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/storage/postgres"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/telemetry"
)

// AppContext carries the dependencies shared by all subcommands. The database
// store is NOT opened here: `check` must be able to run and report a missing
// or unreachable database instead of dying before it can say so. Commands that
// need the store open it via OpenStore after validating config.
type AppContext struct {
	Cfg *config.Config

	// Telemetry is nil when no OTLP endpoint is configured or the provider
	// failed to initialise. Telemetry is best-effort and never fails a deploy.
	Telemetry *telemetry.Provider
}

func buildAppContext(cfg *config.Config) (*AppContext, error) {
	app := &AppContext{Cfg: cfg}

	if cfg.Telemetry.OTLPEndpoint != "" {
		provider, err := telemetry.InitProvider(
			context.Background(),
			cfg.Telemetry.OTLPEndpoint,
			cfg.Telemetry.ServiceName,
			cfg.Telemetry.OTLPInsecure,
		)
		if err != nil {
			slog.Warn("telemetry disabled: provider init failed",
				"endpoint", cfg.Telemetry.OTLPEndpoint, "err", err)
		} else {
			app.Telemetry = provider
			// Deploy logs now reach both stdout and the collector.
			slog.SetDefault(telemetry.NewTeeLogger(cfg.Telemetry.LogLevel, provider.LogHandler()))
		}
	}

	return app, nil
}

// Shutdown flushes telemetry. Safe to call when telemetry was never enabled.
func (a *AppContext) Shutdown(ctx context.Context) {
	if a.Telemetry == nil {
		return
	}
	if err := a.Telemetry.Shutdown(ctx); err != nil {
		slog.Warn("telemetry shutdown", "err", err)
	}
}

// OpenStore connects a Postgres store for the configured database URL.
func (a *AppContext) OpenStore(ctx context.Context) (*postgres.Store, error) {
	return postgres.New(ctx, a.Cfg.Database.URL)
}

// NewRunner wires the bootstrap runner over an open store. The seed phase is
// only wired when enabled; a nil seeder makes the runner record it as skipped.
func (a *AppContext) NewRunner(store *postgres.Store) *bootstrap.Runner {
	collector := staticfiles.New(a.Cfg.Static.SourceDirs, a.Cfg.Static.Root)
	migrator := migrate.New(store.Pool())
	provisioner := provision.New(store, a.Cfg.Superuser)

	var seeder bootstrap.CatalogSeeder
	if a.Cfg.Seed.Enabled {
		seeder = seed.NewFixtureSeeder(store, a.Cfg.Seed.FixtureFile)
	}

	return bootstrap.New(collector, migrator, provisioner, seeder, a.Probers())
}

// Probers returns the dependency probes used by deep health and `check`.
func (a *AppContext) Probers() map[string]bootstrap.Prober {
	return map[string]bootstrap.Prober{
		"postgres":    clients.NewPostgresClient(a.Cfg.Database.URL, clients.NewCircuitBreaker("postgres")),
		"staticfiles": clients.NewStaticRootClient(a.Cfg.Static.Root),
	}
}
