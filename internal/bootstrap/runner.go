package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/AbdouGaiming/roadmapai-deploy/internal/migrate"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/provision"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/seed"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/staticfiles"
)

// ErrBootstrapInProgress is returned when Run is called while a bootstrap is
// already running in this process.
var ErrBootstrapInProgress = errors.New("bootstrap already in progress")

// StaticCollector is satisfied by *staticfiles.Collector.
type StaticCollector interface {
	Collect(ctx context.Context) (staticfiles.Stats, error)
}

// Migrator is satisfied by *migrate.Migrator.
type Migrator interface {
	Apply(ctx context.Context) (migrate.Stats, error)
}

// SuperuserProvisioner is satisfied by *provision.Provisioner.
type SuperuserProvisioner interface {
	EnsureSuperuser(ctx context.Context) (provision.Outcome, error)
}

// CatalogSeeder is satisfied by *seed.FixtureSeeder.
type CatalogSeeder interface {
	Run(ctx context.Context) (seed.Stats, error)
}

// Prober is satisfied by the probe clients used for deep health checks.
type Prober interface {
	Probe(ctx context.Context) ProbeResult
}

// Runner executes the deployment bootstrap. Phases run strictly in order —
// static collection, migration, superuser provisioning, optional seeding —
// and the first failure aborts everything after it. There is deliberately no
// rollback: collection and migration are individually re-runnable.
type Runner struct {
	static      StaticCollector
	migrator    Migrator
	provisioner SuperuserProvisioner
	seeder      CatalogSeeder // nil disables the seed phase
	probers     map[string]Prober

	inProgress atomic.Bool
	lastResult *RunResult
	resultMu   sync.RWMutex
}

// New constructs a Runner. seeder may be nil when seeding is disabled.
func New(static StaticCollector, migrator Migrator, provisioner SuperuserProvisioner, seeder CatalogSeeder, probers map[string]Prober) *Runner {
	return &Runner{
		static:      static,
		migrator:    migrator,
		provisioner: provisioner,
		seeder:      seeder,
		probers:     probers,
	}
}

// phase couples a name with its work. run returns a human-readable detail for
// the deploy log plus the phase error.
type phase struct {
	name string
	run  func(ctx context.Context) (detail string, skipped bool, err error)
}

// Run executes all phases sequentially. A failed phase marks the run as error,
// and the remaining phases are recorded as skipped — migrations must never be
// outrun by provisioning, and a broken asset tree must never reach provisioning
// either. Returns ErrBootstrapInProgress if a run is already active.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	if !r.inProgress.CompareAndSwap(false, true) {
		return nil, ErrBootstrapInProgress
	}
	defer r.inProgress.Store(false)

	result := &RunResult{Status: StatusInProgress}

	ctx, span := otel.Tracer("roadmapai-deploy").Start(ctx, "deploy.bootstrap")
	defer span.End()

	slog.InfoContext(ctx, "bootstrap started")

	phases := []phase{
		{PhaseStaticfiles, r.runStaticfiles},
		{PhaseMigrate, r.runMigrate},
		{PhaseSuperuser, r.runSuperuser},
		{PhaseSeed, r.runSeed},
	}

	aborted := false
	for _, p := range phases {
		if aborted {
			result.Phases = append(result.Phases, PhaseResult{
				Name:   p.name,
				Status: StatusSkipped,
				Detail: "not run: an earlier phase failed",
			})
			continue
		}

		detail, skipped, err := p.run(ctx)
		pr := PhaseResult{Name: p.name, Status: StatusOK, Detail: detail}
		switch {
		case err != nil:
			pr.Status = StatusError
			pr.Error = err.Error()
			aborted = true
		case skipped:
			pr.Status = StatusSkipped
		}
		logPhase(ctx, pr)
		result.Phases = append(result.Phases, pr)
	}

	result.Status = StatusOK
	if aborted {
		result.Status = StatusError
	}

	span.SetAttributes(attribute.String("bootstrap.status", result.Status))
	if result.Status == StatusError {
		span.SetStatus(codes.Error, "a bootstrap phase failed")
		slog.WarnContext(ctx, "bootstrap aborted", "status", result.Status)
	} else {
		span.SetStatus(codes.Ok, "")
		slog.InfoContext(ctx, "bootstrap completed", "status", result.Status)
	}

	r.resultMu.Lock()
	r.lastResult = result
	r.resultMu.Unlock()

	return result, nil
}

func (r *Runner) runStaticfiles(ctx context.Context) (string, bool, error) {
	stats, err := r.static.Collect(ctx)
	if err != nil {
		return "", false, err
	}
	return fmt.Sprintf("collected %d files from %d source dirs", stats.Copied, stats.SourcesUsed), false, nil
}

func (r *Runner) runMigrate(ctx context.Context) (string, bool, error) {
	stats, err := r.migrator.Apply(ctx)
	if err != nil {
		return "", false, err
	}
	return fmt.Sprintf("applied %d migrations, %d already recorded", stats.Applied, stats.Skipped), false, nil
}

func (r *Runner) runSuperuser(ctx context.Context) (string, bool, error) {
	outcome, err := r.provisioner.EnsureSuperuser(ctx)
	if err != nil {
		return "", false, err
	}
	return outcome.Message(), !outcome.Enabled, nil
}

func (r *Runner) runSeed(ctx context.Context) (string, bool, error) {
	if r.seeder == nil {
		return "catalog seeding disabled", true, nil
	}
	stats, err := r.seeder.Run(ctx)
	if err != nil {
		return "", false, err
	}
	return fmt.Sprintf("seeded %d companies, %d skills, %d resources",
		stats.Companies, stats.SkillDemands, stats.Resources), false, nil
}

// RunDeepHealth probes every registered dependency concurrently. Probes are
// read-only, so unlike bootstrap phases they don't need to be sequenced.
func (r *Runner) RunDeepHealth(ctx context.Context) map[string]ProbeResult {
	results := make(map[string]ProbeResult, len(r.probers))
	var mu sync.Mutex
	var g errgroup.Group

	for name, prober := range r.probers {
		name, prober := name, prober
		g.Go(func() error {
			probe := prober.Probe(ctx)
			mu.Lock()
			results[name] = probe
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// IsBootstrapInProgress returns true while a run is active.
func (r *Runner) IsBootstrapInProgress() bool {
	return r.inProgress.Load()
}

// IsReady returns true if the last bootstrap completed with StatusOK.
func (r *Runner) IsReady() bool {
	r.resultMu.RLock()
	defer r.resultMu.RUnlock()
	return r.lastResult != nil && r.lastResult.Status == StatusOK
}

// logPhase emits a trace-correlated log line for a phase result.
func logPhase(ctx context.Context, p PhaseResult) {
	switch p.Status {
	case StatusError:
		slog.WarnContext(ctx, "bootstrap phase failed", "phase", p.Name, "error", p.Error)
	case StatusSkipped:
		slog.InfoContext(ctx, "bootstrap phase skipped", "phase", p.Name, "detail", p.Detail)
	default:
		slog.InfoContext(ctx, "bootstrap phase ok", "phase", p.Name, "detail", p.Detail)
	}
}
