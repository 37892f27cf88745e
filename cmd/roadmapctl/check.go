package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AbdouGaiming/roadmapai-deploy/internal/bootstrap"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/config"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/migrate"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/storage"
)

var checkSkipProbes bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit deployment configuration and dependencies",
	Long: `Audits the resolved configuration against the deployment contract and
probes the runtime dependencies (database, collected static assets). Prints a
JSON report and exits non-zero when any finding fails. Use --skip-probes for a
config-only audit before the first bootstrap, when dependencies don't exist yet.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkSkipProbes, "skip-probes", false, "audit configuration only, without probing dependencies")
}

// finding is one line of the audit report. Only level "error" fails the check;
// "warn" findings are advisory.
type finding struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Level  string `json:"level"`
	Detail string `json:"detail"`
}

type checkReport struct {
	Status   string                           `json:"status"`
	Findings []finding                        `json:"findings"`
	Probes   map[string]bootstrap.ProbeResult `json:"probes,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	defer app.Shutdown(cmd.Context())

	report := checkReport{
		Status:   "ok",
		Findings: auditConfig(cfg),
	}

	if !checkSkipProbes {
		report.Probes = bootstrap.New(nil, nil, nil, nil, app.Probers()).RunDeepHealth(cmd.Context())
		report.Findings = append(report.Findings, databaseFindings(cmd.Context(), app)...)
	}

	failed := false
	for _, f := range report.Findings {
		if !f.OK && f.Level == "error" {
			failed = true
		}
	}
	for _, p := range report.Probes {
		if !p.OK {
			failed = true
		}
	}
	if failed {
		report.Status = "error"
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if failed {
		return errors.New("deployment check failed")
	}
	return nil
}

// auditConfig checks the resolved config against the deployment contract the
// hosting platform expects. These are the same variables build scripts have
// historically required, so the findings double as a pre-deploy checklist.
func auditConfig(cfg *config.Config) []finding {
	var findings []finding

	add := func(name string, ok bool, level, okDetail, badDetail string) {
		f := finding{Name: name, OK: ok, Level: level, Detail: okDetail}
		if !ok {
			f.Detail = badDetail
		}
		findings = append(findings, f)
	}

	add("database_url",
		strings.TrimSpace(cfg.Database.URL) != "",
		"error",
		"database url is set",
		"DATABASE_URL is not set")

	add("secret_key",
		strings.TrimSpace(cfg.App.SecretKey) != "",
		"error",
		"secret key is set",
		"SECRET_KEY is not set")

	add("static_root",
		strings.TrimSpace(cfg.Static.Root) != "",
		"error",
		fmt.Sprintf("static root is %s", cfg.Static.Root),
		"STATIC_ROOT is not set")

	add("debug_disabled",
		!cfg.App.Debug,
		"warn",
		"debug mode is off",
		"DEBUG is enabled; never run production with debug on")

	add("allowed_hosts",
		len(cfg.App.AllowedHosts) > 0,
		"warn",
		fmt.Sprintf("%d allowed hosts configured", len(cfg.App.AllowedHosts)),
		"ALLOWED_HOSTS is empty; the application will reject all requests")

	superuserOK := true
	superuserDetail := "superuser provisioning disabled"
	if cfg.Superuser.Create {
		superuserDetail = fmt.Sprintf("superuser provisioning enabled for %s", cfg.Superuser.Email)
		if strings.TrimSpace(cfg.Superuser.Email) == "" || cfg.Superuser.Password == "" {
			superuserOK = false
		}
	}
	add("superuser",
		superuserOK,
		"error",
		superuserDetail,
		"CREATE_SUPERUSER is \"True\" but ADMIN_EMAIL or ADMIN_PASSWORD is missing")

	return findings
}

// databaseFindings audits state that needs an open database connection. A
// dead database is already reported by the postgres probe, so everything here
// degrades to advisory findings rather than duplicating that failure.
func databaseFindings(ctx context.Context, app *AppContext) []finding {
	store, err := app.OpenStore(ctx)
	if err != nil {
		return []finding{{
			Name:   "database_audit",
			OK:     false,
			Level:  "warn",
			Detail: fmt.Sprintf("audit skipped: %v", err),
		}}
	}
	defer store.Close()

	return []finding{
		migrationFinding(ctx, migrate.New(store.Pool())),
		superuserFinding(ctx, store, app.Cfg.Superuser),
	}
}

// migrationLister is the subset of *migrate.Migrator the audit uses.
type migrationLister interface {
	Pending(ctx context.Context) ([]string, error)
}

func migrationFinding(ctx context.Context, lister migrationLister) finding {
	pending, err := lister.Pending(ctx)
	switch {
	case err != nil:
		return finding{
			Name:   "migrations",
			OK:     false,
			Level:  "warn",
			Detail: fmt.Sprintf("could not list pending migrations: %v", err),
		}
	case len(pending) > 0:
		return finding{
			Name:   "migrations",
			OK:     false,
			Level:  "warn",
			Detail: fmt.Sprintf("%d pending: %s", len(pending), strings.Join(pending, ", ")),
		}
	default:
		return finding{
			Name:   "migrations",
			OK:     true,
			Level:  "warn",
			Detail: "all migrations applied",
		}
	}
}

func superuserFinding(ctx context.Context, store storage.UserStore, cfg config.SuperuserConfig) finding {
	count, err := store.CountSuperusers(ctx)
	switch {
	case err != nil:
		return finding{
			Name:   "superuser_account",
			OK:     false,
			Level:  "warn",
			Detail: fmt.Sprintf("could not count superuser accounts: %v", err),
		}
	case count == 0 && cfg.Create:
		return finding{
			Name:   "superuser_account",
			OK:     true,
			Level:  "warn",
			Detail: "no superuser account yet; bootstrap will create one",
		}
	case count == 0:
		return finding{
			Name:   "superuser_account",
			OK:     false,
			Level:  "warn",
			Detail: "no superuser account exists and provisioning is disabled",
		}
	default:
		return finding{
			Name:   "superuser_account",
			OK:     true,
			Level:  "warn",
			Detail: fmt.Sprintf("%d superuser account(s) present", count),
		}
	}
}
