// Package migrate applies the embedded SQL schema migrations and records them
// in the schema_migrations ledger. Already-recorded versions are skipped, so
// the migrator is safe to run on every deploy.
package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const ledgerDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Migration is a single versioned schema change.
type Migration struct {
	Version string // zero-padded numeric prefix, e.g. "0003"
	Name    string // human-readable remainder, e.g. "roadmaps"
	SQL     string
}

// Stats summarises a migrator run.
type Stats struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// Migrator applies migrations against a pgx pool.
type Migrator struct {
	pool   *pgxpool.Pool
	source fs.FS
}

// New returns a Migrator using the embedded migration files.
func New(pool *pgxpool.Pool) *Migrator {
	return &Migrator{pool: pool, source: migrationsFS}
}

// Apply runs every pending migration in version order. Each migration executes
// inside its own transaction together with its ledger insert, so a partially
// applied file never gets recorded. The first failure aborts the run.
func (m *Migrator) Apply(ctx context.Context) (Stats, error) {
	migrations, err := loadMigrations(m.source)
	if err != nil {
		return Stats{}, err
	}

	if _, err := m.pool.Exec(ctx, ledgerDDL); err != nil {
		return Stats{}, fmt.Errorf("create schema_migrations ledger: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, mig := range migrations {
		if applied[mig.Version] {
			stats.Skipped++
			continue
		}
		if err := m.applyOne(ctx, mig); err != nil {
			return stats, fmt.Errorf("migration %s_%s: %w", mig.Version, mig.Name, err)
		}
		stats.Applied++
	}
	return stats, nil
}

// Pending returns the versions not yet recorded in the ledger, in order. The
// `check` command reports these so operators can see an un-bootstrapped or
// stale environment before traffic hits it.
func (m *Migrator) Pending(ctx context.Context) ([]string, error) {
	migrations, err := loadMigrations(m.source)
	if err != nil {
		return nil, err
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}
	return pendingVersions(migrations, applied), nil
}

func (m *Migrator) applyOne(ctx context.Context, mig Migration) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, mig.SQL); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO schema_migrations (version, name) VALUES ($1, $2);`,
		mig.Version, mig.Name); err != nil {
		return fmt.Errorf("record in ledger: %w", err)
	}
	return tx.Commit(ctx)
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := m.pool.Query(ctx, `SELECT version FROM schema_migrations;`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations ledger: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil && err != pgx.ErrNoRows {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}
	return applied, nil
}

// loadMigrations reads and orders all .sql files from the source tree.
// File names must follow NNNN_name.sql; anything else is a packaging error.
func loadMigrations(source fs.FS) ([]Migration, error) {
	entries, err := fs.Glob(source, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}

	migrations := make([]Migration, 0, len(entries))
	for _, path := range entries {
		base := strings.TrimSuffix(path[len("migrations/"):], ".sql")
		version, name, ok := strings.Cut(base, "_")
		if !ok || version == "" || name == "" {
			return nil, fmt.Errorf("malformed migration file name %q (want NNNN_name.sql)", path)
		}
		body, err := fs.ReadFile(source, path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		migrations = append(migrations, Migration{Version: version, Name: name, SQL: string(body)})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version == migrations[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %q", migrations[i].Version)
		}
	}
	return migrations, nil
}

func pendingVersions(migrations []Migration, applied map[string]bool) []string {
	var pending []string
	for _, mig := range migrations {
		if !applied[mig.Version] {
			pending = append(pending, mig.Version)
		}
	}
	return pending
}
