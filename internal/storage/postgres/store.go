package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AbdouGaiming/roadmapai-deploy/internal/models"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/storage"
)

// Compile-time interface checks.
var (
	_ storage.UserStore    = (*Store)(nil)
	_ storage.CatalogStore = (*Store)(nil)
)

const uniqueViolation = "23505"

// Store provides Postgres-backed persistence for accounts and the seeded
// catalog. Unlike the application's store, it does not create its own schema:
// the migrator owns DDL and must have run first.
type Store struct {
	pool *pgxpool.Pool
}

// New connects a pgx pool to databaseURL. No schema work happens here.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// NewWithPool wraps an existing pool. The caller keeps ownership of the pool.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Pool exposes the underlying pool for components that share the connection,
// such as the migrator.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// CreateUser inserts a new account row. A unique-constraint violation on the
// email column maps to storage.ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
	INSERT INTO users (email, password_hash, first_name, last_name, role, phone, is_active, is_staff, is_superuser)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, email, password_hash, first_name, last_name, role, phone, is_active, is_staff, is_superuser, created_at, updated_at;
	`
	row := s.pool.QueryRow(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Role, user.Phone, user.IsActive, user.IsStaff, user.IsSuperuser)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByEmail fetches an account by its email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
	SELECT id, email, password_hash, first_name, last_name, role, phone, is_active, is_staff, is_superuser, created_at, updated_at
	FROM users
	WHERE email = $1;
	`
	row := s.pool.QueryRow(ctx, query, email)
	return scanUser(row)
}

// CountSuperusers returns the number of accounts carrying the superuser flag.
func (s *Store) CountSuperusers(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_superuser;`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count superusers: %w", err)
	}
	return n, nil
}

// UpsertCompany inserts or refreshes a company keyed by name.
func (s *Store) UpsertCompany(ctx context.Context, c models.Company) error {
	const query = `
	INSERT INTO companies (name, sector, location)
	VALUES ($1, $2, $3)
	ON CONFLICT (name) DO UPDATE SET sector = EXCLUDED.sector, location = EXCLUDED.location;
	`
	if _, err := s.pool.Exec(ctx, query, c.Name, c.Sector, c.Location); err != nil {
		return fmt.Errorf("upsert company %q: %w", c.Name, err)
	}
	return nil
}

// UpsertSkillDemand inserts or refreshes a skill demand keyed by skill.
func (s *Store) UpsertSkillDemand(ctx context.Context, d models.SkillDemand) error {
	const query = `
	INSERT INTO skill_demands (skill, demand_level, avg_salary_dzd)
	VALUES ($1, $2, $3)
	ON CONFLICT (skill) DO UPDATE SET demand_level = EXCLUDED.demand_level, avg_salary_dzd = EXCLUDED.avg_salary_dzd;
	`
	if _, err := s.pool.Exec(ctx, query, d.Skill, d.DemandLevel, d.AvgSalaryDZD); err != nil {
		return fmt.Errorf("upsert skill demand %q: %w", d.Skill, err)
	}
	return nil
}

// UpsertResource inserts or refreshes a learning resource keyed by URL.
func (s *Store) UpsertResource(ctx context.Context, r models.Resource) error {
	const query = `
	INSERT INTO resources (title, resource_type, provider, url, difficulty, language, duration_minutes)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (url) DO UPDATE SET
		title = EXCLUDED.title,
		resource_type = EXCLUDED.resource_type,
		provider = EXCLUDED.provider,
		difficulty = EXCLUDED.difficulty,
		language = EXCLUDED.language,
		duration_minutes = EXCLUDED.duration_minutes;
	`
	if _, err := s.pool.Exec(ctx, query,
		r.Title, r.ResourceType, r.Provider, r.URL, r.Difficulty, r.Language, r.DurationMinutes); err != nil {
		return fmt.Errorf("upsert resource %q: %w", r.URL, err)
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.Phone, &u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}
