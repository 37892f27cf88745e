// Package provision creates the administrative account a fresh deployment
// needs. Provisioning is idempotent: an account that already exists is left
// untouched, and re-running the bootstrap never creates a second one.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/AbdouGaiming/roadmapai-deploy/internal/config"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/models"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/storage"
)

// Outcome reports what the provisioner did.
type Outcome struct {
	Enabled bool   `json:"enabled"`
	Created bool   `json:"created"`
	Email   string `json:"email,omitempty"`
}

// Message renders the human-readable line the deploy log shows for this phase.
func (o Outcome) Message() string {
	switch {
	case !o.Enabled:
		return "superuser provisioning disabled (CREATE_SUPERUSER is not \"True\")"
	case o.Created:
		return fmt.Sprintf("superuser %s created", o.Email)
	default:
		return fmt.Sprintf("superuser %s already exists, skipping", o.Email)
	}
}

// Provisioner ensures a single superuser account keyed by email.
type Provisioner struct {
	store storage.UserStore
	cfg   config.SuperuserConfig

	// hash is injectable so tests don't pay bcrypt cost.
	hash func(password string) (string, error)
}

// New constructs a Provisioner over the given store.
func New(store storage.UserStore, cfg config.SuperuserConfig) *Provisioner {
	return &Provisioner{store: store, cfg: cfg, hash: hashPassword}
}

// EnsureSuperuser looks up the configured admin email and creates the account
// if it is absent. An existing account — including one created by a racing
// bootstrap between our lookup and insert — is a successful no-op.
func (p *Provisioner) EnsureSuperuser(ctx context.Context) (Outcome, error) {
	if !p.cfg.Create {
		return Outcome{}, nil
	}

	email := strings.TrimSpace(p.cfg.Email)
	if email == "" || p.cfg.Password == "" {
		// config.Validate catches this before any phase runs; this guard is
		// the invariant that no account is ever created with empty values.
		return Outcome{Enabled: true}, errors.New("superuser email and password must be set")
	}

	outcome := Outcome{Enabled: true, Email: email}

	_, err := p.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "superuser already exists, skipping", "email", email)
		return outcome, nil
	case !errors.Is(err, storage.ErrNotFound):
		return outcome, fmt.Errorf("look up superuser %s: %w", email, err)
	}

	passwordHash, err := p.hash(p.cfg.Password)
	if err != nil {
		return outcome, fmt.Errorf("hash superuser password: %w", err)
	}

	_, err = p.store.CreateUser(ctx, models.User{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleAdmin,
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	})
	if errors.Is(err, storage.ErrAlreadyExists) {
		// Lost the race to a concurrent bootstrap. The account exists, which
		// is the state we wanted.
		slog.InfoContext(ctx, "superuser created concurrently, skipping", "email", email)
		return outcome, nil
	}
	if err != nil {
		return outcome, fmt.Errorf("create superuser %s: %w", email, err)
	}

	outcome.Created = true
	slog.InfoContext(ctx, "superuser created", "email", email)
	return outcome, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
