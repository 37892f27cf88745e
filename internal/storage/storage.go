package storage

import (
	"context"
	"errors"

	"github.com/AbdouGaiming/roadmapai-deploy/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures the persistence operations the provisioner needs.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	CountSuperusers(ctx context.Context) (int, error)
}

// CatalogStore upserts seeded market-catalog rows. All methods are keyed on
// the natural unique column so re-running a seed never duplicates rows.
type CatalogStore interface {
	UpsertCompany(ctx context.Context, c models.Company) error
	UpsertSkillDemand(ctx context.Context, s models.SkillDemand) error
	UpsertResource(ctx context.Context, r models.Resource) error
}
