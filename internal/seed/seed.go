// Package seed loads catalog fixtures — companies, skill demands, and curated
// learning resources — into the database. Rows are keyed on their natural
// unique column and upserted, so seeding is safe to repeat.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AbdouGaiming/roadmapai-deploy/internal/models"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/storage"
)

//go:embed fixtures/algeria_market.yaml
var defaultFixture []byte

// Fixture is the parsed YAML catalog payload.
type Fixture struct {
	Companies    []models.Company     `yaml:"companies"`
	SkillDemands []models.SkillDemand `yaml:"skill_demands"`
	Resources    []models.Resource    `yaml:"resources"`
}

// Stats counts the rows written by a seed run.
type Stats struct {
	Companies    int `json:"companies"`
	SkillDemands int `json:"skill_demands"`
	Resources    int `json:"resources"`
}

// LoadFixture reads and parses the fixture at path. An empty path selects the
// embedded Algeria market fixture that ships with the binary.
func LoadFixture(path string) (Fixture, error) {
	data := defaultFixture
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return Fixture{}, fmt.Errorf("read fixture %s: %w", path, err)
		}
	}
	return ParseFixture(data)
}

// ParseFixture decodes fixture YAML and validates the fields the upserts key on.
func ParseFixture(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture yaml: %w", err)
	}
	for i, c := range f.Companies {
		if c.Name == "" {
			return Fixture{}, fmt.Errorf("fixture company #%d has no name", i+1)
		}
	}
	for i, d := range f.SkillDemands {
		if d.Skill == "" {
			return Fixture{}, fmt.Errorf("fixture skill demand #%d has no skill", i+1)
		}
	}
	for i, r := range f.Resources {
		if r.URL == "" {
			return Fixture{}, fmt.Errorf("fixture resource #%d (%q) has no url", i+1, r.Title)
		}
	}
	return f, nil
}

// FixtureSeeder binds a Seeder to a fixture path so the bootstrap runner can
// trigger a full load in one call.
type FixtureSeeder struct {
	seeder      *Seeder
	fixturePath string // empty selects the embedded default
}

// NewFixtureSeeder constructs a FixtureSeeder over the given store.
func NewFixtureSeeder(store storage.CatalogStore, fixturePath string) *FixtureSeeder {
	return &FixtureSeeder{seeder: New(store), fixturePath: fixturePath}
}

// Run loads the fixture and seeds it.
func (fs *FixtureSeeder) Run(ctx context.Context) (Stats, error) {
	f, err := LoadFixture(fs.fixturePath)
	if err != nil {
		return Stats{}, err
	}
	return fs.seeder.Seed(ctx, f)
}

// Seeder writes fixtures through a CatalogStore.
type Seeder struct {
	store storage.CatalogStore
}

// New constructs a Seeder.
func New(store storage.CatalogStore) *Seeder {
	return &Seeder{store: store}
}

// Seed upserts every fixture row, aborting on the first failure.
func (s *Seeder) Seed(ctx context.Context, f Fixture) (Stats, error) {
	var stats Stats

	for _, c := range f.Companies {
		if err := s.store.UpsertCompany(ctx, c); err != nil {
			return stats, err
		}
		stats.Companies++
	}
	for _, d := range f.SkillDemands {
		if err := s.store.UpsertSkillDemand(ctx, d); err != nil {
			return stats, err
		}
		stats.SkillDemands++
	}
	for _, r := range f.Resources {
		if err := s.store.UpsertResource(ctx, r); err != nil {
			return stats, err
		}
		stats.Resources++
	}

	slog.InfoContext(ctx, "catalog seeded",
		"companies", stats.Companies,
		"skill_demands", stats.SkillDemands,
		"resources", stats.Resources,
	)
	return stats, nil
}
