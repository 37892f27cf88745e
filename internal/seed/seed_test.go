package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdouGaiming/roadmapai-deploy/internal/models"
)

// fakeCatalogStore records upserts keyed on the natural unique column.
type fakeCatalogStore struct {
	companies map[string]models.Company
	skills    map[string]models.SkillDemand
	resources map[string]models.Resource

	failCompany string // name that triggers an error
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		companies: map[string]models.Company{},
		skills:    map[string]models.SkillDemand{},
		resources: map[string]models.Resource{},
	}
}

func (f *fakeCatalogStore) UpsertCompany(_ context.Context, c models.Company) error {
	if c.Name == f.failCompany {
		return errors.New("insert failed")
	}
	f.companies[c.Name] = c
	return nil
}

func (f *fakeCatalogStore) UpsertSkillDemand(_ context.Context, d models.SkillDemand) error {
	f.skills[d.Skill] = d
	return nil
}

func (f *fakeCatalogStore) UpsertResource(_ context.Context, r models.Resource) error {
	f.resources[r.URL] = r
	return nil
}

func TestLoadFixture_EmbeddedDefault(t *testing.T) {
	t.Parallel()

	f, err := LoadFixture("")
	require.NoError(t, err)

	assert.NotEmpty(t, f.Companies)
	assert.NotEmpty(t, f.SkillDemands)
	assert.NotEmpty(t, f.Resources)
}

func TestParseFixture_Valid(t *testing.T) {
	t.Parallel()

	f, err := ParseFixture([]byte(`
companies:
  - name: Yassir
    sector: tech
    location: Algiers
skill_demands:
  - skill: python
    demand_level: high
    avg_salary_dzd: 120000
resources:
  - title: Python for Beginners
    resource_type: course
    url: https://example.com/python
    difficulty: beginner
    language: en
`))
	require.NoError(t, err)

	require.Len(t, f.Companies, 1)
	assert.Equal(t, "Yassir", f.Companies[0].Name)
	require.Len(t, f.SkillDemands, 1)
	assert.Equal(t, 120000, f.SkillDemands[0].AvgSalaryDZD)
	require.Len(t, f.Resources, 1)
	assert.Equal(t, "https://example.com/python", f.Resources[0].URL)
}

func TestParseFixture_Invalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		yaml    string
		wantSub string
	}{
		{"bad yaml", "companies: [", "parse fixture yaml"},
		{"company without name", "companies:\n  - sector: tech", "has no name"},
		{"skill without name", "skill_demands:\n  - demand_level: high", "has no skill"},
		{"resource without url", "resources:\n  - title: Lost", "has no url"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseFixture([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantSub)
		})
	}
}

func TestSeed_UpsertsEverything(t *testing.T) {
	t.Parallel()

	store := newFakeCatalogStore()
	f, err := LoadFixture("")
	require.NoError(t, err)

	stats, err := New(store).Seed(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, len(f.Companies), stats.Companies)
	assert.Equal(t, len(f.SkillDemands), stats.SkillDemands)
	assert.Equal(t, len(f.Resources), stats.Resources)
	assert.Len(t, store.companies, len(f.Companies))
}

// Seeding twice must not grow the catalog: rows are keyed on natural uniques.
func TestSeed_RerunDoesNotDuplicate(t *testing.T) {
	t.Parallel()

	store := newFakeCatalogStore()
	f, err := LoadFixture("")
	require.NoError(t, err)

	seeder := New(store)
	_, err = seeder.Seed(context.Background(), f)
	require.NoError(t, err)
	_, err = seeder.Seed(context.Background(), f)
	require.NoError(t, err)

	assert.Len(t, store.companies, len(f.Companies))
	assert.Len(t, store.skills, len(f.SkillDemands))
	assert.Len(t, store.resources, len(f.Resources))
}

func TestSeed_AbortsOnFirstFailure(t *testing.T) {
	t.Parallel()

	store := newFakeCatalogStore()
	store.failCompany = "Djezzy"

	f := Fixture{
		Companies: []models.Company{
			{Name: "Sonatrach"},
			{Name: "Djezzy"},
			{Name: "Yassir"},
		},
	}

	stats, err := New(store).Seed(context.Background(), f)
	require.Error(t, err)
	assert.Equal(t, 1, stats.Companies)
	assert.NotContains(t, store.companies, "Yassir")
}
