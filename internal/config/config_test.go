package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: t.Parallel() is intentionally omitted in this package.
// These tests share process-global environment variables; t.Setenv would race
// with any concurrent reader.

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "roadmapai-deploy", cfg.Telemetry.ServiceName)
	assert.Equal(t, "staticfiles", cfg.Static.Root)
	assert.Equal(t, []string{"static"}, cfg.Static.SourceDirs)
	assert.False(t, cfg.Superuser.Create)
	assert.False(t, cfg.App.Debug)
}

func TestLoad_PrefixedEnvOverride(t *testing.T) {
	t.Setenv("ROADMAP_SERVER_PORT", "9090")
	t.Setenv("ROADMAP_DATABASE_URL", "postgres://roadmap:pw@db:5432/roadmap")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres://roadmap:pw@db:5432/roadmap", cfg.Database.URL)
}

func TestLoad_PlatformEnvAliases(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@host/db")
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("ADMIN_PASSWORD", "secret123")
	t.Setenv("STATIC_ROOT", "/srv/static")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@host/db", cfg.Database.URL)
	assert.Equal(t, "admin@example.com", cfg.Superuser.Email)
	assert.Equal(t, "secret123", cfg.Superuser.Password)
	assert.Equal(t, "/srv/static", cfg.Static.Root)
}

// The provisioning switch is exact-match: only the literal "True" enables it.
func TestLoad_CreateSuperuserExactMatch(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"True", true},
		{"true", false},
		{"TRUE", false},
		{"1", false},
		{"yes", false},
		{"False", false},
	}

	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv("CREATE_SUPERUSER", tc.value)
			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.Superuser.Create, "CREATE_SUPERUSER=%s", tc.value)
		})
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database: DatabaseConfig{URL: "postgres://u:p@host/db"},
			Static:   StaticConfig{Root: "staticfiles"},
		}
	}

	t.Run("valid without provisioning", func(t *testing.T) {
		require.NoError(t, base().Validate())
	})

	t.Run("missing database url", func(t *testing.T) {
		cfg := base()
		cfg.Database.URL = "  "
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})

	t.Run("provisioning enabled without email", func(t *testing.T) {
		cfg := base()
		cfg.Superuser = SuperuserConfig{Create: true, Password: "secret123"}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ADMIN_EMAIL")
	})

	t.Run("provisioning enabled without password", func(t *testing.T) {
		cfg := base()
		cfg.Superuser = SuperuserConfig{Create: true, Email: "admin@example.com"}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ADMIN_PASSWORD")
	})

	t.Run("provisioning fully configured", func(t *testing.T) {
		cfg := base()
		cfg.Superuser = SuperuserConfig{Create: true, Email: "admin@example.com", Password: "secret123"}
		require.NoError(t, cfg.Validate())
	})

	t.Run("missing static root", func(t *testing.T) {
		cfg := base()
		cfg.Static.Root = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "STATIC_ROOT")
	})
}

func TestLoad_EnvIsolation(t *testing.T) {
	require.Empty(t, os.Getenv("ROADMAP_SERVER_PORT"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)
}
