package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for roadmapctl.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Static    StaticConfig    `mapstructure:"static"`
	Superuser SuperuserConfig `mapstructure:"superuser"`
	Seed      SeedConfig      `mapstructure:"seed"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	ServiceName  string `mapstructure:"service_name"`
	LogLevel     string `mapstructure:"log_level"`
}

// AppConfig carries the web application's settings. The deploy tool only
// audits these in `roadmapctl check`; the application itself consumes them.
type AppConfig struct {
	SecretKey    string   `mapstructure:"secret_key"`
	Debug        bool     `mapstructure:"debug"`
	AllowedHosts []string `mapstructure:"allowed_hosts"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type StaticConfig struct {
	// SourceDirs are walked in order; on a path collision the later dir wins.
	SourceDirs []string `mapstructure:"source_dirs"`
	Root       string   `mapstructure:"root"`
}

// SuperuserConfig controls the idempotent admin-account provisioning phase.
type SuperuserConfig struct {
	Create   bool   `mapstructure:"create"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type SeedConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	FixtureFile string `mapstructure:"fixture_file"`
}

type BootstrapConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads config from the optional YAML file at path, then overlays
// environment variables with the ROADMAP_ prefix (e.g. ROADMAP_DATABASE_URL),
// then the flat variable names the hosting platform sets (DATABASE_URL,
// CREATE_SUPERUSER, ADMIN_EMAIL, ...).
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("ROADMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindPlatformEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// The platform contract is exact: only the literal string "True" enables
	// provisioning. Any other value, including "true", leaves it off.
	if raw := v.GetString("superuser.create_raw"); raw != "" {
		cfg.Superuser.Create = raw == "True"
	}

	return &cfg, nil
}

// Validate enforces the rules the bootstrap procedure depends on. Commands
// that touch the database call it before any phase runs, so a misconfigured
// deploy fails fast instead of half-applying.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return errors.New("database url is required (set DATABASE_URL)")
	}
	if c.Superuser.Create {
		if strings.TrimSpace(c.Superuser.Email) == "" {
			return errors.New("superuser provisioning enabled but admin email is empty (set ADMIN_EMAIL)")
		}
		if c.Superuser.Password == "" {
			return errors.New("superuser provisioning enabled but admin password is empty (set ADMIN_PASSWORD)")
		}
	}
	if strings.TrimSpace(c.Static.Root) == "" {
		return errors.New("static root is required (set STATIC_ROOT)")
	}
	return nil
}

// bindPlatformEnv maps the hosting platform's flat variable names onto config
// keys. These are the names build.sh historically consumed, so existing deploy
// environments keep working unchanged.
func bindPlatformEnv(v *viper.Viper) {
	aliases := map[string]string{
		"database.url":         "DATABASE_URL",
		"superuser.create_raw": "CREATE_SUPERUSER",
		"superuser.email":      "ADMIN_EMAIL",
		"superuser.password":   "ADMIN_PASSWORD",
		"app.secret_key":       "SECRET_KEY",
		"app.debug":            "DEBUG",
		"app.allowed_hosts":    "ALLOWED_HOSTS",
		"app.cors_origins":     "CORS_ALLOWED_ORIGINS",
		"static.root":          "STATIC_ROOT",
	}
	for key, env := range aliases {
		// BindEnv only errors on an empty key, which cannot happen here.
		_ = v.BindEnv(key, env)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", true)
	v.SetDefault("telemetry.service_name", "roadmapai-deploy")
	v.SetDefault("telemetry.log_level", "info")

	v.SetDefault("app.debug", false)
	v.SetDefault("app.allowed_hosts", []string{})
	v.SetDefault("app.cors_origins", []string{})

	v.SetDefault("static.source_dirs", []string{"static"})
	v.SetDefault("static.root", "staticfiles")

	v.SetDefault("superuser.create", false)

	v.SetDefault("seed.enabled", false)
	v.SetDefault("seed.fixture_file", "")

	v.SetDefault("bootstrap.timeout", 5*time.Minute)
}
