// Package config provides configuration management for the harness.
//
// All settings are environment-driven with documented defaults so the
// harness behaves identically under `make e2e-test`, CI, and direct
// `go test` invocations. An env file (default .env.test) is loaded first
// and overrides the inherited environment, matching how the application
// stack itself is configured.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the harness configuration.
type Config struct {
	DB      DBConfig
	Redis   RedisConfig
	Compose ComposeConfig
	Health  HealthConfig

	// HostPort is the published port of the web service. The default must
	// match the default in docker-compose.yml.
	HostPort string
}

// DBConfig holds PostgreSQL connection parameters for database fixtures.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig holds the cache backend connection settings.
type RedisConfig struct {
	URL string
}

// ComposeConfig holds docker compose invocation settings.
type ComposeConfig struct {
	// File is the compose file passed via -f.
	File string

	// ProjectName is passed via --project-name so harness runs never
	// collide with a developer's own compose state.
	ProjectName string

	// EnvFile is passed via --env-file.
	EnvFile string

	// Sudo prefixes every docker invocation with sudo. This allows
	// `SUDO=true make e2e-test` to work on hosts where the docker socket
	// is root-only.
	Sudo bool

	// UniqueName appends a random suffix to ProjectName so parallel CI
	// jobs on a shared runner never share containers.
	UniqueName bool
}

// HealthConfig holds readiness polling settings.
type HealthConfig struct {
	// Timeout is the total time to wait for the stack to become healthy.
	Timeout time.Duration

	// Interval is the fixed delay between probes.
	Interval time.Duration
}

// Load reads configuration from the given env file and the environment.
// The env file is optional; when present its values override the inherited
// environment. Pass "" to use the ENV_FILE default.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = envString("ENV_FILE", ".env.test")
	}

	// Overload (not Load) so a stale shell environment cannot shadow the
	// test settings, same as load_dotenv(override=True).
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Overload(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "django_user")
	viper.SetDefault("DB_PASSWORD", "django_password")
	viper.SetDefault("DB_NAME", "django_db_test")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/1")
	viper.SetDefault("COMPOSE_FILE", "docker-compose.yml")
	viper.SetDefault("COMPOSE_PROJECT_NAME", "template-test")
	viper.SetDefault("COMPOSE_UNIQUE_NAME", false)
	viper.SetDefault("ENV_FILE", ".env.test")
	viper.SetDefault("HOST_PORT", "50080")
	viper.SetDefault("HEALTH_TIMEOUT", "120s")
	viper.SetDefault("HEALTH_INTERVAL", "5s")
	viper.SetDefault("SUDO", false)

	viper.AutomaticEnv()

	cfg := &Config{
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("REDIS_URL"),
		},
		Compose: ComposeConfig{
			File:        viper.GetString("COMPOSE_FILE"),
			ProjectName: viper.GetString("COMPOSE_PROJECT_NAME"),
			EnvFile:     envFile,
			Sudo:        viper.GetBool("SUDO"),
			UniqueName:  viper.GetBool("COMPOSE_UNIQUE_NAME"),
		},
		Health: HealthConfig{
			Timeout:  viper.GetDuration("HEALTH_TIMEOUT"),
			Interval: viper.GetDuration("HEALTH_INTERVAL"),
		},
		HostPort: viper.GetString("HOST_PORT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Health.Timeout <= 0 {
		return fmt.Errorf("HEALTH_TIMEOUT must be positive, got %s", c.Health.Timeout)
	}
	if c.Health.Interval <= 0 {
		return fmt.Errorf("HEALTH_INTERVAL must be positive, got %s", c.Health.Interval)
	}
	if c.Health.Interval > c.Health.Timeout {
		return fmt.Errorf("HEALTH_INTERVAL %s exceeds HEALTH_TIMEOUT %s", c.Health.Interval, c.Health.Timeout)
	}
	if c.Compose.ProjectName == "" {
		return fmt.Errorf("COMPOSE_PROJECT_NAME must not be empty")
	}
	return nil
}

// PageURL returns the URL polled for readiness and used by page tests.
func (c *Config) PageURL() string {
	return fmt.Sprintf("http://localhost:%s/", c.HostPort)
}

// URL returns the pgx connection string for the test database.
func (d DBConfig) URL() string {
	return d.urlFor(d.Name)
}

// AdminURL returns the connection string for the maintenance database,
// used to create the test database when it does not exist yet.
func (d DBConfig) AdminURL() string {
	return d.urlFor("postgres")
}

func (d DBConfig) urlFor(dbname string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, dbname, d.SSLMode)
}

// envString reads one environment key with a fallback, without touching
// the viper defaults table.
func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
