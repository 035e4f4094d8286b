package config

import (
	"fmt"
	"os"
	"time"

	"github.com/yigit/unisphere-scheduler/internal/scheduler"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string `yaml:"port" env:"SERVER_PORT"`
		Mode            string `yaml:"mode" env:"SERVER_MODE"`
		ShutdownTimeout string `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	// Redis backs the per-term run lock. An empty address keeps locks in process.
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	} `yaml:"redis"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Scheduler struct {
		MaxBacktracks int    `yaml:"max_backtracks" env:"SCHEDULER_MAX_BACKTRACKS"`
		Timeout       string `yaml:"timeout" env:"SCHEDULER_TIMEOUT"`
		LockTTL       string `yaml:"lock_ttl" env:"SCHEDULER_LOCK_TTL"`
		Grid          struct {
			Days               []string `yaml:"days" env:"SCHEDULER_GRID_DAYS"`
			Start              string   `yaml:"start" env:"SCHEDULER_GRID_START"`
			End                string   `yaml:"end" env:"SCHEDULER_GRID_END"`
			GranularityMinutes int      `yaml:"granularity_minutes" env:"SCHEDULER_GRID_GRANULARITY"`
		} `yaml:"grid"`
	} `yaml:"scheduler"`

	Seed struct {
		Enabled bool `yaml:"enabled" env:"SEED_ENABLED"`
	} `yaml:"seed"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// The file is optional; env vars alone are enough in containers
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ShutdownTimeout = "10s"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "unisphere"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.Issuer = "unisphere.app"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Scheduler.MaxBacktracks = scheduler.DefaultMaxBacktracks
	config.Scheduler.Timeout = "30s"
	config.Scheduler.LockTTL = "2m"
	config.Scheduler.Grid.Days = []string{"MON", "TUE", "WED", "THU", "FRI"}
	config.Scheduler.Grid.Start = "08:00"
	config.Scheduler.Grid.End = "21:00"
	config.Scheduler.Grid.GranularityMinutes = 30
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	durations := map[string]string{
		"JWT access token expiration": config.JWT.AccessTokenExpiration,
		"server shutdown timeout":     config.Server.ShutdownTimeout,
		"scheduler timeout":           config.Scheduler.Timeout,
		"scheduler lock ttl":          config.Scheduler.LockTTL,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	// The term lease has to cover the whole search; the commit renews it.
	timeout, _ := time.ParseDuration(config.Scheduler.Timeout)
	lockTTL, _ := time.ParseDuration(config.Scheduler.LockTTL)
	if lockTTL <= timeout {
		return fmt.Errorf("scheduler lock_ttl (%s) must be longer than the scheduler timeout (%s)", lockTTL, timeout)
	}

	if config.Scheduler.MaxBacktracks < 0 {
		return fmt.Errorf("scheduler max_backtracks cannot be negative")
	}

	if _, err := config.SchedulerGrid(); err != nil {
		return err
	}

	return nil
}

// SchedulerGrid builds the weekly time grid runs are placed on
func (c *Config) SchedulerGrid() (scheduler.Grid, error) {
	g := c.Scheduler.Grid
	grid, err := scheduler.RawGrid{
		Days:        g.Days,
		Start:       g.Start,
		End:         g.End,
		Granularity: g.GranularityMinutes,
	}.ToGrid()
	if err != nil {
		return scheduler.Grid{}, fmt.Errorf("invalid scheduler grid: %w", err)
	}
	if err := grid.Validate(); err != nil {
		return scheduler.Grid{}, fmt.Errorf("invalid scheduler grid: %w", err)
	}
	return grid, nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
