package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mbekov/packquest/internal/domain/entities"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env          string       `mapstructure:"env"`          // current application environment (local, dev, production etc)
	HTTP         HTTP         `mapstructure:"http"`         // HTTP server section
	DB           DB           `mapstructure:"database"`     // database configuration section
	Gamification Gamification `mapstructure:"gamification"` // leveling and streak settings
	Views        Views        `mapstructure:"views"`        // view counting policy
}

// HTTP contains HTTP server parameters.
type HTTP struct {
	Addr            string        `mapstructure:"addr"`             // listen address
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // graceful shutdown budget
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// Gamification contains the leveling curve and the canonical timezone for
// day-boundary streak arithmetic.
type Gamification struct {
	Timezone        string  `mapstructure:"timezone"`         // canonical timezone for calendar dates
	LevelThresholds []int64 `mapstructure:"level_thresholds"` // cumulative XP per level; empty means built-in curve
}

// Views contains the view counting policy.
type Views struct {
	CountSelfViews bool `mapstructure:"count_self_views"` // whether an owner viewing their own content counts
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// LevelTable returns the configured leveling curve, validated, falling
// back to the built-in curve when the config does not set one.
func (g Gamification) LevelTable() (entities.LevelTable, error) {
	if len(g.LevelThresholds) == 0 {
		return entities.DefaultLevelTable(), nil
	}

	table := entities.LevelTable(g.LevelThresholds)
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("gamification.level_thresholds: %w", err)
	}
	return table, nil
}

// Location resolves the canonical timezone.
func (g Gamification) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return nil, fmt.Errorf("gamification.timezone: %w", err)
	}
	return loc, nil
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("gamification.timezone", "UTC")
	v.SetDefault("views.count_self_views", false)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("http.addr", "HTTP_ADDR")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.DB.URL = v.GetString("database_url")
	if cfg.DB.URL == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	return &cfg, nil
}
