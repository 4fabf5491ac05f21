package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for all environment variables read by Load.
const EnvPrefix = "TODO"

// legacyEnv maps configuration keys to additional, unprefixed environment
// variable names that are honoured for compatibility with existing deployments.
var legacyEnv = map[string]string{
	"server.port":  "PORT",
	"database.url": "DATABASE_URL",
}

var validate = validator.New()

// Load configuration from environment variables and optionally config files.
// A .env file in the working directory is loaded first if present.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct-level constraints and the settings required by the
// selected store backend.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	switch cfg.Store.Backend {
	case BackendPostgres:
		if cfg.Database.URL == "" {
			return fmt.Errorf("config validation failed: database.url is required for the %s backend", BackendPostgres)
		}
	case BackendAzTables:
		if cfg.TableStorage.ConnectionString == "" {
			return fmt.Errorf("config validation failed: table_storage.connection_string is required for the %s backend", BackendAzTables)
		}
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("store.backend", BackendPostgres)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_minutes", 5)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("table_storage.table_name", "tasks")
}

// bindEnv registers every key explicitly so Unmarshal sees values that only
// exist in the environment.
func bindEnv(v *viper.Viper) error {
	keys := []string{
		"server.port",
		"server.log_level",
		"server.shutdown_timeout_seconds",
		"store.backend",
		"database.url",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime_minutes",
		"database.auto_migrate",
		"table_storage.connection_string",
		"table_storage.table_name",
	}

	for _, key := range keys {
		envNames := []string{key, EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
		if legacy, ok := legacyEnv[key]; ok {
			envNames = append(envNames, legacy)
		}
		if err := v.BindEnv(envNames...); err != nil {
			return fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
	}

	return nil
}
