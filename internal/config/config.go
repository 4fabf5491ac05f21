package config

// Store backend names accepted in StoreConfig.Backend.
const (
	BackendPostgres = "postgres"
	BackendAzTables = "aztables"
	BackendMemory   = "memory"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server       ServerConfig       `mapstructure:"server" validate:"required"`
	Store        StoreConfig        `mapstructure:"store" validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database"`
	TableStorage TableStorageConfig `mapstructure:"table_storage"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=postgres aztables memory"`
}

// DatabaseConfig contains PostgreSQL settings. URL is only required when the
// postgres backend is selected.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url" validate:"omitempty,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
	AutoMigrate            bool   `mapstructure:"auto_migrate"`
}

// TableStorageConfig contains Azure Table Storage settings. ConnectionString
// is only required when the aztables backend is selected.
type TableStorageConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	TableName        string `mapstructure:"table_name" validate:"required,alphanum,min=3,max=63"`
}
