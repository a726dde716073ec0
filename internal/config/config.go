package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port               int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel           string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the SQL dialect: "pgx" for Postgres, "sqlite" for the embedded store.
	Driver          string        `mapstructure:"driver" validate:"required,oneof=pgx sqlite"`
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	SeedCurriculum  bool          `mapstructure:"seed_curriculum"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// SchedulerConfig tunes the memory model. Unset fields keep the model defaults.
type SchedulerConfig struct {
	Weights          []float64       `mapstructure:"weights" validate:"omitempty,len=21"`
	DesiredRetention float64         `mapstructure:"desired_retention" validate:"gt=0,lt=1"`
	MaximumInterval  int             `mapstructure:"maximum_interval" validate:"gte=1"`
	LearningSteps    []time.Duration `mapstructure:"learning_steps" validate:"min=1,dive,gt=0,lt=24h"`
	RelearningSteps  []time.Duration `mapstructure:"relearning_steps" validate:"min=1,dive,gt=0,lt=24h"`
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Exporter    string `mapstructure:"exporter" validate:"omitempty,oneof=stdout none"`
	ServiceName string `mapstructure:"service_name"`
}
