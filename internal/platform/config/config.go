// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Tenant   TenantConfig   `mapstructure:"tenant"`
	Scenario ScenarioConfig `mapstructure:"scenario"`
	NATS     NATSConfig     `mapstructure:"nats"`
}

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	User        string        `mapstructure:"user"`
	Password    string        `mapstructure:"password"`
	Database    string        `mapstructure:"name"`
	SSLMode     string        `mapstructure:"sslmode"`
	MaxConns    int32         `mapstructure:"max_conns"`
	MinConns    int32         `mapstructure:"min_conns"`
	MaxConnTime time.Duration `mapstructure:"max_conn_time"`
	MaxIdleTime time.Duration `mapstructure:"max_idle_time"`
	HealthCheck time.Duration `mapstructure:"health_check"`
}

// TenantConfig carries the single tenant stamped into every write.
type TenantConfig struct {
	ID string `mapstructure:"id"`
}

type ScenarioConfig struct {
	// CatalogPath points at a YAML catalog; empty selects the embedded one.
	CatalogPath string `mapstructure:"catalog_path"`
	// RandomSeed makes sampling and document numbers reproducible when non-zero.
	RandomSeed uint64 `mapstructure:"random_seed"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

var envBindings = map[string]string{
	"service.name":            "SERVICE_NAME",
	"service.version":         "SERVICE_VERSION",
	"service.environment":     "ENVIRONMENT",
	"service.log_level":       "LOG_LEVEL",
	"server.port":             "HTTP_PORT",
	"server.grpc_port":        "GRPC_PORT",
	"server.read_timeout":     "HTTP_READ_TIMEOUT",
	"server.write_timeout":    "HTTP_WRITE_TIMEOUT",
	"server.idle_timeout":     "HTTP_IDLE_TIMEOUT",
	"server.request_timeout":  "HTTP_REQUEST_TIMEOUT",
	"server.shutdown_timeout": "SHUTDOWN_TIMEOUT",
	"server.cors_origins":     "CORS_ALLOWED_ORIGINS",
	"database.host":           "DB_HOST",
	"database.port":           "DB_PORT",
	"database.user":           "DB_USER",
	"database.password":       "DB_PASSWORD",
	"database.name":           "DB_NAME",
	"database.sslmode":        "DB_SSLMODE",
	"database.max_conns":      "DB_MAX_CONNS",
	"database.min_conns":      "DB_MIN_CONNS",
	"database.max_conn_time":  "DB_MAX_CONN_TIME",
	"database.max_idle_time":  "DB_MAX_IDLE_TIME",
	"database.health_check":   "DB_HEALTH_CHECK",
	"tenant.id":               "TENANT_ID",
	"scenario.catalog_path":   "SCENARIO_CATALOG",
	"scenario.random_seed":    "RANDOM_SEED",
	"nats.url":                "NATS_URL",
	"nats.subject_prefix":     "NATS_SUBJECT_PREFIX",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "be-mes-scenarios")
	v.SetDefault("service.version", "dev")
	v.SetDefault("service.environment", "development")
	v.SetDefault("service.log_level", "info")

	v.SetDefault("server.port", 8090)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.request_timeout", 55*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "erp_mes")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_time", time.Hour)
	v.SetDefault("database.max_idle_time", 30*time.Minute)
	v.SetDefault("database.health_check", time.Minute)

	v.SetDefault("tenant.id", "")
	v.SetDefault("scenario.catalog_path", "")
	v.SetDefault("scenario.random_seed", 0)
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "scenarios")
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Tenant.ID) == "" {
		return fmt.Errorf("TENANT_ID is required")
	}
	if c.Database.Host == "" || c.Database.Database == "" {
		return fmt.Errorf("DB_HOST and DB_NAME are required")
	}
	if c.Server.Port <= 0 || c.Server.GRPCPort <= 0 {
		return fmt.Errorf("HTTP_PORT and GRPC_PORT must be positive")
	}
	return nil
}
