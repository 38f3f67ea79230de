// Package config loads the service configuration from environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full service configuration.
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	API          APIConfig
	Orchestrator OrchestratorConfig
	Extender     ExtenderConfig
	Metrics      MetricsConfig
}

// AppConfig carries the basics.
type AppConfig struct {
	Name     string
	Env      string
	Port     int
	LogLevel string
}

// DatabaseConfig carries the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig carries the HTTP surface settings.
type APIConfig struct {
	Timeout time.Duration

	// RateLimit is the sustained requests per second. Zero disables
	// limiting.
	RateLimit float64
}

// OrchestratorConfig carries the planning engine settings.
type OrchestratorConfig struct {
	// RunTimeout bounds one orchestration run end to end.
	RunTimeout time.Duration

	// HistoryWindow is how far back applied shifts feed the fairness
	// history.
	HistoryWindow time.Duration

	// MinRestHours is the minimum gap before a new shift, per product
	// code. Zero disables the check.
	MinRestIncidents  float64
	MinRestWaakdienst float64
}

// ExtenderConfig carries the nightly horizon maintenance settings.
type ExtenderConfig struct {
	// HorizonMonths is how many civil months ahead of today the schedule
	// is kept covered.
	HorizonMonths int

	// Workers bounds how many teams are extended concurrently.
	Workers int
}

// MetricsConfig carries the metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "roosterd"),
			Env:      getEnv("APP_ENV", "development"),
			Port:     getEnvInt("APP_PORT", 7031),
			LogLevel: getEnv("APP_LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "roosterd"),
			User:            getEnv("DB_USER", "roosterd"),
			Password:        getEnv("DB_PASSWORD", "roosterd"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		API: APIConfig{
			Timeout:   getEnvDuration("API_TIMEOUT", 30*time.Second),
			RateLimit: getEnvFloat("API_RATE_LIMIT", 100),
		},
		Orchestrator: OrchestratorConfig{
			RunTimeout:        getEnvDuration("ORCHESTRATOR_RUN_TIMEOUT", 5*time.Minute),
			HistoryWindow:     getEnvDuration("ORCHESTRATOR_HISTORY_WINDOW", 26*7*24*time.Hour),
			MinRestIncidents:  getEnvFloat("ORCHESTRATOR_MIN_REST_INCIDENTS", 0),
			MinRestWaakdienst: getEnvFloat("ORCHESTRATOR_MIN_REST_WAAKDIENST", 0),
		},
		Extender: ExtenderConfig{
			HorizonMonths: getEnvInt("EXTENDER_HORIZON_MONTHS", 6),
			Workers:       getEnvInt("EXTENDER_WORKERS", 4),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
