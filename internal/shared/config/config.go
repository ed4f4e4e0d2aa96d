package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	EventStore EventStoreConfig
	Auth       AuthConfig
	HIS        HISConfig
}

type ServerConfig struct {
	Port int
	Env  string
	// LoginRateLimit is requests per second allowed on the login endpoint
	LoginRateLimit int
	LoginRateBurst int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// EventStoreConfig holds configuration for the EventStoreDB event bus.
type EventStoreConfig struct {
	// Host is the EventStoreDB server hostname
	Host string
	// Port is the gRPC/HTTP port (default 2113)
	Port int
	// Insecure disables TLS (for development)
	Insecure bool
	// Username for authentication (optional)
	Username string
	// Password for authentication (optional)
	Password string
	// Enabled controls whether the bus is connected at startup
	Enabled bool
}

type AuthConfig struct {
	// JWTSecret signs access tokens issued at login
	JWTSecret string
	// TokenTTLMinutes is the access token lifetime
	TokenTTLMinutes int
	// Issuer is the iss claim on issued tokens
	Issuer string
	// BootstrapEmail/BootstrapPassword/BootstrapName seed the first
	// operator account at startup when no account with that email
	// exists yet
	BootstrapEmail    string
	BootstrapPassword string
	BootstrapName     string
}

// HISConfig holds configuration for the legacy hospital information
// system appointment importer (SQL Server).
type HISConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	// VisitTable is the legacy table scheduled visits are read from
	VisitTable string
	// PollIntervalSeconds between import sweeps
	PollIntervalSeconds int
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:           getEnvInt("SERVER_PORT", 8080),
			Env:            getEnv("ENV", "development"),
			LoginRateLimit: getEnvInt("LOGIN_RATE_LIMIT", 5),
			LoginRateBurst: getEnvInt("LOGIN_RATE_BURST", 10),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "healthreach"),
			Password: getEnv("DB_PASSWORD", "healthreach"),
			Database: getEnv("DB_NAME", "healthreach"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		EventStore: EventStoreConfig{
			Host:     getEnv("EVENTSTORE_HOST", "localhost"),
			Port:     getEnvInt("EVENTSTORE_PORT", 2113),
			Insecure: getEnvBool("EVENTSTORE_INSECURE", true),
			Username: getEnv("EVENTSTORE_USERNAME", ""),
			Password: getEnv("EVENTSTORE_PASSWORD", ""),
			Enabled:  getEnvBool("EVENTSTORE_ENABLED", true),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
			TokenTTLMinutes:   getEnvInt("JWT_TTL_MINUTES", 60),
			Issuer:            getEnv("JWT_ISSUER", "healthreach"),
			BootstrapEmail:    getEnv("OPERATOR_BOOTSTRAP_EMAIL", ""),
			BootstrapPassword: getEnv("OPERATOR_BOOTSTRAP_PASSWORD", ""),
			BootstrapName:     getEnv("OPERATOR_BOOTSTRAP_NAME", "Administrator"),
		},
		HIS: HISConfig{
			Enabled:             getEnvBool("HIS_ENABLED", false),
			Host:                getEnv("HIS_HOST", "localhost"),
			Port:                getEnvInt("HIS_PORT", 1433),
			User:                getEnv("HIS_USER", ""),
			Password:            getEnv("HIS_PASSWORD", ""),
			Database:            getEnv("HIS_DATABASE", ""),
			VisitTable:          getEnv("HIS_VISIT_TABLE", "dbo.ScheduledVisits"),
			PollIntervalSeconds: getEnvInt("HIS_POLL_INTERVAL_SECONDS", 300),
		},
	}, nil
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
