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
	Registry   RegistryConfig
	Gateway    GatewayConfig
}

type ServerConfig struct {
	Port int
	Env  string
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

// EventStoreConfig holds configuration for EventStoreDB.
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
	// Enabled controls whether the event bus is started at all
	Enabled bool
}

type AuthConfig struct {
	JWTSecret   string
	Issuer      string
	TokenTTLMin int
}

// RegistryConfig holds configuration for the national civil registry
// adapter (legacy SQL Server system).
type RegistryConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	// PersonTable is the registry table holding civil person records
	PersonTable string
}

func (r RegistryConfig) DSN() string {
	return fmt.Sprintf(
		"server=%s;port=%d;user id=%s;password=%s;database=%s",
		r.Host, r.Port, r.User, r.Password, r.Database,
	)
}

// GatewayConfig holds configuration for the external payment gateway.
type GatewayConfig struct {
	Enabled    bool
	URL        string
	MerchantID string
	CallbackURL string
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "police"),
			Password: getEnv("DB_PASSWORD", "police"),
			Database: getEnv("DB_NAME", "police_portal"),
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
			JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
			Issuer:      getEnv("JWT_ISSUER", "police-portal"),
			TokenTTLMin: getEnvInt("JWT_TTL_MINUTES", 60),
		},
		Registry: RegistryConfig{
			Enabled:     getEnvBool("REGISTRY_ENABLED", false),
			Host:        getEnv("REGISTRY_HOST", "localhost"),
			Port:        getEnvInt("REGISTRY_PORT", 1433),
			User:        getEnv("REGISTRY_USER", "sa"),
			Password:    getEnv("REGISTRY_PASSWORD", ""),
			Database:    getEnv("REGISTRY_DB", "CivilRegistry"),
			PersonTable: getEnv("REGISTRY_PERSON_TABLE", "dbo.Persons"),
		},
		Gateway: GatewayConfig{
			Enabled:     getEnvBool("GATEWAY_ENABLED", false),
			URL:         getEnv("GATEWAY_URL", "http://localhost:9090"),
			MerchantID:  getEnv("GATEWAY_MERCHANT_ID", ""),
			CallbackURL: getEnv("GATEWAY_CALLBACK_URL", ""),
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
