package config

import (
	"os"
	"strconv"
	"time"
)

// Store backends selectable through STORE_BACKEND.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
// SnapshotKey is the object key the people snapshot is read from and written to.
type MinIOConfig struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	Bucket      string
	UseSSL      bool
	SnapshotKey string
}

// Enabled reports whether object storage has been configured at all.
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost      string
	Port         string
	LogTimezone  string
	StoreBackend string
	BodyMode     string
	Database     DatabaseConfig
	MinIO        MinIOConfig
}

// Location resolves LogTimezone, falling back to UTC when it is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.LogTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:      getEnv("APP_HOST", "localhost:8080"),
		Port:         getEnv("PORT", "8080"),
		LogTimezone:  getEnv("TZ_LOG", "UTC"),
		StoreBackend: getEnv("STORE_BACKEND", StoreMemory),
		BodyMode:     getEnv("BODY_MODE", "value"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:    getEnv("MINIO_ENDPOINT", ""),
			AccessKey:   getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:   getEnv("MINIO_SECRET_KEY", ""),
			Bucket:      getEnv("MINIO_BUCKET", ""),
			UseSSL:      getEnvBool("MINIO_USE_SSL", false),
			SnapshotKey: getEnv("MINIO_SNAPSHOT_KEY", "people/snapshot.json"),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
