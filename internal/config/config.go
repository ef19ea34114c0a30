// Package config provides configuration management for the application.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Standards source kinds accepted by STANDARDS_SOURCE.
const (
	SourceDefaults         = "defaults"
	SourcePostgres         = "postgres"
	SourcePostgresFunction = "postgres-function"
	SourceRedis            = "redis"
	SourceS3               = "s3"
)

// Config holds all configuration values for the application.
type Config struct {
	// AWS
	AWSRegion      string
	S3Bucket       string
	StandardsS3Key string

	// Database
	DBURL      string
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBMaxConns int

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Standards
	StandardsSource string

	// Stress test
	StressMortgageRate float64
	StressCreditMargin float64

	// SES
	SESSenderEmail string

	// Application
	Port     string
	Stage    string
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		// AWS
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:       getEnv("S3_BUCKET", "loan-underwriting-standards-dev"),
		StandardsS3Key: getEnv("STANDARDS_S3_KEY", "standards/current.json"),

		// Database
		DBURL:      getEnv("DATABASE_URL", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBName:     getEnv("DB_NAME", "loan_underwriting"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBMaxConns: getEnvInt("DB_MAX_CONNS", 10),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		// Standards
		StandardsSource: getEnv("STANDARDS_SOURCE", SourceDefaults),

		// Stress test
		StressMortgageRate: getEnvFloat("STRESS_MORTGAGE_RATE", 6.5),
		StressCreditMargin: getEnvFloat("STRESS_CREDIT_MARGIN", 2.0),

		// SES
		SESSenderEmail: getEnv("SES_SENDER_EMAIL", ""),

		// Application
		Port:     getEnv("PORT", "8080"),
		Stage:    getEnv("STAGE", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// DatabaseURL returns the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	if c.DBURL != "" {
		return c.DBURL
	}
	sslMode := "require" // Use SSL for RDS
	if c.DBHost == "localhost" || c.DBHost == "127.0.0.1" {
		sslMode = "disable" // Disable SSL for local development
	}
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + strconv.Itoa(c.DBPort) + "/" + c.DBName + "?sslmode=" + sslMode
}

// HasDatabase reports whether a database is configured explicitly.
func (c *Config) HasDatabase() bool {
	return c.DBURL != "" || os.Getenv("DB_HOST") != ""
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as int or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat retrieves an environment variable as float64 or returns a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
