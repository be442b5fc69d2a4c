package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/NikiP31/TransactionsPipeline/internal/constants"
)

type Config struct {
	// MinIO / object store settings
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIORegion    string
	MinIOUseSSL    bool
	Bucket         string

	// DuckDB settings
	DuckDBPath string

	// Redis settings
	RedisAddr string

	// API settings
	APIAddr string
	APIKey  string
	DevMode bool

	// OpenRouter / LLM settings
	OpenRouterAPIKey string
	Model            string
	LLMTimeout       time.Duration

	// Query settings
	QueryLimit int
}

func Load() *Config {
	return &Config{
		// MinIO
		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", "minio"),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", "minio123"),
		MinIORegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinIOUseSSL:    getBoolEnv("MINIO_USE_SSL", false),
		Bucket:         getEnv("DATALAKE_BUCKET", constants.DefaultBucket),

		// DuckDB
		DuckDBPath: getEnv("DUCKDB_PATH", "etl.duckdb"),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// LLM
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		Model:            getEnv("LLM_MODEL", "openai/gpt-4.1-mini"),
		LLMTimeout:       getDurationEnv("LLM_TIMEOUT", 45*time.Second),

		// Query
		QueryLimit: getIntEnv("QUERY_LIMIT", constants.DefaultQueryLimit),
	}
}

func (c *Config) Validate() error {
	if c.MinIOEndpoint == "" {
		return fmt.Errorf("MINIO_ENDPOINT is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("DATALAKE_BUCKET is required")
	}
	if c.DuckDBPath == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.QueryLimit < 1 || c.QueryLimit > constants.MaxQueryLimit {
		return fmt.Errorf("QUERY_LIMIT must be between 1 and %d", constants.MaxQueryLimit)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
