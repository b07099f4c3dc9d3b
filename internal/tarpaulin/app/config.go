package app

import (
	"os"
	"strconv"
	"time"

	"github.com/opencourse/tarpaulin/pkg/jwtx"
	"github.com/opencourse/tarpaulin/pkg/ratelimit"
)

type Config struct {
	Issuer        string        // Optional: issuer claim for credentials (default: tarpaulin)
	JWTSecret     string        // Required: HMAC secret for signing credentials
	CredentialTTL time.Duration // Optional: credential lifetime (default: 24h)

	DatabaseFile string // Optional: path to SQLite database file (default: ./tarpaulin.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	RedisAddr         string  // Optional: Redis address for the shared rate limiter; empty selects the in-process limiter
	RateLimitCapacity int     // Optional: token bucket capacity (default: 3)
	RateLimitRefill   float64 // Optional: refill rate in tokens per millisecond (default: 0.0003)
	RateLimitMaxKeys  int     // Optional: tracked client cap for the in-process limiter

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Issuer:        getEnvOrDefault("TARPAULIN_ISSUER", "tarpaulin"),
		JWTSecret:     os.Getenv("TARPAULIN_JWT_SECRET"),
		CredentialTTL: getEnvDurationOrDefault("TARPAULIN_CREDENTIAL_TTL", jwtx.DefaultCredentialTTL),

		DatabaseFile: getEnvOrDefault("TARPAULIN_DATABASE_FILE", "tarpaulin.db"),
		PepperFile:   getEnvOrDefault("TARPAULIN_PEPPER_FILE", "pepper"),

		RedisAddr:         os.Getenv("TARPAULIN_REDIS_ADDR"),
		RateLimitCapacity: getEnvIntOrDefault("TARPAULIN_RATELIMIT_CAPACITY", ratelimit.DefaultConfig.Capacity),
		RateLimitRefill:   getEnvFloatOrDefault("TARPAULIN_RATELIMIT_REFILL", ratelimit.DefaultConfig.RefillRate),
		RateLimitMaxKeys:  getEnvIntOrDefault("TARPAULIN_RATELIMIT_MAX_KEYS", ratelimit.DefaultMaxKeys),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if floatValue, err := strconv.ParseFloat(value, 64); err == nil && floatValue > 0 {
		return floatValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
