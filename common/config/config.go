package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Worker    WorkerConfig
	Scheduler SchedulerConfig
	RateLimit RateLimitConfig
	Security  SecurityConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// WorkerConfig holds execution worker settings.
// POLL_INTERVAL and BATCH_SIZE are the externally documented knobs and are
// read in milliseconds / row counts respectively.
type WorkerConfig struct {
	PollInterval    time.Duration
	BatchSize       int
	VersionCacheTTL time.Duration
	ShutdownTimeout time.Duration
}

// SchedulerConfig holds cron trigger settings
type SchedulerConfig struct {
	Enabled         bool
	RefreshInterval time.Duration
}

// RateLimitConfig holds execute-endpoint rate limits
type RateLimitConfig struct {
	Enabled        bool
	GlobalLimit    int64
	WorkflowLimit  int64
	WindowSeconds  int
}

// SecurityConfig holds outbound HTTP guard settings for the http-request node
type SecurityConfig struct {
	AllowPrivateHosts bool
	BlockedHosts      []string
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof   bool
	PprofPort     int
	EnableMetrics bool
	MetricsPort   int
}

// Load loads configuration from environment variables.
// A .env file in the working directory is applied first when present.
func Load(serviceName string) (*Config, error) {
	// Best-effort: absence of .env is the normal case in deployment.
	_ = godotenv.Load()

	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"), // Default to text for development
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "flowit"),
			User:        getEnv("POSTGRES_USER", "flowit"),
			Password:    getEnv("POSTGRES_PASSWORD", "flowit"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 50),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 10),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Worker: WorkerConfig{
			PollInterval:    time.Duration(getEnvInt("POLL_INTERVAL", 5000)) * time.Millisecond,
			BatchSize:       getEnvInt("BATCH_SIZE", 5),
			VersionCacheTTL: getEnvDuration("VERSION_CACHE_TTL", 5*time.Minute),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Scheduler: SchedulerConfig{
			Enabled:         getEnvBool("SCHEDULER_ENABLED", true),
			RefreshInterval: getEnvDuration("SCHEDULER_REFRESH_INTERVAL", 1*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvBool("RATE_LIMIT_ENABLED", true),
			GlobalLimit:   int64(getEnvInt("RATE_LIMIT_GLOBAL", 100)),
			WorkflowLimit: int64(getEnvInt("RATE_LIMIT_WORKFLOW", 20)),
			WindowSeconds: getEnvInt("RATE_LIMIT_WINDOW_SEC", 60),
		},
		Security: SecurityConfig{
			AllowPrivateHosts: getEnvBool("HTTP_ALLOW_PRIVATE_HOSTS", false),
			BlockedHosts:      getEnvSlice("HTTP_BLOCKED_HOSTS", nil),
		},
		Telemetry: TelemetryConfig{
			EnablePprof:   getEnvBool("ENABLE_PPROF", true),
			PprofPort:     getEnvInt("PPROF_PORT", 6060),
			EnableMetrics: getEnvBool("ENABLE_METRICS", true),
			MetricsPort:   getEnvInt("METRICS_PORT", 9090),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.Worker.BatchSize < 1 {
		return fmt.Errorf("batch size must be >= 1, got %d", c.Worker.BatchSize)
	}

	if c.Worker.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Worker.PollInterval)
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return defaultValue
}
