package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for math-practice
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Sections SectionsConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	LLM      LLMConfig
	Feedback FeedbackConfig
	Timer    TimerConfig
	Cleanup  CleanupConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// SectionsConfig holds section source folder configuration
type SectionsConfig struct {
	Dir        string
	Extensions []string
}

// StorageConfig selects the repository backend
type StorageConfig struct {
	Driver string // memory | postgres
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	DSN           string
	MigrationsDir string
	MaxConns      int
	MinConns      int
}

// RedisConfig holds Redis configuration. An empty address disables Redis.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// LLMConfig holds the chat completion backend configuration
type LLMConfig struct {
	BaseURL       string
	APIKey        string
	Model         string
	MaxTokens     int
	Temperature   float64
	MaxConcurrent int
	Timeout       time.Duration
}

// FeedbackConfig holds feedback cache configuration
type FeedbackConfig struct {
	CacheTTL time.Duration
}

// TimerConfig holds study timer configuration
type TimerConfig struct {
	RestMinutes int
}

// CleanupConfig holds cleanup worker configuration
type CleanupConfig struct {
	Interval      time.Duration
	SessionMaxAge time.Duration
}

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 5000),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 120*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Sections: SectionsConfig{
			Dir:        getEnv("SECTIONS_DIR", "./sube-seccion"),
			Extensions: getEnvAsList("SECTIONS_EXTENSIONS", []string{".json", ".yaml", ".yml"}),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", StorageMemory),
		},
		Database: DatabaseConfig{
			DSN:           getEnv("DATABASE_DSN", ""),
			MigrationsDir: getEnv("DATABASE_MIGRATIONS_DIR", "./migrations"),
			MaxConns:      getEnvAsInt("DATABASE_MAX_CONNS", 10),
			MinConns:      getEnvAsInt("DATABASE_MIN_CONNS", 1),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		LLM: LLMConfig{
			BaseURL:       getEnv("LLM_BASE_URL", "https://api.groq.com/openai"),
			APIKey:        getEnv("LLM_API_KEY", ""),
			Model:         getEnv("LLM_MODEL", "llama-3.1-8b-instant"),
			MaxTokens:     getEnvAsInt("LLM_MAX_TOKENS", 4092),
			Temperature:   getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			MaxConcurrent: getEnvAsInt("LLM_MAX_CONCURRENT", 4),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 90*time.Second),
		},
		Feedback: FeedbackConfig{
			CacheTTL: getEnvAsDuration("FEEDBACK_CACHE_TTL", 24*time.Hour),
		},
		Timer: TimerConfig{
			RestMinutes: getEnvAsInt("TIMER_REST_MINUTES", 5),
		},
		Cleanup: CleanupConfig{
			Interval:      getEnvAsDuration("CLEANUP_INTERVAL", 5*time.Minute),
			SessionMaxAge: getEnvAsDuration("SESSION_MAX_AGE", 12*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Sections.Dir == "" {
		return fmt.Errorf("sections dir is required")
	}

	if len(c.Sections.Extensions) == 0 {
		return fmt.Errorf("at least one section file extension is required")
	}
	for _, ext := range c.Sections.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("invalid section file extension: %q", ext)
		}
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}

	if c.LLM.MaxConcurrent < 1 {
		return fmt.Errorf("invalid llm max concurrent: %d", c.LLM.MaxConcurrent)
	}

	if c.Timer.RestMinutes < 1 {
		return fmt.Errorf("invalid timer rest minutes: %d", c.Timer.RestMinutes)
	}

	return nil
}

// SlogLevel maps the configured level name to a slog.Level
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, strings.ToLower(item))
		}
	}
	return items
}
