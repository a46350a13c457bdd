package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server        ServerConfig
	Logging       LoggingConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	LLM           LLMConfig
	Uploads       UploadsConfig
	Auth          AuthConfig
	Persist       PersistConfig
	ErrorTracking ErrorTrackingConfig
	Retention     RetentionConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	StaticDir       string
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// DatabaseConfig describes the Postgres connection. With neither URL nor
// Instance set the in-memory store is used.
type DatabaseConfig struct {
	URL            string
	Instance       string
	User           string
	Password       string
	Name           string
	MaxConnections int
	MigrationsDir  string
}

// RedisConfig points at the session revocation store. An empty Addr keeps
// revocations in process memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LLMConfig selects and tunes the language model provider.
type LLMConfig struct {
	Provider          string
	Model             string
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	GeminiAPIKey      string
	MaxTokens         int
	Temperature       float64
	Timeout           time.Duration
	RequestsPerMinute int
	ValidateResponses bool
}

// UploadsConfig configures the local file store for chart images.
type UploadsConfig struct {
	Dir          string
	PublicPrefix string
	MaxBytes     int64
}

// AuthConfig configures session tokens.
type AuthConfig struct {
	JWTSecret     string
	TokenDuration time.Duration
	AdminEmails   []string
}

// PersistConfig selects how partial persistence failures are handled.
type PersistConfig struct {
	Mode string
}

// ErrorTrackingConfig configures Sentry reporting.
type ErrorTrackingConfig struct {
	SentryDSN   string
	Environment string
	SampleRate  float64
}

// RetentionConfig controls pruning of inference logs. A zero
// InferenceLogs keeps them forever.
type RetentionConfig struct {
	InferenceLogs time.Duration
	CheckInterval time.Duration
}

// env mirrors the process environment. Durations are whole seconds.
type env struct {
	Port                  string  `envconfig:"PORT"`
	ServerPort            string  `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeoutSeconds    int     `envconfig:"SERVER_READ_TIMEOUT_SECONDS" default:"10"`
	WriteTimeoutSeconds   int     `envconfig:"SERVER_WRITE_TIMEOUT_SECONDS" default:"120"`
	ShutdownTimeoutSecond int     `envconfig:"SERVER_SHUTDOWN_TIMEOUT_SECONDS" default:"5"`
	StaticDir             string  `envconfig:"STATIC_DIR" default:"./web/dist"`
	LogLevel              string  `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat             string  `envconfig:"LOG_FORMAT" default:"json"`
	DatabaseURL           string  `envconfig:"DATABASE_URL"`
	DatabaseInstance      string  `envconfig:"INSTANCE_CONNECTION_NAME"`
	DatabaseUser          string  `envconfig:"DB_USER"`
	DatabasePassword      string  `envconfig:"DB_PASSWORD"`
	DatabaseName          string  `envconfig:"DB_NAME"`
	DatabaseMaxConns      int     `envconfig:"DATABASE_MAX_CONNECTIONS" default:"25"`
	MigrationsDir         string  `envconfig:"MIGRATIONS_DIR"`
	RedisAddr             string  `envconfig:"REDIS_ADDR"`
	RedisPassword         string  `envconfig:"REDIS_PASSWORD"`
	RedisDB               int     `envconfig:"REDIS_DB" default:"0"`
	LLMProvider           string  `envconfig:"LLM_PROVIDER" default:"mock"`
	LLMModel              string  `envconfig:"LLM_MODEL"`
	OpenAIAPIKey          string  `envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey       string  `envconfig:"ANTHROPIC_API_KEY"`
	GeminiAPIKey          string  `envconfig:"GEMINI_API_KEY"`
	LLMMaxTokens          int     `envconfig:"LLM_MAX_TOKENS" default:"4096"`
	LLMTemperature        float64 `envconfig:"LLM_TEMPERATURE" default:"0.2"`
	LLMTimeoutSeconds     int     `envconfig:"LLM_TIMEOUT_SECONDS" default:"90"`
	LLMRequestsPerMinute  int     `envconfig:"LLM_REQUESTS_PER_MINUTE" default:"30"`
	LLMValidateResponses  bool    `envconfig:"LLM_VALIDATE_RESPONSES" default:"true"`
	UploadsDir            string  `envconfig:"UPLOADS_DIR" default:"./data/uploads"`
	UploadsPublicPrefix   string  `envconfig:"UPLOADS_PUBLIC_PREFIX" default:"/files/"`
	UploadsMaxBytes       int64   `envconfig:"UPLOADS_MAX_BYTES" default:"10485760"`
	JWTSecret             string  `envconfig:"JWT_SECRET" default:"change-this-secret"`
	TokenHours            int     `envconfig:"TOKEN_DURATION_HOURS" default:"24"`
	AdminEmails           string  `envconfig:"ADMIN_EMAILS"`
	PersistMode           string  `envconfig:"PERSIST_MODE" default:"compat"`
	SentryDSN             string  `envconfig:"SENTRY_DSN"`
	SentryEnvironment     string  `envconfig:"SENTRY_ENVIRONMENT" default:"development"`
	SentrySampleRate      float64 `envconfig:"SENTRY_SAMPLE_RATE" default:"1.0"`
	LogRetentionDays      int     `envconfig:"INFERENCE_LOG_RETENTION_DAYS" default:"30"`
	RetentionCheckMinutes int     `envconfig:"RETENTION_CHECK_INTERVAL_MINUTES" default:"60"`
}

// Load reads configuration from a local .env file (if present) and the
// environment, validating values that have a constrained domain.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var e env
	if err := envconfig.Process("", &e); err != nil {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}

	// Cloud Run sets PORT, but allow SERVER_PORT for local dev
	port := e.Port
	if port == "" {
		port = e.ServerPort
	}

	readTimeout, err := parseSeconds(e.ReadTimeoutSeconds)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
	}
	writeTimeout, err := parseSeconds(e.WriteTimeoutSeconds)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
	}
	shutdownTimeout, err := parseSeconds(e.ShutdownTimeoutSecond)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
	}
	llmTimeout, err := parseSeconds(e.LLMTimeoutSeconds)
	if err != nil {
		return Config{}, fmt.Errorf("invalid LLM_TIMEOUT_SECONDS: %w", err)
	}

	level, err := parseLogLevel(e.LogLevel)
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	switch e.LogFormat {
	case "json", "text":
	default:
		return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
	}

	provider := strings.ToLower(e.LLMProvider)
	switch provider {
	case "mock", "openai", "anthropic", "gemini":
	default:
		return Config{}, fmt.Errorf("invalid LLM_PROVIDER: must be one of mock, openai, anthropic, gemini")
	}

	mode := strings.ToLower(e.PersistMode)
	switch mode {
	case "compat", "report", "atomic":
	default:
		return Config{}, fmt.Errorf("invalid PERSIST_MODE: must be one of compat, report, atomic")
	}

	if e.LogRetentionDays < 0 {
		return Config{}, fmt.Errorf("invalid INFERENCE_LOG_RETENTION_DAYS: must be non-negative")
	}
	if e.RetentionCheckMinutes <= 0 {
		return Config{}, fmt.Errorf("invalid RETENTION_CHECK_INTERVAL_MINUTES: must be a positive integer")
	}

	if e.TokenHours <= 0 {
		return Config{}, fmt.Errorf("invalid TOKEN_DURATION_HOURS: must be a positive integer")
	}

	return Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			StaticDir:       e.StaticDir,
		},
		Logging: LoggingConfig{
			Level:  level,
			Format: e.LogFormat,
		},
		Database: DatabaseConfig{
			URL:            e.DatabaseURL,
			Instance:       e.DatabaseInstance,
			User:           e.DatabaseUser,
			Password:       e.DatabasePassword,
			Name:           e.DatabaseName,
			MaxConnections: e.DatabaseMaxConns,
			MigrationsDir:  e.MigrationsDir,
		},
		Redis: RedisConfig{
			Addr:     e.RedisAddr,
			Password: e.RedisPassword,
			DB:       e.RedisDB,
		},
		LLM: LLMConfig{
			Provider:          provider,
			Model:             e.LLMModel,
			OpenAIAPIKey:      e.OpenAIAPIKey,
			AnthropicAPIKey:   e.AnthropicAPIKey,
			GeminiAPIKey:      e.GeminiAPIKey,
			MaxTokens:         e.LLMMaxTokens,
			Temperature:       e.LLMTemperature,
			Timeout:           llmTimeout,
			RequestsPerMinute: e.LLMRequestsPerMinute,
			ValidateResponses: e.LLMValidateResponses,
		},
		Uploads: UploadsConfig{
			Dir:          e.UploadsDir,
			PublicPrefix: e.UploadsPublicPrefix,
			MaxBytes:     e.UploadsMaxBytes,
		},
		Auth: AuthConfig{
			JWTSecret:     e.JWTSecret,
			TokenDuration: time.Duration(e.TokenHours) * time.Hour,
			AdminEmails:   splitList(e.AdminEmails),
		},
		Persist: PersistConfig{
			Mode: mode,
		},
		ErrorTracking: ErrorTrackingConfig{
			SentryDSN:   e.SentryDSN,
			Environment: e.SentryEnvironment,
			SampleRate:  e.SentrySampleRate,
		},
		Retention: RetentionConfig{
			InferenceLogs: time.Duration(e.LogRetentionDays) * 24 * time.Hour,
			CheckInterval: time.Duration(e.RetentionCheckMinutes) * time.Minute,
		},
	}, nil
}

func parseSeconds(seconds int) (time.Duration, error) {
	if seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
