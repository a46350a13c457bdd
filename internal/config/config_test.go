package config

import (
	"os"
	"testing"
	"time"

	"log/slog"
)

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port %q, got %q", "8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("expected default read timeout %v, got %v", 10*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 120*time.Second {
		t.Errorf("expected default write timeout %v, got %v", 120*time.Second, cfg.Server.WriteTimeout)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("expected default shutdown timeout %v, got %v", 5*time.Second, cfg.Server.ShutdownTimeout)
	}
	if cfg.Logging.Level != slog.LevelInfo {
		t.Errorf("expected default log level %v, got %v", slog.LevelInfo, cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected default log format %q, got %q", "json", cfg.Logging.Format)
	}
	if cfg.LLM.Provider != "mock" {
		t.Errorf("expected default provider mock, got %q", cfg.LLM.Provider)
	}
	if cfg.Persist.Mode != "compat" {
		t.Errorf("expected default persist mode compat, got %q", cfg.Persist.Mode)
	}
	if cfg.Auth.TokenDuration != 24*time.Hour {
		t.Errorf("expected default token duration 24h, got %v", cfg.Auth.TokenDuration)
	}
	if cfg.Database.URL != "" {
		t.Errorf("expected empty database url, got %q", cfg.Database.URL)
	}
	if cfg.Retention.InferenceLogs != 30*24*time.Hour {
		t.Errorf("expected default retention 720h, got %v", cfg.Retention.InferenceLogs)
	}
	if cfg.Retention.CheckInterval != time.Hour {
		t.Errorf("expected default retention check interval 1h, got %v", cfg.Retention.CheckInterval)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	clearConfigEnv(t)

	overrides := map[string]string{
		"SERVER_PORT":                     "9090",
		"SERVER_READ_TIMEOUT_SECONDS":     "30",
		"SERVER_WRITE_TIMEOUT_SECONDS":    "45",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS": "15",
		"LOG_LEVEL":                       "debug",
		"LOG_FORMAT":                      "text",
		"LLM_PROVIDER":                    "Anthropic",
		"PERSIST_MODE":                    "atomic",
		"ADMIN_EMAILS":                    "Ops@Example.com, ,trader@example.com",
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != overrides["SERVER_PORT"] {
		t.Errorf("expected overridden port %q, got %q", overrides["SERVER_PORT"], cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected read timeout %v, got %v", 30*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 45*time.Second {
		t.Errorf("expected write timeout %v, got %v", 45*time.Second, cfg.Server.WriteTimeout)
	}
	if cfg.Server.ShutdownTimeout != 15*time.Second {
		t.Errorf("expected shutdown timeout %v, got %v", 15*time.Second, cfg.Server.ShutdownTimeout)
	}
	if cfg.Logging.Level != slog.LevelDebug {
		t.Errorf("expected log level %v, got %v", slog.LevelDebug, cfg.Logging.Level)
	}
	if cfg.Logging.Format != overrides["LOG_FORMAT"] {
		t.Errorf("expected log format %q, got %q", overrides["LOG_FORMAT"], cfg.Logging.Format)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("expected provider to be lower-cased, got %q", cfg.LLM.Provider)
	}
	if cfg.Persist.Mode != "atomic" {
		t.Errorf("expected persist mode atomic, got %q", cfg.Persist.Mode)
	}
	if len(cfg.Auth.AdminEmails) != 2 || cfg.Auth.AdminEmails[0] != "ops@example.com" {
		t.Errorf("unexpected admin emails: %v", cfg.Auth.AdminEmails)
	}
}

func TestLoadPrefersPlatformPort(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != "7000" {
		t.Errorf("expected PORT to win, got %q", cfg.Server.Port)
	}
}

func TestLoadWithInvalidValues(t *testing.T) {
	tests := map[string]string{
		"SERVER_READ_TIMEOUT_SECONDS":      "-1",
		"SERVER_WRITE_TIMEOUT_SECONDS":     "abc",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS":  "3.5",
		"LOG_LEVEL":                        "verbose",
		"LOG_FORMAT":                       "xml",
		"LLM_PROVIDER":                     "llama",
		"PERSIST_MODE":                     "eventual",
		"TOKEN_DURATION_HOURS":             "0",
		"INFERENCE_LOG_RETENTION_DAYS":     "-1",
		"RETENTION_CHECK_INTERVAL_MINUTES": "0",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(key, value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error when %s=%q", key, value)
			}
		})
	}
}

func TestParseLogLevelAliases(t *testing.T) {
	tests := map[string]slog.Level{
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
	}

	for input, expected := range tests {
		level, err := parseLogLevel(input)
		if err != nil {
			t.Fatalf("parseLogLevel(%q) returned error: %v", input, err)
		}

		if level != expected {
			t.Errorf("parseLogLevel(%q) = %v, want %v", input, level, expected)
		}
	}
}

func TestParseSecondsRejectsNegative(t *testing.T) {
	if _, err := parseSeconds(-1); err == nil {
		t.Fatal("expected error for negative seconds")
	}
	if d, err := parseSeconds(0); err != nil || d != 0 {
		t.Fatalf("parseSeconds(0) = %v, %v", d, err)
	}
}

func TestLoadDoesNotPersistEnvBetweenRuns(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("SERVER_READ_TIMEOUT_SECONDS", "5")
	if _, err := Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := os.Unsetenv("SERVER_READ_TIMEOUT_SECONDS"); err != nil {
		t.Fatalf("failed to unset env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("expected default read timeout after reset, got %v", cfg.Server.ReadTimeout)
	}
}

// clearConfigEnv unsets every variable Load reads. t.Setenv registers the
// restore, os.Unsetenv makes the variable absent so envconfig applies defaults.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT",
		"SERVER_PORT",
		"SERVER_READ_TIMEOUT_SECONDS",
		"SERVER_WRITE_TIMEOUT_SECONDS",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS",
		"STATIC_DIR",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"DATABASE_URL",
		"INSTANCE_CONNECTION_NAME",
		"DB_USER",
		"DB_PASSWORD",
		"DB_NAME",
		"DATABASE_MAX_CONNECTIONS",
		"MIGRATIONS_DIR",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"LLM_PROVIDER",
		"LLM_MODEL",
		"OPENAI_API_KEY",
		"ANTHROPIC_API_KEY",
		"GEMINI_API_KEY",
		"LLM_MAX_TOKENS",
		"LLM_TEMPERATURE",
		"LLM_TIMEOUT_SECONDS",
		"LLM_REQUESTS_PER_MINUTE",
		"LLM_VALIDATE_RESPONSES",
		"UPLOADS_DIR",
		"UPLOADS_PUBLIC_PREFIX",
		"UPLOADS_MAX_BYTES",
		"JWT_SECRET",
		"TOKEN_DURATION_HOURS",
		"ADMIN_EMAILS",
		"PERSIST_MODE",
		"SENTRY_DSN",
		"SENTRY_ENVIRONMENT",
		"SENTRY_SAMPLE_RATE",
		"INFERENCE_LOG_RETENTION_DAYS",
		"RETENTION_CHECK_INTERVAL_MINUTES",
	}

	for _, key := range keys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}
