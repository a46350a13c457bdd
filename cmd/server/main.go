package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tradesnap/tradesnap/internal/analysis"
	"github.com/tradesnap/tradesnap/internal/api"
	"github.com/tradesnap/tradesnap/internal/auth"
	"github.com/tradesnap/tradesnap/internal/config"
	"github.com/tradesnap/tradesnap/internal/database"
	"github.com/tradesnap/tradesnap/internal/errtrack"
	"github.com/tradesnap/tradesnap/internal/inference"
	"github.com/tradesnap/tradesnap/internal/llm"
	"github.com/tradesnap/tradesnap/internal/logging"
	"github.com/tradesnap/tradesnap/internal/metrics"
	"github.com/tradesnap/tradesnap/internal/persist"
	"github.com/tradesnap/tradesnap/internal/scheduler"
	"github.com/tradesnap/tradesnap/internal/server"
	"github.com/tradesnap/tradesnap/internal/store"
	"github.com/tradesnap/tradesnap/internal/uploads"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting tradesnap")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker, err := newTracker(cfg.ErrorTracking)
	if err != nil {
		logger.Error("failed to init error tracking", "error", err)
		os.Exit(1)
	}
	defer tracker.Flush(2 * time.Second)

	st, db, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	revoker, rdb, err := newRevoker(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	files, err := uploads.NewLocal(cfg.Uploads.Dir, cfg.Uploads.PublicPrefix, cfg.Uploads.MaxBytes)
	if err != nil {
		logger.Error("failed to init uploads", "error", err)
		os.Exit(1)
	}

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	provider, err := newProvider(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Error("failed to init llm provider", "error", err)
		os.Exit(1)
	}
	logger.Info("llm provider configured", "provider", provider.Name(), "model", cfg.LLM.Model)

	// Create inference logger
	inferenceLogger := inference.NewLogger(st.InferenceLogs, logger)
	defer inferenceLogger.Wait()

	invoker := llm.NewService(provider, llm.Options{
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		ValidateResponses: cfg.LLM.ValidateResponses,
		Files:             files,
		InferenceLogger:   inferenceLogger,
		Metrics:           collector,
	}, logger)

	mode, err := persist.ParseMode(cfg.Persist.Mode)
	if err != nil {
		logger.Error("invalid persist mode", "error", err)
		os.Exit(1)
	}

	analyzer := analysis.NewService(analysis.Deps{
		Invoker:   invoker,
		Uploads:   files,
		Persister: persist.New(st.Analyses, mode, logger, collector),
		Tracker:   tracker,
		Metrics:   collector,
	}, logger)

	authenticator := auth.NewAuthenticator(auth.Config{
		JWTSecret:     cfg.Auth.JWTSecret,
		TokenDuration: cfg.Auth.TokenDuration,
		AdminEmails:   cfg.Auth.AdminEmails,
	}, revoker)
	logger.Info("auth configured", "jwt_secret_set", cfg.Auth.JWTSecret != "change-this-secret", "admins", len(cfg.Auth.AdminEmails))

	if cfg.Retention.InferenceLogs > 0 {
		retention := scheduler.NewRetentionScheduler(st.InferenceLogs, cfg.Retention.InferenceLogs, cfg.Retention.CheckInterval, logger)
		go retention.Start(ctx)
	}

	// Setup HTTP routes
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			if err := database.HealthCheck(r.Context(), db); err != nil {
				logger.Warn("health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", collector.Handler())

	logger.Info("setting up REST API", "persist_mode", mode)
	api.SetupRoutes(mux, api.Deps{
		Store:         st,
		Analyzer:      analyzer,
		Files:         files,
		FileServer:    files.Handler(),
		FilePrefix:    files.Prefix(),
		Authenticator: authenticator,
	}, logger)

	handler := server.SPAMiddleware(collector.InstrumentHandler(mux), cfg.Server.StaticDir)
	srv := server.New(cfg.Server, logger, handler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			tracker.CaptureError(context.Background(), err, map[string]string{"component": "server"})
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

func newTracker(cfg config.ErrorTrackingConfig) (errtrack.Tracker, error) {
	if cfg.SentryDSN == "" {
		return errtrack.Noop{}, nil
	}
	return errtrack.New(errtrack.Options{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		SampleRate:  cfg.SampleRate,
	})
}

// openStore connects to Postgres when a location is configured and falls
// back to the in-memory store otherwise.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (store.Store, *sql.DB, error) {
	loc := database.Location{URL: cfg.URL, Instance: cfg.Instance, User: cfg.User, Password: cfg.Password, Name: cfg.Name}
	if !loc.Configured() {
		logger.Warn("no database configured, using in-memory store")
		return store.NewMemory().Store(), nil, nil
	}

	dbURL, err := database.BuildURL(loc)
	if err != nil {
		return store.Store{}, nil, fmt.Errorf("build database URL: %w", err)
	}
	logger.Info("connecting to database", "dsn", database.Redact(dbURL))

	dbCfg := database.DefaultConfig()
	dbCfg.URL = dbURL
	if cfg.MaxConnections > 0 {
		dbCfg.MaxConnections = cfg.MaxConnections
	}

	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return store.Store{}, nil, err
	}
	logger.Info("database connected")

	var migrations fs.FS = database.MigrationsFS()
	if cfg.MigrationsDir != "" {
		migrations = os.DirFS(cfg.MigrationsDir)
	}
	if err := database.RunMigrations(ctx, db, migrations, logger); err != nil {
		db.Close()
		return store.Store{}, nil, fmt.Errorf("run migrations: %w", err)
	}

	return database.NewStore(db), db, nil
}

func newRevoker(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (auth.Revoker, *redis.Client, error) {
	if cfg.Addr == "" {
		logger.Info("redis not configured, keeping token revocations in memory")
		return auth.NewMemoryRevoker(), nil, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	logger.Info("redis connected", "addr", cfg.Addr)
	return auth.NewRedisRevoker(rdb), rdb, nil
}

func newProvider(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (llm.Provider, error) {
	switch cfg.Provider {
	case llm.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is required for the openai provider")
		}
		return llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case llm.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		return llm.NewAnthropic(llm.AnthropicConfig{
			APIKey:      cfg.AnthropicAPIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}), nil
	case llm.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, errors.New("GEMINI_API_KEY is required for the gemini provider")
		}
		return llm.NewGemini(ctx, llm.GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
	case llm.ProviderMock, "":
		logger.Warn("using mock llm provider")
		return llm.NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
