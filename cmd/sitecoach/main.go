package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nofuss/sitecoach/internal/buildenv"
	"github.com/nofuss/sitecoach/internal/config"
	"github.com/nofuss/sitecoach/internal/deploy"
	"github.com/nofuss/sitecoach/internal/health"
	"github.com/nofuss/sitecoach/internal/idea"
	"github.com/nofuss/sitecoach/internal/llm"
	"github.com/nofuss/sitecoach/internal/memorybank"
	"github.com/nofuss/sitecoach/internal/metrics"
	"github.com/nofuss/sitecoach/internal/project"
	"github.com/nofuss/sitecoach/internal/server"
	"github.com/nofuss/sitecoach/internal/store"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Int("http_port", cfg.HTTPPort).
		Str("auth_mode", cfg.AuthMode).
		Bool("completions_enabled", cfg.CompletionEnabled()).
		Msg("starting sitecoach")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// SQLite store
	ds, err := store.New(cfg.DatabasePath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer ds.Close()

	// Health checker
	checker := health.NewChecker(logger)
	checker.Register("sqlite", func(ctx context.Context) health.Status {
		if err := ds.DB().PingContext(ctx); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	// Metrics
	metricsCollector := metrics.New()

	// Completion service (optional — chat endpoints answer 503 without it)
	var completer llm.Completer
	if cfg.CompletionEnabled() {
		client := llm.NewOpenRouterClient(cfg.OpenRouterAPIKey, logger,
			llm.WithBaseURL(cfg.OpenRouterBaseURL),
			llm.WithModel(cfg.OpenRouterModel),
			llm.WithHTTPClient(&http.Client{Timeout: cfg.CompletionTimeout}),
		)
		completer = client
		logger.Info().Str("model", cfg.OpenRouterModel).Msg("completion client initialized")
	} else {
		logger.Warn().Msg("OPENROUTER_API_KEY not set — chat and finalize endpoints disabled")
	}

	// Build environment
	env := buildenv.NewLocalClient(logger)

	// Project store and stage machine
	projects := project.NewStore(ds, logger)
	projects.SetHistoryFailureCounter(metricsCollector.HistoryAppendsFailed)
	extractor := idea.NewExtractor(completer, logger)
	manager := project.NewManager(projects, extractor, env, logger)

	// Memory bank, fed from project history
	bank := memorybank.NewBank(ds, logger)
	projects.SetRecorder(memorybank.NewRecorder(bank))

	// Deploy guidance catalogue
	catalogue, err := deploy.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load deploy catalogue")
	}

	handlers := server.NewHandlers(projects, manager, bank, catalogue, env,
		completer, checker, metricsCollector, logger)

	srv := server.New(server.Config{
		ListenAddr: fmt.Sprintf(":%d", cfg.HTTPPort),
		Auth: server.AuthConfig{
			Mode:      cfg.AuthMode,
			JWTSecret: cfg.AuthJWTSecret,
		},
		CORSOrigins: cfg.CORSOrigins,
	}, handlers, metricsCollector, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("api server error")
			cancel()
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case <-ctx.Done():
	}

	if err := srv.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	wg.Wait()
	logger.Info().Msg("sitecoach stopped")
}
