package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sinrajat43/audio-flow/internal/api"
	"github.com/sinrajat43/audio-flow/internal/bootstrap"
	"github.com/sinrajat43/audio-flow/internal/config"
	"github.com/sinrajat43/audio-flow/internal/observability"
	"github.com/sinrajat43/audio-flow/internal/pipeline"
	"github.com/sinrajat43/audio-flow/internal/resilience"
	"github.com/sinrajat43/audio-flow/internal/stream"
	"github.com/sinrajat43/audio-flow/internal/transport"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Bool("test_mode", cfg.TestMode).
		Bool("provider_credentials", cfg.HasProviderCredentials()).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Audio Flow Service starting")

	// Select adapters once; the choices are fixed for the process lifetime
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := bootstrap.SelectStore(startupCtx, cfg)
	startupCancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize store")
	}

	fetcher := bootstrap.SelectFetcher(cfg)
	recognizer := bootstrap.SelectRecognizer(cfg, logger)
	origin := bootstrap.SelectOrigin(cfg)

	logger.Info().
		Str("origin", string(origin)).
		Msg("Adapters selected")

	batchPipeline := pipeline.New(
		fetcher,
		recognizer,
		store,
		resilience.Policy{
			MaxAttempts:  cfg.RetryMaxAttempts,
			InitialDelay: cfg.RetryInitialBackoff(),
			MaxDelay:     cfg.RetryMaxBackoff(),
		},
		transport.Options{
			Timeout:        cfg.FetchTimeout(),
			MaxBytes:       cfg.MaxDownloadBytes,
			ValidateStatus: true,
		},
		origin,
		logger,
	)

	// Create HTTP server
	mux := http.NewServeMux()

	// Transcription API
	api.NewHandlers(batchPipeline, store, logger).Register(mux)

	// Streaming WebSocket handler
	mux.HandleFunc("/ws/transcribe", stream.Handler(store, cfg.StreamPartialInterval()))

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness endpoint
	storeCheck := observability.NamedCheck{
		Name: "store",
		Check: func(ctx context.Context) (bool, error) {
			if err := store.Ping(ctx); err != nil {
				return false, err
			}
			return true, nil
		},
	}
	recognizerCheck := observability.NamedCheck{
		Name: "recognizer",
		Check: func(ctx context.Context) (bool, error) {
			// Availability only; no provider call is made here to avoid API costs
			if !recognizer.Available() {
				return false, fmt.Errorf("recognizer is not available")
			}
			return true, nil
		},
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(storeCheck, recognizerCheck))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/ws/transcribe", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := store.Close(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to close store")
	}

	logger.Info().Msg("Server exited gracefully")
}
