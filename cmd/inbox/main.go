// Package main is the entry point for the inbox server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/guest-messaging/internal/autoreply"
	"github.com/capitalize-ai/guest-messaging/internal/config"
	"github.com/capitalize-ai/guest-messaging/internal/handler"
	"github.com/capitalize-ai/guest-messaging/internal/llm"
	"github.com/capitalize-ai/guest-messaging/internal/lookup"
	"github.com/capitalize-ai/guest-messaging/internal/model"
	natsclient "github.com/capitalize-ai/guest-messaging/internal/nats"
	"github.com/capitalize-ai/guest-messaging/internal/seed"
	"github.com/capitalize-ai/guest-messaging/internal/service"
	"github.com/capitalize-ai/guest-messaging/internal/store"
	"github.com/capitalize-ai/guest-messaging/internal/textgen"
	"github.com/capitalize-ai/guest-messaging/pkg/logger"
	"github.com/capitalize-ai/guest-messaging/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting inbox server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "guest-messaging", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Seed data
	now := time.Now()
	data, err := loadSeed(cfg.SeedFile, now)
	if err != nil {
		log.Fatal("failed to load seed data", zap.Error(err))
	}
	log.Info("seed data loaded",
		zap.Int("guests", len(data.Guests)),
		zap.Int("threads", len(data.Threads)),
		zap.Int("messages", len(data.Messages)),
	)

	storeOpts := []store.Option{
		store.WithLogger(log.Named("store")),
		store.WithAIEnabled(cfg.AIEnabled),
	}

	// Optional activity mirror
	var (
		natsClient *natsclient.Client
		activity   *natsclient.ActivityStream
	)
	if cfg.NATSURL != "" {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		activity = natsclient.NewActivityStream(natsClient)
		if err := activity.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure activity stream", zap.Error(err))
		}
		storeOpts = append(storeOpts, store.WithSink(activity))
	}

	dir := lookup.NewDirectory(data.Guests, data.Reservations)
	st := store.New(dir, data.Threads, data.Messages, storeOpts...)
	st.SetCurrentView(model.StatusInbox)

	// Text generation
	llmClient, err := llm.Select(llm.Provider(cfg.DefaultLLM), llm.Keys{
		Anthropic: cfg.AnthropicAPIKey,
		OpenAI:    cfg.OpenAIAPIKey,
	})
	switch {
	case err != nil:
		log.Warn("failed to create LLM client, replies will use fallbacks", zap.Error(err))
	case llmClient == nil:
		log.Warn("no LLM provider configured, replies will use fallbacks")
	default:
		log.Info("LLM provider configured", zap.String("provider", llmClient.Name()))
	}
	gen := textgen.NewGenerator(llmClient, cfg.LLMModel, log)

	orchestrator := autoreply.New(st, gen, autoreply.Config{
		TypingDelay:       cfg.TypingDelay,
		SuggestDelay:      cfg.SuggestDelay,
		SecondTypingDelay: cfg.SecondTypingDelay,
		ReplyDelay:        cfg.ReplyDelay,
	}, autoreply.WithLogger(log))

	inbox := service.NewInboxService(st, orchestrator, log, service.WithLocation(cfg.Location()))

	routerCfg := handler.RouterConfig{
		Service:           inbox,
		Logger:            log,
		JWTSecret:         cfg.JWTSecret,
		AllowedOrigins:    cfg.AllowedOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		Heartbeat:         cfg.StreamHeartbeat,
	}
	if activity != nil {
		routerCfg.Activity = activity
		routerCfg.NATS = natsClient
	}
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, API authentication disabled")
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler.NewRouter(routerCfg),
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	orchestrator.Stop()
	// Ends open streams and flushes queued events to the activity mirror.
	st.Close()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func loadSeed(path string, now time.Time) (*seed.Data, error) {
	if path == "" {
		return seed.Default(now)
	}
	return seed.LoadFile(path, now)
}
