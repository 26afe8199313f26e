// Package main is the entry point for the API server.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sarthi-ai/voicechat/internal/config"
	"github.com/sarthi-ai/voicechat/internal/handler"
	"github.com/sarthi-ai/voicechat/internal/llm"
	"github.com/sarthi-ai/voicechat/internal/middleware"
	natsclient "github.com/sarthi-ai/voicechat/internal/nats"
	"github.com/sarthi-ai/voicechat/internal/relay"
	"github.com/sarthi-ai/voicechat/internal/service"
	"github.com/sarthi-ai/voicechat/internal/store"
	"github.com/sarthi-ai/voicechat/pkg/logger"
	"github.com/sarthi-ai/voicechat/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "voicechat", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the conversation store
	st, err := store.Open(ctx, store.Options{
		Driver: cfg.StoreDriver,
		Postgres: store.PostgresConfig{
			DSN:         cfg.DatabaseURL,
			MaxOpen:     cfg.DBMaxOpen,
			MaxIdle:     cfg.DBMaxIdle,
			MaxLifetime: cfg.DBConnMaxLifetime,
		},
	})
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer st.Close()

	// Initialize AI gateway; without credentials every reply is the fallback
	apiKey, baseURL := cfg.AICredentials()
	llmClient, err := llm.NewClient(ctx, llm.Config{
		Provider: llm.Provider(cfg.AIProvider),
		APIKey:   apiKey,
		BaseURL:  baseURL,
	})
	if err != nil {
		log.Warn("AI gateway disabled", zap.String("provider", cfg.AIProvider), zap.Error(err))
		llmClient = nil
	}

	// Initialize services
	conversationSvc := service.NewConversationService(st, log.Named("conversations"))
	chatSvc := service.NewChatService(llmClient, conversationSvc, cfg.AIModel, log.Named("chat"))

	// Connect to NATS when the exchange feed is configured
	var natsClient *natsclient.Client
	if cfg.NATSURL != "" {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log.Named("nats"))
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		feed := natsclient.NewExchangeFeed(natsClient)
		if err := feed.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		chatSvc.SetFeed(feed)
	}

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(conversationSvc, natsClient)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	relayServer := relay.NewServer(chatSvc, log.Named("relay"))

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Real-time relay
	r.Get("/ws", relayServer.ServeHTTP)

	// REST history
	r.Route("/api/conversations", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		r.Get("/", conversationHandler.List)
		r.Post("/", conversationHandler.Create)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
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

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := relayServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("relay handlers still running", zap.Error(err))
	}

	if err := chatSvc.Wait(shutdownCtx); err != nil {
		log.Warn("pending exchanges not persisted", zap.Error(err))
	}

	log.Info("server stopped")
}
