package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/streamscout/internal/config"
	dbRedis "github.com/kailas-cloud/streamscout/internal/db/redis"
	logpkg "github.com/kailas-cloud/streamscout/internal/logger"
	"github.com/kailas-cloud/streamscout/internal/metrics"
	autocompleterepo "github.com/kailas-cloud/streamscout/internal/repository/autocomplete"
	embeddingrepo "github.com/kailas-cloud/streamscout/internal/repository/embedding"
	"github.com/kailas-cloud/streamscout/internal/repository/streamcache"
	tagsrepo "github.com/kailas-cloud/streamscout/internal/repository/tags"
	"github.com/kailas-cloud/streamscout/internal/transport/catalog"
	chiTransport "github.com/kailas-cloud/streamscout/internal/transport/chi"
	"github.com/kailas-cloud/streamscout/internal/transport/discord"
	openaiTransport "github.com/kailas-cloud/streamscout/internal/transport/openai"
	autocompleteuc "github.com/kailas-cloud/streamscout/internal/usecase/autocomplete"
	embedsyncuc "github.com/kailas-cloud/streamscout/internal/usecase/embedsync"
	enrichuc "github.com/kailas-cloud/streamscout/internal/usecase/enrich"
	ledgeruc "github.com/kailas-cloud/streamscout/internal/usecase/ledger"
	notifyuc "github.com/kailas-cloud/streamscout/internal/usecase/notify"
	recommenduc "github.com/kailas-cloud/streamscout/internal/usecase/recommend"
	refreshuc "github.com/kailas-cloud/streamscout/internal/usecase/refresh"
	subscriptionuc "github.com/kailas-cloud/streamscout/internal/usecase/subscription"
	"github.com/kailas-cloud/streamscout/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting streamscout",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("notify_enabled", cfg.Notify.Enabled),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := logpkg.ContextWithLogger(context.Background(), logger)
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	ledgerStore, err := tagsrepo.Open(cfg.Ledger.Path, cfg.Ledger.InMemory, logger)
	if err != nil {
		logger.Fatal("Failed to open tag ledger", zap.Error(err))
	}
	defer func() { _ = ledgerStore.Close() }()

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Repositories
	cacheRepo := streamcache.New(store, cfg.Cache.KeyPrefix, time.Duration(cfg.Cache.TTLMin)*time.Minute)
	autocompleteRepo := autocompleterepo.New(store, cfg.Cache.KeyPrefix)
	embeddingRepo := embeddingrepo.New(store, cfg.Cache.KeyPrefix, cfg.Embedding.Dimensions).
		WithHNSW(embeddingrepo.HNSWConfig{
			M:           cfg.Embedding.HNSWM,
			EFConstruct: cfg.Embedding.HNSWEFConstruct,
		})
	if err := embeddingRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}

	// Provider transports
	catalogClient := catalog.New(&catalog.Config{
		BaseURL:  cfg.Catalog.BaseURL,
		APIKey:   cfg.Catalog.APIKey,
		PageSize: cfg.Catalog.PageSize,
		MaxPages: cfg.Catalog.MaxPages,
		Timeout:  time.Duration(cfg.Catalog.TimeoutSec) * time.Second,
		Logger:   logger,
	})
	enricherClient := openaiTransport.NewEnricher(&openaiTransport.EnricherConfig{
		APIKey:  cfg.Enrichment.APIKey,
		BaseURL: cfg.Enrichment.BaseURL,
		Model:   cfg.Enrichment.Model,
		Logger:  logger,
	})
	embedderClient := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	// Use case services
	enrichSvc := enrichuc.New(enricherClient).WithChunking(
		cfg.Enrichment.ChunkSize,
		cfg.Enrichment.Parallelism,
		time.Duration(cfg.Enrichment.ChunkTimeoutSec)*time.Second,
	)
	embedSyncSvc := embedsyncuc.New(embedderClient, embeddingRepo).WithChunking(
		cfg.Embedding.ChunkSize,
		cfg.Embedding.Parallelism,
		time.Duration(cfg.Embedding.ChunkTimeoutSec)*time.Second,
	)
	ledgerSvc := ledgeruc.New(ledgerStore)
	autocompleteSvc := autocompleteuc.New(ledgerStore, autocompleteRepo)
	subscriptionSvc := subscriptionuc.New(ledgerStore)
	recommendSvc := recommenduc.New(cacheRepo, embedderClient, embeddingRepo).
		WithLimits(cfg.Recommend.DefaultLimit, cfg.Recommend.KNNLimit)

	var notifySvc refreshuc.Notifier
	if cfg.Notify.Enabled {
		notifier, err := discord.New(cfg.Notify.DiscordToken, cfg.Notify.LiveURLBase, logger)
		if err != nil {
			logger.Fatal("Failed to create notification transport", zap.Error(err))
		}
		notifySvc = notifyuc.New(ledgerStore, notifier)
	}

	refreshSvc := refreshuc.New(
		catalogClient, enrichSvc, cacheRepo, embedSyncSvc, ledgerSvc, autocompleteSvc, notifySvc,
	)
	scheduler := refreshuc.NewScheduler(refreshSvc, time.Duration(cfg.Refresh.IntervalMin)*time.Minute)
	recommendSvc.WithCacheMissKick(scheduler.Kick)

	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	go scheduler.Run(schedulerCtx)

	// HTTP surface
	server := chiTransport.NewServer(cacheRepo, recommendSvc, autocompleteSvc, subscriptionSvc, store, logger).
		WithCacheMissKick(scheduler.Kick)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
