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

	"github.com/aurora-hq/aurora/internal/config"
	"github.com/aurora-hq/aurora/internal/db"
	dbRedis "github.com/aurora-hq/aurora/internal/db/redis"
	"github.com/aurora-hq/aurora/internal/domain"
	"github.com/aurora-hq/aurora/internal/enrich"
	"github.com/aurora-hq/aurora/internal/expand"
	"github.com/aurora-hq/aurora/internal/index/lexical"
	logpkg "github.com/aurora-hq/aurora/internal/logger"
	"github.com/aurora-hq/aurora/internal/metrics"
	"github.com/aurora-hq/aurora/internal/repository/embcache"
	messagesrepo "github.com/aurora-hq/aurora/internal/repository/messages"
	chiTransport "github.com/aurora-hq/aurora/internal/transport/chi"
	openaiProvider "github.com/aurora-hq/aurora/internal/transport/openai"
	answeruc "github.com/aurora-hq/aurora/internal/usecase/answer"
	healthuc "github.com/aurora-hq/aurora/internal/usecase/health"
	retrievaluc "github.com/aurora-hq/aurora/internal/usecase/retrieval"
	"github.com/aurora-hq/aurora/internal/version"
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

	logger.Info("Starting aurora API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("upstream", cfg.Upstream.URL),
	)

	ctx := context.Background()

	// Cache store is optional: without it the corpus and embeddings are
	// refetched on every rebuild.
	var store db.Store
	if len(cfg.Database.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to cache store", zap.Strings("addrs", cfg.Database.Addrs))
	} else {
		logger.Info("Running without cache store")
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	embedder := buildEmbedder(cfg, store, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	messages := messagesrepo.New(messagesrepo.Config{
		BaseURL:    cfg.Upstream.URL,
		FetchLimit: cfg.Upstream.FetchLimit,
		Timeout:    time.Duration(cfg.Upstream.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	if store != nil {
		messages = messages.WithCache(store, time.Duration(cfg.Upstream.CacheTTLHours)*time.Hour)
	}

	pipeline, err := retrievaluc.New(
		enrich.New(cfg.Retrieval.EnrichFields),
		expand.New(cfg.Retrieval.Synonyms),
		embedder,
		retrievaluc.Options{
			TopK:          cfg.Retrieval.TopK,
			Weights:       cfg.Weights(),
			BM25:          lexical.Params{K1: cfg.Retrieval.BM25K1, B: cfg.Retrieval.BM25B},
			LexicalLimit:  cfg.Retrieval.LexicalLimit,
			SemanticLimit: cfg.Retrieval.SemanticLimit,
		},
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to create retrieval pipeline", zap.Error(err))
	}

	chat := openaiProvider.NewChat(&openaiProvider.ChatConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: float32(cfg.LLM.Temperature),
		MaxTokens:   cfg.LLM.MaxTokens,
		Logger:      logger,
	})
	answers := answeruc.New(pipeline, chat, cfg.LLM.ContextTopK, logger)

	var dbPinger healthuc.DBPinger
	if store != nil {
		dbPinger = store
	}
	health := healthuc.New(pipeline, dbPinger, newEmbeddingHealthChecker(embedder))

	// Initial corpus load and index build. The service does not start
	// serving without a snapshot.
	recs, err := messages.FetchAll(ctx, false)
	if err != nil {
		logger.Fatal("Failed to fetch corpus", zap.Error(err))
	}
	if err := pipeline.Build(ctx, recs); err != nil {
		logger.Fatal("Failed to build initial snapshot", zap.Error(err))
	}

	server := chiTransport.NewServer(answers, pipeline, pipeline, messages, health, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the embedder chain: OpenAI provider, wrapped in
// the cache decorator when a store is configured.
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) domain.Embedder {
	base := openaiProvider.NewEmbedder(&openaiProvider.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	if store == nil {
		return base
	}
	return embcache.New(
		base,
		store,
		time.Duration(cfg.Embedding.CacheTTLHours)*time.Hour,
		metrics.EmbeddingCacheTotal,
		logger,
	)
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
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
