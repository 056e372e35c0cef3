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

	"github.com/ucost/exhibitqa/internal/config"
	logpkg "github.com/ucost/exhibitqa/internal/logger"
	"github.com/ucost/exhibitqa/internal/metrics"
	"github.com/ucost/exhibitqa/internal/repository/corpus"
	"github.com/ucost/exhibitqa/internal/repository/detailcache"
	backendTransport "github.com/ucost/exhibitqa/internal/transport/backend"
	gemmaTransport "github.com/ucost/exhibitqa/internal/transport/gemma"
	"github.com/ucost/exhibitqa/internal/transport/httpapi"
	answeruc "github.com/ucost/exhibitqa/internal/usecase/answer"
	healthuc "github.com/ucost/exhibitqa/internal/usecase/health"
	rerankuc "github.com/ucost/exhibitqa/internal/usecase/rerank"
	"github.com/ucost/exhibitqa/internal/version"
)

const usage = `Usage: exhibitqa <command> [args]

Commands:
  serve            run the HTTP API server
  ask <question>   answer a visitor question
  health           probe the recommender and backend
  reload           reload the exhibit corpus from CSV
  stats            print in-process counters and latency percentiles
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

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

	logger.Info("Starting exhibitqa",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("recommender_url", cfg.Recommender.BaseURL),
		zap.String("backend_url", cfg.Backend.BaseURL),
	)

	// Register prometheus collectors explicitly (no init())
	metrics.Register()
	recorder := metrics.NewRecorder(cfg.Metrics.LatencyWindow)

	// Composition root
	store := corpus.New(cfg.Corpus.CSVPath, cfg.Answer.TopicScoreMin, logger)
	ctx := context.Background()
	if n, err := store.Reload(ctx); err != nil {
		logger.Warn("Corpus unavailable, running on recommender and backend only", zap.Error(err))
	} else {
		logger.Info("Corpus loaded", zap.Int("exhibits", n))
	}

	model := rerankuc.LoadModel(cfg.Reranker.ModelPath, logger)
	engine := rerankuc.NewEngine(model, &cfg, logger)

	recommender := gemmaTransport.New(&gemmaTransport.Config{
		BaseURL:  cfg.Recommender.BaseURL,
		Timeout:  time.Duration(cfg.Recommender.TimeoutSec) * time.Second,
		Limit:    cfg.Recommender.Limit,
		Recorder: recorder,
		Logger:   logger,
	})
	backend := backendTransport.New(&backendTransport.Config{
		BaseURL:       cfg.Backend.BaseURL,
		BatchTimeout:  time.Duration(cfg.Backend.BatchTimeoutSec) * time.Second,
		ItemTimeout:   time.Duration(cfg.Backend.ItemTimeoutSec) * time.Second,
		HealthTimeout: time.Duration(cfg.Backend.HealthTimeoutSec) * time.Second,
		Logger:        logger,
	})
	cache := detailcache.New(
		backend,
		time.Duration(cfg.Cache.TTLSec)*time.Second,
		cfg.Cache.Capacity,
		metrics.DetailCacheTotal,
		recorder,
		logger,
	)

	svc := answeruc.NewService(store, recommender, cache, engine, &cfg, recorder, logger)
	healthSvc := healthuc.New(recommender, backend, store, engine.Available(),
		time.Duration(cfg.Backend.HealthTimeoutSec)*time.Second)

	if cfg.Recommender.Warmup {
		go warmup(recommender, cache, recorder, logger)
	}

	switch os.Args[1] {
	case "serve":
		serve(cfg, svc, healthSvc, store, recorder, logger)
	case "ask":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "ask: missing question")
			os.Exit(2)
		}
		result, err := svc.Ask(ctx, os.Args[2])
		if err != nil {
			logger.Warn("Request did not complete cleanly", zap.Error(err))
		}
		printJSON(httpapi.NewChatResponse(result))
	case "health":
		printJSON(healthSvc.Check(ctx))
	case "reload":
		n, err := store.Reload(ctx)
		if err != nil {
			logger.Fatal("Corpus reload failed", zap.Error(err))
		}
		logger.Info("Corpus reloaded", zap.Int("exhibits", n))
	case "stats":
		printJSON(recorder.TakeSnapshot())
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

// serve runs the HTTP API with graceful shutdown.
func serve(
	cfg config.Config,
	svc *answeruc.Service,
	healthSvc *healthuc.Service,
	store *corpus.Store,
	recorder *metrics.Recorder,
	logger *zap.Logger,
) {
	metrics.RegisterHTTP()

	server := httpapi.NewServer(svc, healthSvc, store, recorder, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(httpapi.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

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

// warmup primes the recommender index and the detail cache so the first
// visitor question does not pay the cold-start cost.
func warmup(recommender *gemmaTransport.Client, cache *detailcache.Cache, recorder *metrics.Recorder, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	recs, err := recommender.Recommend(ctx, "warmup exhibits", 5)
	if err != nil {
		logger.Warn("Warmup failed, first request may be slower", zap.Error(err))
		recorder.IncErrors()
		metrics.ErrorsTotal.Inc()
		return
	}
	ids := make([]string, 0, 5)
	for _, r := range recs {
		ids = append(ids, r.ID)
		if len(ids) == 5 {
			break
		}
	}
	if len(ids) > 0 {
		cache.Hydrate(ctx, ids)
	}
	logger.Info("Warmup completed")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain
// text stacktrace.
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, "encode output:", err)
		os.Exit(1)
	}
}
