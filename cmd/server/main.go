package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/benvon/smart-worklog/internal/catalog"
	"github.com/benvon/smart-worklog/internal/config"
	"github.com/benvon/smart-worklog/internal/fuzzy"
	"github.com/benvon/smart-worklog/internal/handlers"
	"github.com/benvon/smart-worklog/internal/logger"
	"github.com/benvon/smart-worklog/internal/middleware"
	"github.com/benvon/smart-worklog/internal/models"
	"github.com/benvon/smart-worklog/internal/parser"
	"github.com/benvon/smart-worklog/internal/selection"
	"github.com/benvon/smart-worklog/internal/services/ai"
	"github.com/benvon/smart-worklog/internal/telemetry"
	"github.com/benvon/smart-worklog/internal/temporal"
	"github.com/benvon/smart-worklog/internal/worklog"
)

// Set through -ldflags at build time
var (
	version   = "dev"
	commit    = ""
	buildDate = ""
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging, including model prompts")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("reference_tz", cfg.ReferenceTZ),
		zap.String("pending_store", cfg.PendingStore),
		zap.Bool("interactive_selection", cfg.InteractiveSelection),
		zap.Bool("ai_fallback", cfg.OpenAIKey != ""),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var tracerProvider *sdktrace.TracerProvider
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(ctx, telemetry.Config{
			ServiceName:    telemetry.ServiceName,
			ServiceVersion: version,
			Endpoint:       cfg.OTELEndpoint,
		})
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracerProvider = tp
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = connectRedis(ctx, cfg.RedisURL, zapLogger)
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
	}

	reference, storage, err := cfg.Locations()
	if err != nil {
		zapLogger.Fatal("invalid_time_zones", zap.Error(err))
	}
	resolver, err := temporal.NewResolver(reference, storage)
	if err != nil {
		zapLogger.Fatal("failed_to_create_resolver", zap.Error(err))
	}

	strategies := []parser.Strategy{parser.NewRuleStrategy(resolver)}
	if cfg.OpenAIKey != "" {
		extractor, err := ai.NewOpenAIExtractor(ai.OpenAIConfig{
			APIKey:     cfg.OpenAIKey,
			BaseURL:    cfg.AIBaseURL,
			Model:      cfg.AIModel,
			Timeout:    cfg.AITimeout,
			MaxRetries: cfg.AIMaxRetries,
			DebugMode:  debugMode,
		}, zapLogger)
		if err != nil {
			zapLogger.Warn("failed_to_create_ai_extractor_fallback_disabled", zap.Error(err))
		} else {
			strategies = append(strategies, parser.NewFallbackStrategy(extractor, resolver, zapLogger))
			zapLogger.Info("ai_fallback_enabled", zap.String("model", extractor.Model()))
		}
	}
	commandParser := parser.New(strategies, parser.WithLogger(zapLogger))

	ranker, err := fuzzy.NewRanker(cfg.Thresholds())
	if err != nil {
		zapLogger.Fatal("invalid_confidence_thresholds", zap.Error(err))
	}

	var store selection.Store
	healthDeps := map[string]selection.Pinger{}
	switch cfg.PendingStore {
	case "redis":
		redisStore := selection.NewRedisStore(redisClient, nil)
		store = redisStore
		healthDeps["pending_store"] = redisStore
	default:
		store = selection.NewMemoryStore(nil)
	}
	machine, err := selection.NewMachine(store, cfg.SelectionOptions(), zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_selection_machine", zap.Error(err))
	}

	var projects []models.Project
	if cfg.CatalogPath != "" {
		projects, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			zapLogger.Fatal("failed_to_load_catalog", zap.String("path", cfg.CatalogPath), zap.Error(err))
		}
		zapLogger.Info("catalog_loaded", zap.Int("projects", len(projects)))
	}

	service, err := worklog.NewService(commandParser, ranker, machine, catalog.NewStatic(projects), zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_worklog_service", zap.Error(err))
	}

	var limiterClient redis.UniversalClient
	if redisClient != nil {
		limiterClient = redisClient
		healthDeps["rate_limit_store"] = redisPinger{redisClient}
	}
	limiterStore, err := middleware.NewRateLimitStore(limiterClient)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limit_store", zap.Error(err))
	}
	rateLimitMW, err := middleware.RateLimit(limiterStore, cfg.RateLimit, zapLogger)
	if err != nil {
		zapLogger.Fatal("invalid_rate_limit", zap.String("rate", cfg.RateLimit), zap.Error(err))
	}

	openAPIHandler, err := handlers.NewOpenAPIHandler()
	if err != nil {
		zapLogger.Fatal("failed_to_load_openapi_document", zap.Error(err))
	}

	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order, outermost first
	if tracerProvider != nil {
		r.Use(telemetry.HTTPMiddleware(telemetry.ServiceName, tracerProvider))
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(cfg.AllowedOrigins, debugMode))
	r.Use(middleware.MaxRequestSize(cfg.MaxRequestBytes, zapLogger))
	r.Use(middleware.ContentType(zapLogger))
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	r.HandleFunc("/healthz", handlers.NewHealthChecker(healthDeps).HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", handlers.VersionHandler(handlers.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
	})).Methods(http.MethodGet)
	openAPIHandler.RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(rateLimitMW)
	apiRouter.Use(middleware.Owner)
	handlers.NewWorklogHandler(service, zapLogger).RegisterRoutes(apiRouter)

	// CORS has already answered preflights by the time this runs
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   45 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)

	sweeper := selection.NewSweeper(machine, cfg.PendingSweepInterval, zapLogger)
	g.Go(func() error {
		if err := sweeper.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		zapLogger.Info("server_listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("server_shutting_down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLogger.Error("server_stopped_with_error", zap.Error(err))
		_ = logger.Sync(zapLogger)
		os.Exit(1)
	}
	zapLogger.Info("server_exited")
}

// connectRedis retries with exponential backoff so the server can start
// alongside a Redis that is still booting
func connectRedis(ctx context.Context, redisURL string, zapLogger *zap.Logger) *redis.Client {
	const maxRetries = 10
	const initialDelay = 2 * time.Second
	const maxDelay = 30 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		client, err := selection.NewRedisClient(redisURL)
		if err == nil {
			zapLogger.Info("connected_to_redis")
			return client
		}
		lastErr = err

		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > maxDelay {
			delay = maxDelay
		}
		zapLogger.Warn("failed_to_connect_to_redis_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("retry_delay", delay),
			zap.String("error", logger.SanitizeError(err)),
		)

		select {
		case <-ctx.Done():
			zapLogger.Fatal("redis_connect_interrupted")
		case <-time.After(delay):
		}
	}

	zapLogger.Fatal("failed_to_connect_to_redis_after_retries",
		zap.Int("max_retries", maxRetries),
		zap.String("error", logger.SanitizeError(lastErr)),
	)
	return nil
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
