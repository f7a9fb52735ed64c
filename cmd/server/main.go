package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-co-op/gocron"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"arogya-setu/internal/account"
	"arogya-setu/internal/agent"
	"arogya-setu/internal/analytics"
	"arogya-setu/internal/config"
	"arogya-setu/internal/consultation"
	"arogya-setu/internal/knowledge"
	"arogya-setu/internal/metrics"
	"arogya-setu/internal/platform/gemini"
	"arogya-setu/internal/platform/logging"
	"arogya-setu/internal/platform/postgres"
	"arogya-setu/internal/platform/respond"
	"arogya-setu/internal/platform/telegram"
	"arogya-setu/internal/preferences"
	"arogya-setu/internal/records"
	"arogya-setu/internal/report"
	"arogya-setu/internal/storage"
)

const (
	dbConnectAttempts = 10
	sweepInterval     = 5 * time.Minute
	shutdownTimeout   = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Infrastructure
	db := openDatabase(ctx, cfg, logger)
	if db != nil {
		defer db.Close()
	}
	redisClient := openRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var (
		consultationRepo consultation.Repository
		userRepo         account.Repository
		kv               storage.KV
	)
	if db != nil {
		consultationRepo = consultation.NewRepository(db)
		userRepo = account.NewRepository(db)
		kv = storage.NewPostgresKV(db)
	} else {
		consultationRepo = consultation.NewMemoryRepository()
		userRepo = account.NewMemoryRepository()
		kv = storage.NewMemoryKV()
	}

	var (
		sessions  consultation.SessionStore
		scheduler *gocron.Scheduler
	)
	if redisClient != nil {
		sessions = consultation.NewRedisSessionStore(redisClient, cfg.SessionTTL)
	} else {
		memStore := consultation.NewMemorySessionStore(cfg.SessionTTL)
		scheduler = memStore.StartSweeper(sweepInterval, logger)
		sessions = memStore
	}

	// 2. Clients
	var generator agent.Generator
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := gemini.NewClient(gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.GeminiBaseURL,
			Model:   cfg.GeminiModel,
			Timeout: cfg.GeminiTimeout,
		})
		if err != nil {
			logger.Fatal("failed to create gemini client", zap.Error(err))
		}
		generator = geminiClient
		logger.Info("generative endpoint configured", zap.String("model", geminiClient.Model()))
	} else {
		logger.Warn("GEMINI_API_KEY is not set; chat will apologise and diagnoses will use the fallback rules")
	}

	var tgClient report.TelegramClient
	if cfg.TelegramBotToken != "" {
		tgClient = telegram.NewClient(cfg.TelegramBotToken)
	}
	if tgClient == nil || cfg.DoctorChatID == 0 {
		logger.Warn("TELEGRAM_BOT_TOKEN or DOCTOR_CHAT_ID is not set; urgent referral alerts are disabled")
	}

	// 3. Services
	aiAgent := agent.New(generator, m, logger)
	prefsSvc := preferences.NewService(kv)
	reportSvc := report.NewService(tgClient, cfg.DoctorChatID, prefsSvc, m, logger)
	consultationSvc := consultation.NewService(sessions, consultationRepo, aiAgent, reportSvc, m, logger)
	accountSvc := account.NewService(userRepo, kv, logger)
	catalog, err := knowledge.Default()
	if err != nil {
		logger.Fatal("failed to load knowledge catalog", zap.Error(err))
	}

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization"},
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(db, redisClient))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		account.RegisterRoutes(r, account.NewHandler(accountSvc, logger))
		consultation.RegisterRoutes(r, consultation.NewHandler(consultationSvc, logger))
		agent.RegisterRoutes(r, agent.NewHandler(aiAgent, logger))
		records.RegisterRoutes(r, records.NewHandler(records.NewService(consultationRepo), logger))
		analytics.RegisterRoutes(r, analytics.NewHandler(analytics.NewService(consultationRepo), logger))
		knowledge.RegisterRoutes(r, knowledge.NewHandler(catalog))
		preferences.RegisterRoutes(r, preferences.NewHandler(prefsSvc, logger))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	if scheduler != nil {
		scheduler.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openDatabase returns nil when DATABASE_URL is unset or unreachable; the
// service then keeps everything in memory.
func openDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) *sql.DB {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL is not set; records and accounts are kept in memory")
		return nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL, dbConnectAttempts, logger)
	if err != nil {
		logger.Error("could not connect to database, continuing in memory", zap.Error(err))
		return nil
	}
	logger.Info("connected to database")

	if err := postgres.Migrate(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}
	logger.Info("migrations applied")
	return db
}

func openRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("invalid REDIS_URL, using in-memory sessions", zap.Error(err))
		return nil
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("redis unreachable, using in-memory sessions", zap.Error(err))
		client.Close()
		return nil
	}
	logger.Info("connected to redis", zap.String("addr", opts.Addr))
	return client
}

func readiness(db *sql.DB, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				respond.Error(w, http.StatusServiceUnavailable, "NOT_READY", fmt.Sprintf("database: %v", err))
				return
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				respond.Error(w, http.StatusServiceUnavailable, "NOT_READY", fmt.Sprintf("redis: %v", err))
				return
			}
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
