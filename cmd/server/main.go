package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/command_pilot/internal/config"
	"github.com/Skotchmaster/command_pilot/internal/events"
	"github.com/Skotchmaster/command_pilot/internal/httpserver"
	"github.com/Skotchmaster/command_pilot/internal/llm"
	"github.com/Skotchmaster/command_pilot/internal/middleware"
	"github.com/Skotchmaster/command_pilot/internal/ratelimit"
	"github.com/Skotchmaster/command_pilot/internal/repo"
	"github.com/Skotchmaster/command_pilot/internal/search"
	"github.com/Skotchmaster/command_pilot/internal/service"
	"github.com/Skotchmaster/command_pilot/pkg/db"
	"github.com/Skotchmaster/command_pilot/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db init error: %v", err)
	}
	gormRepo := repo.New(gdb)
	if err := gormRepo.Migrate(initCtx); err != nil {
		cancel()
		log.Fatalf("db migrate error: %v", err)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaProducer(cfg.KafkaBrokers)
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers)
	}

	var indexer service.Indexer
	if cfg.Search.URL != "" {
		esClient, err := search.NewClient(initCtx, cfg.Search)
		if err != nil {
			logger.Warn("search_disabled", "error", err)
		} else {
			idx := search.NewIndex(esClient, cfg.Search.Index)
			if err := idx.EnsureIndex(initCtx); err != nil {
				logger.Warn("search_index_not_ready", "index", cfg.Search.Index, "error", err)
			}
			indexer = idx
		}
	}

	var limiter middleware.Allower
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			cancel()
			log.Fatalf("redis url: %v", err)
		}
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(initCtx).Err(); err != nil {
			logger.Warn("redis_unreachable", "error", err)
		}
		limiter = ratelimit.New(rdb, cfg.RateLimit, cfg.RateLimitWindow)
	}
	cancel()

	completer := llm.NewOpenRouter(cfg.LLM)
	if cfg.LLM.APIKey == "" {
		logger.Warn("openrouter_key_missing")
	}

	commandSvc := &service.CommandService{
		Repo:   gormRepo,
		LLM:    completer,
		Events: publisher,
		Index:  indexer,
	}
	authSvc := &service.AuthService{
		Users:    gormRepo,
		Commands: gormRepo,
		Secret:   cfg.JWTSecret,
		TTL:      cfg.SessionTTL,
		Events:   publisher,
	}

	bgCtx, bgCancel := context.WithCancel(logging.IntoContext(context.Background(), logger))
	defer bgCancel()
	if indexer != nil {
		go func() {
			n, err := commandSvc.Reindex(bgCtx)
			if err != nil {
				logger.Warn("reindex_failed", "indexed", n, "error", err)
				return
			}
			logger.Info("reindex_done", "indexed", n)
		}()
	}

	e := httpserver.New(&httpserver.Deps{
		DB:             gdb,
		UserHandler:    &httpserver.UserHTTP{Svc: authSvc, Commands: commandSvc, CookieSecure: cfg.CookieSecure},
		CommandHandler: &httpserver.CommandHTTP{Svc: commandSvc},
		Auth:           middleware.NewAuth(cfg.JWTSecret, gormRepo),
		Limiter:        limiter,
		AllowedOrigins: cfg.AllowedOrigins,
	}, logger)
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 60 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	go func() {
		logger.Info("server_start", "addr", cfg.Addr)
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	bgCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Warn("kafka_close", "error", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := db.Close(gdb); err != nil {
		logger.Warn("db_close", "error", err)
	}
}
