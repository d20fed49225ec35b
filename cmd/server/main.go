package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tinyfeed/internal/clock"
	"tinyfeed/internal/config"
	"tinyfeed/internal/credential"
	"tinyfeed/internal/fanout"
	apphttp "tinyfeed/internal/http"
	"tinyfeed/internal/repository/kv"
	"tinyfeed/internal/service"
	"tinyfeed/internal/store"
	"tinyfeed/internal/store/memory"
	"tinyfeed/internal/store/postgres"
	"tinyfeed/internal/store/redis"
	"tinyfeed/internal/store/sqlite"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Fatalf("parse log level: %v", err)
	}
	logger.SetLevel(level)

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kvStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup store: %v", err)
	}
	defer kvStore.Close()

	clk := clock.NewReal()
	repos := service.Repositories{
		Users:     kv.NewUserRepository(kvStore),
		Posts:     kv.NewPostRepository(kvStore),
		Graph:     kv.NewGraphRepository(kvStore),
		Timelines: kv.NewTimelineRepository(kvStore),
	}

	dispatcher := fanout.NewDispatcher(fanout.Config{
		MaxConcurrent: cfg.Fanout.MaxConcurrent,
		Logger:        logger,
	}, repos.Timelines)

	userService := service.NewUserService(repos.Users, credential.NewBcrypt(cfg.Auth.BcryptCost), clk, logger)
	postService := service.NewPostService(repos, dispatcher, clk, logger)
	graphService := service.NewGraphService(repos, logger)
	dashboardService := service.NewDashboardService(repos, clk, logger)

	if cfg.Graph.ReconcileOnStart {
		repaired, err := graphService.ReconcileAll(ctx)
		if err != nil {
			logger.Warnf("reconcile follow graph: %v", err)
		} else {
			logger.WithField("repaired", repaired).Info("follow graph reconciled")
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		apphttp.Services{
			Users:      userService,
			Posts:      postService,
			Graph:      graphService,
			Dashboards: dashboardService,
		},
		apphttp.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute, clk),
		kvStore,
		logger,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (store.Store, error) {
	var s store.Store
	switch cfg.Store.Driver {
	case "memory":
		logger.Warn("using in-memory store, data is lost on exit")
		return memory.New(), nil
	case "sqlite":
		db, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		sqliteStore := sqlite.NewStore(db)
		if err := sqliteStore.Init(ctx); err != nil {
			sqliteStore.Close()
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		logger.Infof("using sqlite store at %s", cfg.Store.SQLitePath)
		s = sqliteStore
	case "redis":
		s = redis.New(redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		logger.Infof("using redis store at %s (db %d)", cfg.Store.RedisAddr, cfg.Store.RedisDB)
	case "postgres":
		if cfg.Store.PostgresDSN == "" {
			return nil, fmt.Errorf("store postgres dsn is required")
		}
		pgStore, err := postgres.New(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := pgStore.Init(ctx); err != nil {
			pgStore.Close()
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		logger.Info("using postgres store")
		s = pgStore
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}
	return s, nil
}
