package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mbekov/packquest/internal/config"
	"github.com/mbekov/packquest/internal/delivery/httpapi"
	"github.com/mbekov/packquest/internal/infra/postgres"
	"github.com/mbekov/packquest/internal/infra/postgres/repository"
	"github.com/mbekov/packquest/internal/logger"
	"github.com/mbekov/packquest/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	levels, err := cfg.Gamification.LevelTable()
	if err != nil {
		zl.Fatal("invalid level table", zap.Error(err))
	}

	loc, err := cfg.Gamification.Location()
	if err != nil {
		zl.Fatal("invalid timezone", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn, err := cfg.DB.DSN()
	if err != nil {
		zl.Fatal("database config", zap.Error(err))
	}

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		zl.Fatal("connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		zl.Fatal("apply migrations", zap.Error(err))
	}

	transactor := postgres.NewTransactor(pool)
	repos := service.Repos{
		Progress: func(db postgres.DBTX) service.ProgressRepository {
			return repository.NewProgressRepository(db)
		},
		Completions: func(db postgres.DBTX) service.CompletionRepository {
			return repository.NewCompletionRepository(db)
		},
		Packs: func(db postgres.DBTX) service.PackRepository {
			return repository.NewPackRepository(db)
		},
		Views: func(db postgres.DBTX) service.ViewRepository {
			return repository.NewViewRepository(db)
		},
		Follows: func(db postgres.DBTX) service.FollowRepository {
			return repository.NewFollowRepository(db)
		},
	}

	completionService := service.NewCompletionService(pool, transactor, repos, levels, loc)
	packService := service.NewPackService(pool, transactor, repos)
	viewService := service.NewViewService(pool, transactor, repos, cfg.Views.CountSelfViews)
	followService := service.NewFollowService(pool, repos)

	handler := httpapi.NewHandler(
		completionService,
		packService,
		viewService,
		followService,
		pool,
		zl,
	)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(handler, zl),
	}

	go func() {
		zl.Info("server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}
