package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/tasknest/backend/api/handler"
	"github.com/tasknest/backend/internal/config"
	"github.com/tasknest/backend/internal/infrastructure/monitor"
	pgInfra "github.com/tasknest/backend/internal/infrastructure/postgres"
	redisInfra "github.com/tasknest/backend/internal/infrastructure/redis"
	"github.com/tasknest/backend/internal/infrastructure/snapshot"
	"github.com/tasknest/backend/internal/middleware"
	"github.com/tasknest/backend/internal/router"
	"github.com/tasknest/backend/internal/services"
	"github.com/tasknest/backend/internal/services/lifecycle"
	"github.com/tasknest/backend/pkg/httpcontext"
	"github.com/tasknest/backend/pkg/logger"
	"github.com/tasknest/backend/repository/postgres"
	redisRepo "github.com/tasknest/backend/repository/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	snapshots, err := snapshot.Open(cfg.Snapshot.Path)
	if err != nil {
		zapLogger.Fatal("failed to open snapshot store", zap.Error(err))
	}
	manager.Register("snapshots", func(ctx context.Context) error {
		return snapshots.Close()
	})

	mon := monitor.New(pool, redisClient, snapshots, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	feed := redisRepo.NewFeed(redisClient, zapLogger)
	taskRepo := postgres.NewTaskRepository(pool, feed)
	projectRepo := postgres.NewProjectRepository(pool, feed)

	workspace := services.NewWorkspace(feed, taskRepo, projectRepo, snapshots,
		services.WorkspaceConfig{
			RetryDelay:   cfg.Sync.RetryDelay,
			JournalLimit: cfg.Sync.JournalLimit,
		}, zapLogger)
	manager.Register("workspace", func(ctx context.Context) error {
		workspace.Close()
		return nil
	})

	resyncer := services.NewResyncer(workspace, snapshots,
		services.ResyncConfig{
			Interval:  cfg.Sync.ResyncInterval,
			Retention: cfg.Snapshot.Retention,
		}, zapLogger)
	resyncer.Start()
	manager.Register("resyncer", func(ctx context.Context) error {
		resyncer.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Project: apiHandler.NewProjectHandler(workspace, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(workspace, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, workspace, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
