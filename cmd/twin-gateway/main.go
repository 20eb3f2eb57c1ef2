package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/fiwb/twin-gateway/api/swagger"
	"github.com/fiwb/twin-gateway/internal/backend"
	"github.com/fiwb/twin-gateway/internal/events"
	"github.com/fiwb/twin-gateway/internal/handler"
	"github.com/fiwb/twin-gateway/internal/middleware"
	"github.com/fiwb/twin-gateway/internal/repository"
	"github.com/fiwb/twin-gateway/internal/service"
	"github.com/fiwb/twin-gateway/pkg/cache"
	"github.com/fiwb/twin-gateway/pkg/config"
	"github.com/fiwb/twin-gateway/pkg/database"
	"github.com/fiwb/twin-gateway/pkg/logger"
	corsmiddleware "github.com/fiwb/twin-gateway/pkg/middleware/cors"
	reqidmiddleware "github.com/fiwb/twin-gateway/pkg/middleware/requestid"
	"github.com/fiwb/twin-gateway/pkg/storage"
)

// @title Twin Gateway API
// @version 0.1.0
// @description Local gateway for Digital Twin academic synchronization
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewSQLite(cfg.Session)
	if err != nil {
		logr.Sugar().Fatalw("failed to open session store", "error", err)
	}
	defer db.Close()

	sessionRepo, err := repository.NewSessionRepository(db)
	if err != nil {
		logr.Sugar().Fatalw("failed to init session store", "error", err)
	}

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, true)
		}
	}

	client := backend.NewClient(cfg.Backend, logr, metrics)
	bus := events.NewBus()

	coordinator := service.NewCoordinatorService(client, sessionRepo, cacheSvc, metrics, bus, logr, cfg.Coordinator)
	service.Provide(coordinator)

	drive := service.NewDriveService(client, sessionRepo, bus, logr, cfg.Drive)
	gmail := service.NewGmailService(client, sessionRepo, bus, logr, cfg.Gmail)
	moodle := service.NewMoodleService(client, sessionRepo, logr)
	previews := service.NewPreviewService(coordinator, sessionRepo)
	sessions := service.NewSessionService(sessionRepo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var exportsHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exports := service.NewExportService(coordinator, store, signer, logr, cfg.Exports)
		exports.Start(ctx)
		defer exports.Stop()
		exportsHandler = handler.NewExportHandler(exports)
	}

	go coordinator.Run(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	handler.Register(api, handler.Handlers{
		Academic: handler.NewAcademicHandler(service.Use()),
		Drive:    handler.NewDriveHandler(drive),
		Gmail:    handler.NewGmailHandler(gmail),
		Moodle:   handler.NewMoodleHandler(moodle),
		Material: handler.NewMaterialHandler(previews),
		Session:  handler.NewSessionHandler(sessions),
		Exports:  exportsHandler,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("gateway starting", "addr", srv.Addr, "env", cfg.Env, "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("gateway failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("gateway stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
