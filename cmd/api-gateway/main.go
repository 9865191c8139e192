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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/gradebook-api/api/swagger"
	"github.com/noah-isme/gradebook-api/internal/handler"
	"github.com/noah-isme/gradebook-api/internal/middleware"
	"github.com/noah-isme/gradebook-api/internal/repository"
	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/pkg/cache"
	"github.com/noah-isme/gradebook-api/pkg/config"
	"github.com/noah-isme/gradebook-api/pkg/database"
	"github.com/noah-isme/gradebook-api/pkg/jobs"
	"github.com/noah-isme/gradebook-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/gradebook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gradebook-api/pkg/middleware/requestid"
)

const shutdownTimeout = 15 * time.Second

// @title Gradebook API
// @version 1.0.0
// @description Per-course gradebooks for a tutoring center
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, report cache disabled", zap.Error(err))
		redisClient = nil
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled && redisClient != nil)

	validate := validator.New()
	gradebookSvc := service.NewGradebookService(
		repository.NewGradebookRepository(db),
		repository.NewRosterRepository(db),
		cacheSvc,
		metricsSvc,
		validate,
		logr,
	)
	if cacheSvc.Enabled() && cfg.Reports.WarmWorkers > 0 {
		warmer := service.NewReportWarmer(gradebookSvc, jobs.QueueConfig{
			Workers: cfg.Reports.WarmWorkers,
			Logger:  logr,
		})
		warmer.Start(context.Background())
		defer warmer.Stop()
		gradebookSvc.UseReportWarmer(warmer)
		metricsSvc.TrackWarmQueue(warmer.QueueDepth)
	}
	exportSvc := service.NewExportService(gradebookSvc, service.ExportConfig{
		TitlePrefix: cfg.Export.TitlePrefix,
		FontPath:    cfg.Export.FontPath,
	}, logr, nil, nil)

	gradebookHandler := handler.NewGradebookHandler(gradebookSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{
		"postgres": db,
		"redis":    handler.PingFunc(cacheRepo.Ping),
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metricsSvc != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/system/metrics", metricsHandler.Summary)

	gradebooks := api.Group("/gradebooks/:courseKey")
	gradebooks.GET("", gradebookHandler.Get)
	gradebooks.PUT("", gradebookHandler.Replace)
	gradebooks.DELETE("", gradebookHandler.Delete)
	gradebooks.POST("/columns", gradebookHandler.AddColumn)
	gradebooks.PATCH("/columns/:index", gradebookHandler.UpdateColumn)
	gradebooks.DELETE("/columns/:index", gradebookHandler.RemoveColumn)
	gradebooks.GET("/columns/:index/report", gradebookHandler.ColumnReport)
	gradebooks.PUT("/scores", gradebookHandler.UpdateScores)
	gradebooks.PATCH("/students/:studentId", gradebookHandler.UpdateStudent)
	gradebooks.GET("/students/:studentId/report", gradebookHandler.StudentReport)
	gradebooks.PUT("/settings", gradebookHandler.UpdateSettings)
	gradebooks.POST("/roster/sync", gradebookHandler.SyncRoster)
	gradebooks.GET("/totals", gradebookHandler.Totals)
	gradebooks.GET("/periodic/:name/report", gradebookHandler.PeriodicReport)
	gradebooks.GET("/export", gradebookHandler.Export)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
