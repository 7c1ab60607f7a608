package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/grade-calculator-api/api/swagger"
	"github.com/noah-isme/grade-calculator-api/internal/handler"
	"github.com/noah-isme/grade-calculator-api/internal/middleware"
	"github.com/noah-isme/grade-calculator-api/internal/repository"
	"github.com/noah-isme/grade-calculator-api/internal/service"
	"github.com/noah-isme/grade-calculator-api/pkg/cache"
	"github.com/noah-isme/grade-calculator-api/pkg/config"
	"github.com/noah-isme/grade-calculator-api/pkg/jobs"
	"github.com/noah-isme/grade-calculator-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/grade-calculator-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/grade-calculator-api/pkg/middleware/requestid"
)

// @title Grade Calculator API
// @version 1.0.0
// @description Course grade calculation with optimal drop rules and weighted assignment groups
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, result cache disabled", "error", err)
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, logr, service.CacheOptions{
		Namespace: service.GradeCacheNamespace,
		TTL:       cfg.Grades.CacheTTL,
		Enabled:   cfg.Grades.CacheEnabled && redisClient != nil,
	})
	pool := jobs.NewPool("grades", jobs.PoolConfig{Workers: cfg.Grades.BatchWorkers, Logger: logr})
	calculator := service.NewGradeCalculator(service.CalculatorOptions{
		MaxIterations: cfg.Grades.MaxIterations,
		Tolerance:     cfg.Grades.Tolerance,
	})
	gradeSvc := service.NewGradeService(calculator, cacheSvc, metricsSvc, pool, service.NewPayloadValidator(), logr, service.GradeServiceConfig{
		CacheTTL:      cfg.Grades.CacheTTL,
		MaxGroups:     cfg.Grades.MaxGroups,
		BatchMaxItems: cfg.Grades.BatchMaxItems,
	})
	authSvc := service.NewAuthService(cfg.JWT.Secret, logr)

	var readiness handler.Pinger
	if redisClient != nil {
		readiness = cacheRepo
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, readiness)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.GradeRoutes{
		Grades:       handler.NewGradeHandler(gradeSvc),
		Tokens:       authSvc,
		AuthRequired: cfg.JWT.Required,
	}.Register(r.Group(cfg.APIPrefix))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.Bool("cache", cacheSvc.Enabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
