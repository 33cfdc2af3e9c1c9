package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dovra-dev/atelier-finder/app/echo-server/router"
	"github.com/dovra-dev/atelier-finder/business/analytics"
	"github.com/dovra-dev/atelier-finder/business/precompute"
	"github.com/dovra-dev/atelier-finder/business/recommend"
	"github.com/dovra-dev/atelier-finder/business/weather"
	"github.com/dovra-dev/atelier-finder/internal/middleware"
	"github.com/dovra-dev/atelier-finder/internal/ml"
	psqlRepo "github.com/dovra-dev/atelier-finder/internal/repository/postgres"
	redisRepo "github.com/dovra-dev/atelier-finder/internal/repository/redis"
	"github.com/dovra-dev/atelier-finder/internal/rest"
	"github.com/dovra-dev/atelier-finder/pkg/config"
	"github.com/dovra-dev/atelier-finder/pkg/database"
	redisdb "github.com/dovra-dev/atelier-finder/pkg/database/redis"
	"github.com/dovra-dev/atelier-finder/pkg/logger"
	"github.com/dovra-dev/atelier-finder/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const responseCacheTTL = 2 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Atelier Finder", "version", cfg.App.Version)

	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	logger.Info("Database connected successfully")

	redisClient, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", "error", err)
	}
	defer func() {
		if err := redisdb.CloseRedisClient(redisClient); err != nil {
			logger.Error("Failed to close Redis client", "error", err)
		}
	}()

	// Init repo
	activityRepo := psqlRepo.NewActivityRepository(db)
	scoreRepo := psqlRepo.NewLocationScoreRepository(db)
	logRepo := psqlRepo.NewPredictionLogRepository(db)
	analyticsRepo := psqlRepo.NewAnalyticsRepository(db)
	weatherRepo := psqlRepo.NewWeatherCacheRepository(db)
	responseCache := redisRepo.NewRecommendationCache(redisClient, responseCacheTTL)

	// Init predictor client
	predictor := ml.NewClient(ml.Options{
		URL:       cfg.ML.PredictURL,
		Timeout:   cfg.ML.Timeout,
		CacheTTL:  cfg.ML.CacheTTL,
		CacheSize: cfg.ML.CacheSize,
	})

	// Init service
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	recommendService := recommend.NewService(activityRepo, scoreRepo, logRepo, predictor, cfg.ML.ModelVersion, rng)
	analyticsService := analytics.NewService(analyticsRepo)
	weatherService := weather.NewService(cfg.Weather, weatherRepo)
	warmJob := precompute.NewJob(recommendService, responseCache)

	// Init handler
	recommendationHandler := rest.NewRecommendationHandler(recommendService, responseCache, analyticsService)
	weatherHandler := rest.NewWeatherHandler(weatherService)
	adminHandler := rest.NewAdminHandler(recommendService, analyticsService, warmJob, cfg.Admin)
	healthHandler := rest.NewHealthHandler(db, redisClient)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Auth middleware
	authRequired := middleware.AuthMiddleware(cfg.Admin.JWTSecret)
	adminOnly := middleware.AdminOnly()

	// Setup routes
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	router.SetupRecommendationRoutes(api, recommendationHandler)
	router.SetupWeatherRoutes(api, weatherHandler)
	router.SetupHealthRoutes(api, healthHandler)
	router.SetupAdminRoutes(api, adminHandler, authRequired, adminOnly)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
