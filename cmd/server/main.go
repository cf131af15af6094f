package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/novamart/demand-planner/internal/api"
	"github.com/novamart/demand-planner/internal/cache"
	"github.com/novamart/demand-planner/internal/config"
	"github.com/novamart/demand-planner/internal/planner"
	"github.com/novamart/demand-planner/internal/repository/postgres"
	"github.com/novamart/demand-planner/internal/service"
	"github.com/novamart/demand-planner/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Plan cache: falls back to a no-op cache when Redis is unavailable
	planCache, err := cache.NewPlanCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Plan cache unavailable, continuing without caching")
	}

	// Initialize services
	planService := service.NewPlanService(
		postgres.NewSalesRepository(db),
		postgres.NewPlanRepository(db),
		planCache,
		planner.New(cfg.Planner.Workers),
	)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{PlanService: planService}, cfg)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
