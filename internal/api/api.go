package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/novamart/demand-planner/internal/api/handlers"
	"github.com/novamart/demand-planner/internal/api/middleware"
	"github.com/novamart/demand-planner/internal/config"
	"github.com/novamart/demand-planner/internal/service"
)

type Services struct {
	PlanService *service.PlanService
}

func NewRouter(services *Services, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(cfg.Server.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.PlanService != nil {
		planHandler := handlers.NewPlanHandler(services.PlanService, cfg.Planner)

		plansGroup := apiGroup.Group("/plans")
		{
			plansGroup.POST("/compute", planHandler.ComputePlan)
			plansGroup.POST("/compute_all", planHandler.ComputeAllPlans)
			plansGroup.GET("", planHandler.GetPlannedProducts)
			plansGroup.GET("/:product", planHandler.GetLatestPlan)
		}

		productsGroup := apiGroup.Group("/products")
		{
			productsGroup.GET("", planHandler.GetProducts)
			productsGroup.GET("/:product/summary", planHandler.GetProductSummary)
		}

		apiGroup.GET("/summary", planHandler.GetSummary)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
