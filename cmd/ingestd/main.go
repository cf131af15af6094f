package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/novamart/demand-planner/internal/cache"
	"github.com/novamart/demand-planner/internal/config"
	"github.com/novamart/demand-planner/internal/ingest"
	"github.com/novamart/demand-planner/internal/planner"
	"github.com/novamart/demand-planner/internal/repository/postgres"
	"github.com/novamart/demand-planner/internal/service"
	"github.com/novamart/demand-planner/pkg/logger"
)

// ingestd is the standalone upload endpoint: it accepts sales CSVs over HTTP
// and writes them into the same database the API server plans from.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	planCache, err := cache.NewPlanCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Plan cache unavailable, continuing without caching")
	}

	planService := service.NewPlanService(
		postgres.NewSalesRepository(db),
		postgres.NewPlanRepository(db),
		planCache,
		planner.New(cfg.Planner.Workers),
	)

	r := mux.NewRouter()
	ingest.NewHandler(planService).RegisterRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Log.Info().Str("addr", addr).Msg("Ingest daemon starting")
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Log.Fatal().Err(err).Msg("Ingest daemon stopped")
	}
}
