// Package api exposes simulations over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"agent-market/internal/api/handlers"
	"agent-market/internal/api/middleware"
	"agent-market/internal/config"
	"agent-market/internal/data"
	"agent-market/internal/logging"
	"agent-market/internal/metrics"
)

// Deps carries everything the router needs. Zero values are usable: no base config,
// no metrics endpoint and a private result store.
type Deps struct {
	Base           *config.Config
	ScenarioDir    string
	Store          *data.ResultStore[*handlers.Run]
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Store == nil {
		d.Store = data.NewResultStore[*handlers.Run](0)
	}

	router := gin.New()
	router.Use(middleware.Logger(d.Logger, d.Metrics))
	router.Use(middleware.ErrorHandler(d.Logger))
	router.Use(middleware.CORS(d.AllowedOrigins...))

	simHandler := handlers.NewSimulationHandler(d.Base, d.ScenarioDir, d.Store, d.Logger, d.Metrics)
	catalogHandler := handlers.NewCatalogHandler(d.ScenarioDir, d.Logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))
	}

	api := router.Group("/api/v1")
	{
		api.POST("/simulations", simHandler.RunSimulation)
		api.GET("/simulations", simHandler.ListSimulations)
		api.POST("/simulations/compare", simHandler.CompareSimulations)
		api.GET("/simulations/:id", simHandler.GetSimulation)
		api.GET("/simulations/:id/ledger", simHandler.GetLedger)
		api.GET("/simulations/:id/prices", simHandler.GetPrices)

		api.GET("/dispositions", catalogHandler.ListDispositions)
		api.GET("/oracles", catalogHandler.ListOracles)
		api.GET("/scenarios", catalogHandler.ListScenarios)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
