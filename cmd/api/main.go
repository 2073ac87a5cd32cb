package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"agent-market/internal/api"
	"agent-market/internal/api/handlers"
	"agent-market/internal/config"
	"agent-market/internal/data"
	"agent-market/internal/logging"
	"agent-market/internal/metrics"
)

func main() {
	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	logger := logging.NewLogger(os.Getenv("LOG_LEVEL"), os.Stderr)

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// SIM_CONFIG provides server-wide defaults. Requests still layer scenarios and
	// their own fields on top, so the file is not validated on its own here.
	var base *config.Config
	if path := strings.TrimSpace(os.Getenv("SIM_CONFIG")); path != "" {
		cfg, err := config.LoadUnchecked(path)
		if err != nil {
			logger.Error("failed to load base config", "path", path, "error", err)
			os.Exit(1)
		}
		base = cfg
		logger.Info("loaded base config", "path", path, "name", cfg.Name)
	}

	ttl := time.Hour
	if raw := os.Getenv("RESULT_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			logger.Error("invalid RESULT_TTL", "value", raw, "error", err)
			os.Exit(1)
		}
		ttl = d
	}
	store := data.NewResultStore[*handlers.Run](ttl)
	store.StartCleanup(ttl / 4)
	defer store.Close()

	m := metrics.New()
	reg, err := metrics.NewRegistry(m)
	if err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	scenarioDir := data.DefaultScenarioDir()
	if _, err := os.Stat(scenarioDir); err != nil {
		logger.Warn("scenario directory not found", "dir", scenarioDir, "error", err)
	} else {
		logger.Info("scenario directory found", "dir", scenarioDir)
	}

	router := api.NewRouter(api.Deps{
		Base:        base,
		ScenarioDir: scenarioDir,
		Store:       store,
		Logger:      logger,
		Metrics:     m,
		Gatherer:    reg,
	})

	// Start server
	addr := fmt.Sprintf(":%s", port)
	logger.Info("starting API server", "addr", addr, "result_ttl", ttl)
	if err := router.Run(addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
