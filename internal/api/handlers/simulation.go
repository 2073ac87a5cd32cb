package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agent-market/internal/analysis"
	"agent-market/internal/api/models"
	"agent-market/internal/config"
	"agent-market/internal/data"
	"agent-market/internal/logging"
	"agent-market/internal/metrics"
	"agent-market/internal/model"
	"agent-market/internal/simulation"
)

// Limits protect the server from requests that would run for hours.
const (
	MaxSteps   = 1000
	MaxTraders = 500
	MaxCompare = 10
)

// Run is a finished simulation kept in the result store.
type Run struct {
	ID        string
	CreatedAt time.Time
	Config    *config.Config
	Oracle    string
	Result    *simulation.Result
	Summary   analysis.Summary
}

// SimulationHandler handles simulation requests
type SimulationHandler struct {
	base        *config.Config
	scenarioDir string
	store       *data.ResultStore[*Run]
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// NewSimulationHandler creates a new simulation handler. base may be nil (built-in defaults).
func NewSimulationHandler(base *config.Config, scenarioDir string, store *data.ResultStore[*Run], logger *slog.Logger, m *metrics.Metrics) *SimulationHandler {
	if base == nil {
		base = &config.Config{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &SimulationHandler{
		base:        base,
		scenarioDir: scenarioDir,
		store:       store,
		logger:      logger.With("handler", "simulation"),
		metrics:     m,
	}
}

// RunSimulation handles POST /api/v1/simulations
func (h *SimulationHandler) RunSimulation(c *gin.Context) {
	var req models.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	cfg, err := h.buildConfig(req.Scenario, req.Config)
	if err != nil {
		h.configError(c, err)
		return
	}

	run, err := h.execute(c.Request.Context(), cfg)
	if err != nil {
		h.runError(c, err)
		return
	}
	h.store.Set(run.ID, run)

	c.JSON(http.StatusOK, buildResponse(run, req.Options))
}

// GetSimulation handles GET /api/v1/simulations/:id
func (h *SimulationHandler) GetSimulation(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, buildResponse(run, models.SimulationOptions{}))
}

// GetLedger handles GET /api/v1/simulations/:id/ledger (?format=csv for CSV)
func (h *SimulationHandler) GetLedger(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	if strings.EqualFold(c.Query("format"), "csv") {
		var buf bytes.Buffer
		if err := simulation.EncodeTurnsCSV(&buf, run.Result.Turns); err != nil {
			respondError(c, http.StatusInternalServerError, "ENCODE_ERROR", err.Error())
			return
		}
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
		return
	}
	c.JSON(http.StatusOK, models.LedgerResponse{ID: run.ID, Ledger: convertTurns(run.Result.Turns)})
}

// GetPrices handles GET /api/v1/simulations/:id/prices (?format=csv for CSV)
func (h *SimulationHandler) GetPrices(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	if strings.EqualFold(c.Query("format"), "csv") {
		var buf bytes.Buffer
		if err := simulation.EncodePricesCSV(&buf, run.Result); err != nil {
			respondError(c, http.StatusInternalServerError, "ENCODE_ERROR", err.Error())
			return
		}
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
		return
	}
	c.JSON(http.StatusOK, models.PricesResponse{ID: run.ID, Prices: convertPrices(run.Result)})
}

// ListSimulations handles GET /api/v1/simulations
func (h *SimulationHandler) ListSimulations(c *gin.Context) {
	out := []models.SimulationSummary{}
	ids := []string{}
	for _, id := range h.store.Keys() {
		run, ok := h.store.Get(id)
		if !ok {
			continue
		}
		ids = append(ids, id)
		out = append(out, buildSummary(run))
	}
	c.JSON(http.StatusOK, gin.H{"ids": ids, "simulations": out})
}

// CompareSimulations handles POST /api/v1/simulations/compare
func (h *SimulationHandler) CompareSimulations(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if len(req.Variations) > MaxCompare {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST",
			fmt.Sprintf("at most %d variations per comparison", MaxCompare))
		return
	}

	results := make([]models.ComparisonResult, 0, len(req.Variations))
	for _, v := range req.Variations {
		merged := mergeRequestConfig(req.BaseConfig, v.Config)
		cfg, err := h.buildConfig(req.Scenario, merged)
		if err != nil {
			results = append(results, models.ComparisonResult{
				Name:  v.Name,
				Error: &models.ErrorDetail{Code: "INVALID_CONFIG", Message: err.Error()},
			})
			continue
		}
		run, err := h.execute(c.Request.Context(), cfg)
		if err != nil {
			if c.Request.Context().Err() != nil {
				h.runError(c, err)
				return
			}
			results = append(results, models.ComparisonResult{
				Name:  v.Name,
				Error: &models.ErrorDetail{Code: "SIMULATION_ERROR", Message: err.Error()},
			})
			continue
		}
		h.store.Set(run.ID, run)

		res := models.ComparisonResult{Name: v.Name, ID: run.ID, Summary: buildSummary(run)}
		if traders := convertTraders(run.Summary.Ranking); len(traders) > 0 {
			res.BestTrader = &traders[0]
		}
		results = append(results, res)
	}

	c.JSON(http.StatusOK, models.CompareResponse{Comparison: results})
}

func (h *SimulationHandler) lookup(c *gin.Context) (*Run, bool) {
	id := c.Param("id")
	run, ok := h.store.Get(id)
	if !ok {
		respondError(c, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("simulation %q not found or expired", id))
		return nil, false
	}
	return run, true
}

// buildConfig layers: server base config, then the named scenario, then request fields.
func (h *SimulationHandler) buildConfig(scenario string, req models.SimulationConfig) (*config.Config, error) {
	cfg := *h.base
	if scenario != "" {
		info, err := data.FindScenario(h.scenarioDir, scenario)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidConfiguration, err)
		}
		sc, err := config.LoadUnchecked(info.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: scenario %s: %v", model.ErrInvalidConfiguration, scenario, err)
		}
		cfg = config.Merge(cfg, *sc)
	}
	cfg = config.Merge(cfg, toConfig(req))
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Simulation.Steps > MaxSteps {
		return nil, fmt.Errorf("%w: steps must be <= %d", model.ErrInvalidConfiguration, MaxSteps)
	}
	if cfg.Traders.Count > MaxTraders {
		return nil, fmt.Errorf("%w: trader count must be <= %d", model.ErrInvalidConfiguration, MaxTraders)
	}
	return &cfg, nil
}

func (h *SimulationHandler) execute(ctx context.Context, cfg *config.Config) (*Run, error) {
	engine, err := simulation.FromConfig(cfg, simulation.Options{
		Logger:  h.logger,
		Metrics: h.metrics,
	})
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	h.logger.Info("running simulation",
		"id", id,
		"steps", cfg.Simulation.Steps,
		"traders", cfg.Traders.Count,
		"oracle", cfg.Oracle.Name,
		"seed", cfg.Seed(),
	)

	res, err := engine.Run(ctx, cfg.Simulation.Steps)
	if err != nil && res == nil {
		return nil, err
	}
	if err != nil && !res.Interrupted {
		return nil, err
	}
	if res.Interrupted {
		h.logger.Warn("simulation interrupted", "id", id, "steps_completed", res.Steps, "error", err)
	}

	return &Run{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Config:    cfg,
		Oracle:    cfg.Oracle.Name,
		Result:    res,
		Summary:   analysis.Summarize(res, cfg.InitialAssets(), cfg.InitialCash(), cfg.MarketParams().Floor),
	}, nil
}

func (h *SimulationHandler) configError(c *gin.Context, err error) {
	h.logger.Info("invalid simulation config", "error", err)
	respondError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
}

func (h *SimulationHandler) runError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidConfiguration):
		h.configError(c, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusServiceUnavailable, "CANCELLED", err.Error())
	default:
		h.logger.Error("simulation failed", "error", err)
		respondError(c, http.StatusInternalServerError, "SIMULATION_ERROR", err.Error())
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
