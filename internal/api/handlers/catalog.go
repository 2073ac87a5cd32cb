package handlers

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"agent-market/internal/api/models"
	"agent-market/internal/data"
	"agent-market/internal/logging"
	"agent-market/internal/model"
)

var dispositionDescriptions = map[model.Disposition]string{
	model.DispositionAggressive:  "Buys as much as it can afford unless the price is falling, then sells 3.",
	model.DispositionCautious:    "Buys 1 on dips, sells 1 on rallies, otherwise holds.",
	model.DispositionRiskAverse:  "Sells 1 whenever the price is below its recent mean and not rising.",
	model.DispositionOptimistic:  "Keeps buying while the price is not falling.",
	model.DispositionPessimistic: "Sells the most it can when the price is falling, otherwise sells smaller lots.",
}

// CatalogHandler serves the static lists clients use to build requests
type CatalogHandler struct {
	scenarioDir string
	logger      *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(scenarioDir string, logger *slog.Logger) *CatalogHandler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &CatalogHandler{scenarioDir: scenarioDir, logger: logger.With("handler", "catalog")}
}

// ListDispositions handles GET /api/v1/dispositions
func (h *CatalogHandler) ListDispositions(c *gin.Context) {
	out := make([]models.DispositionInfo, 0, len(model.Dispositions()))
	for _, d := range model.Dispositions() {
		out = append(out, models.DispositionInfo{
			Name:        string(d),
			Description: dispositionDescriptions[d] + " (rule oracle)",
		})
	}
	c.JSON(http.StatusOK, gin.H{"dispositions": out})
}

// ListOracles handles GET /api/v1/oracles
func (h *CatalogHandler) ListOracles(c *gin.Context) {
	timeout := models.ParameterInfo{Name: "timeout", Type: "duration", Description: "Per-call deadline; on expiry the trader holds", Default: "30s"}
	fallback := models.ParameterInfo{Name: "fallback", Type: "string", Description: "Oracle used when this one fails or is unavailable"}
	oracles := []models.OracleInfo{
		{
			Name:        "rule",
			Description: "Deterministic disposition-driven heuristic comparing the price with its recent mean.",
			Parameters: []models.ParameterInfo{
				{Name: "window", Type: "int", Description: "Past prices in the reference mean", Default: 5},
				{Name: "band", Type: "float", Description: "Relative distance from the mean treated as a move", Default: 0.03},
			},
		},
		{
			Name:        "hold",
			Description: "Always holds. Useful as a baseline: balances never change.",
			Parameters:  []models.ParameterInfo{},
		},
		{
			Name:        "scripted",
			Description: "Replays a fixed list of responses in order, cycling.",
			Parameters: []models.ParameterInfo{
				{Name: "responses", Type: "[]string", Description: "Raw responses, e.g. [\"1\", \"7\"]"},
			},
		},
		{
			Name:        "ollama",
			Description: "Local model served by Ollama (/api/chat).",
			Parameters: []models.ParameterInfo{
				{Name: "model", Type: "string", Description: "Model name (OLLAMA_MODEL)", Default: "llama3.2"},
				{Name: "base_url", Type: "string", Description: "Server URL (OLLAMA_BASE_URL)", Default: "http://localhost:11434"},
				{Name: "max_tokens", Type: "int", Description: "Tokens to generate", Default: 1},
				{Name: "temperature", Type: "float", Description: "Sampling temperature", Default: 0.0},
				timeout,
				fallback,
			},
		},
		{
			Name:        "openai",
			Description: "Any OpenAI-compatible chat completions endpoint. The key is read from OPENAI_API_KEY on the server.",
			Parameters: []models.ParameterInfo{
				{Name: "model", Type: "string", Description: "Model name", Default: "gpt-4o-mini"},
				{Name: "base_url", Type: "string", Description: "API base URL", Default: "https://api.openai.com/v1"},
				{Name: "max_tokens", Type: "int", Description: "Tokens to generate", Default: 4},
				{Name: "temperature", Type: "float", Description: "Sampling temperature", Default: 0.0},
				timeout,
				fallback,
			},
		},
	}
	c.JSON(http.StatusOK, gin.H{"oracles": oracles})
}

// ListScenarios handles GET /api/v1/scenarios
func (h *CatalogHandler) ListScenarios(c *gin.Context) {
	list, err := data.ListScenarios(h.scenarioDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.logger.Info("scenario directory missing", "dir", h.scenarioDir)
			c.JSON(http.StatusOK, gin.H{"scenarios": []data.ScenarioInfo{}})
			return
		}
		h.logger.Error("listing scenarios failed", "dir", h.scenarioDir, "error", err)
		respondError(c, http.StatusInternalServerError, "SCENARIO_ERROR", err.Error())
		return
	}
	if list == nil {
		list = []data.ScenarioInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": list})
}
