package models

// SimulationRequest represents the request body for running a simulation.
// Config fields override the scenario (if given), which overrides the server's base config.
type SimulationRequest struct {
	Scenario string            `json:"scenario,omitempty"` // id of a preset in SCENARIO_DIR
	Config   SimulationConfig  `json:"config"`
	Options  SimulationOptions `json:"options,omitempty"`
}

// SimulationConfig mirrors the YAML config. Pointer fields distinguish "unset" from zero.
type SimulationConfig struct {
	Steps int    `json:"steps,omitempty"`
	Seed  *int64 `json:"seed,omitempty"`

	Grid *GridConfig `json:"grid,omitempty"`

	TraderCount   int      `json:"trader_count,omitempty"`
	InitialAssets *int     `json:"initial_assets,omitempty"`
	InitialCash   *float64 `json:"initial_cash,omitempty"`
	Dispositions  []string `json:"dispositions,omitempty"`

	InitialPrices  []float64 `json:"initial_prices,omitempty"`
	Sensitivity    *float64  `json:"sensitivity,omitempty"`
	NoiseAmplitude *float64  `json:"noise_amplitude,omitempty"`
	Floor          float64   `json:"floor,omitempty"`

	Oracle OracleConfig `json:"oracle,omitempty"`
}

type GridConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// OracleConfig selects the decision backend. API keys are never accepted over HTTP;
// the OpenAI oracle reads OPENAI_API_KEY on the server.
type OracleConfig struct {
	Name        string   `json:"name,omitempty"` // "rule", "hold", "scripted", "ollama", "openai"
	Model       string   `json:"model,omitempty"`
	BaseURL     string   `json:"base_url,omitempty"`
	Timeout     string   `json:"timeout,omitempty"` // Go duration, e.g. "30s"
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Responses   []string `json:"responses,omitempty"`
	Window      int      `json:"window,omitempty"`
	Band        float64  `json:"band,omitempty"`
	Fallback    string   `json:"fallback,omitempty"`
}

// SimulationOptions contains optional response parameters
type SimulationOptions struct {
	IncludeLedger bool `json:"include_ledger,omitempty"` // default: false
	IncludePrices bool `json:"include_prices,omitempty"` // default: false
}

// CompareRequest runs one simulation per variation, each merged onto BaseConfig.
type CompareRequest struct {
	Scenario   string           `json:"scenario,omitempty"`
	BaseConfig SimulationConfig `json:"base_config"`
	Variations []Variation      `json:"variations" binding:"required,min=1,dive"`
}

// Variation defines a variation to run
type Variation struct {
	Name   string           `json:"name" binding:"required"`
	Config SimulationConfig `json:"config"`
}
