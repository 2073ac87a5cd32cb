// Package config loads simulation scenarios from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"agent-market/internal/data"
	"agent-market/internal/market"
	"agent-market/internal/model"
	"agent-market/internal/oracle"
)

const (
	DefaultSteps         = 40
	DefaultTraderCount   = 20
	DefaultInitialAssets = 3
	DefaultInitialCash   = 70.0
	DefaultGridSize      = 10
	DefaultOracleTimeout = 30 * time.Second
)

// DefaultInitialPrices seeds the market history when no prices are configured.
var DefaultInitialPrices = []float64{9.5, 9.8, 10, 10.4, 10.1}

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: inherit a preset from a separate YAML (e.g. examples/scenarios/*.yaml).
	// Fields set here override the preset.
	ScenarioFile string `yaml:"scenario_file,omitempty"`

	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`

	Simulation SimulationConfig `yaml:"simulation"`
	Grid       GridConfig       `yaml:"grid"`
	Traders    TraderConfig     `yaml:"traders"`
	Market     MarketConfig     `yaml:"market"`
	Oracle     OracleConfig     `yaml:"oracle"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type SimulationConfig struct {
	Steps int `yaml:"steps,omitempty"`
	// Seed drives trader ids, drawn dispositions and market noise. Nil means pick one at load time.
	Seed *int64 `yaml:"seed,omitempty"`
}

// GridConfig is accepted for compatibility with grid-based scenarios. It has no effect on the run.
type GridConfig struct {
	Width  int `yaml:"width,omitempty"`
	Height int `yaml:"height,omitempty"`
}

type TraderConfig struct {
	Count         int      `yaml:"count,omitempty"`
	InitialAssets *int     `yaml:"initial_assets,omitempty"`
	InitialCash   *float64 `yaml:"initial_cash,omitempty"`
	// Dispositions is assigned in order and repeated. Empty means draw at random.
	Dispositions []string `yaml:"dispositions,omitempty"`
}

type MarketConfig struct {
	InitialPrices []float64 `yaml:"initial_prices,omitempty"`
	// InitialPricesFile is a JSON array or one-column CSV. InitialPrices wins if both are set.
	InitialPricesFile string   `yaml:"initial_prices_file,omitempty"`
	Sensitivity       *float64 `yaml:"sensitivity,omitempty"`
	NoiseAmplitude    *float64 `yaml:"noise_amplitude,omitempty"`
	Floor             float64  `yaml:"floor,omitempty"`
}

type OracleConfig struct {
	Name    string `yaml:"name,omitempty"`
	Model   string `yaml:"model,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	APIKey  string `yaml:"api_key,omitempty"`
	// Timeout is a Go duration string such as "30s".
	Timeout     string   `yaml:"timeout,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty"`
	Temperature float64  `yaml:"temperature,omitempty"`
	Responses   []string `yaml:"responses,omitempty"`
	Window      int      `yaml:"window,omitempty"`
	Band        float64  `yaml:"band,omitempty"`
	// Fallback names the oracle used when the primary fails or is unavailable.
	Fallback string `yaml:"fallback,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
	// DecisionDir receives decisions.jsonl when the level is debug or trace.
	DecisionDir string `yaml:"decision_dir,omitempty"`
}

// Default returns the stock scenario with every default applied and a fixed seed of 1.
func Default() *Config {
	seed := int64(1)
	c := &Config{Simulation: SimulationConfig{Seed: &seed}}
	c.ApplyDefaults()
	return c
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not apply defaults or validate it.
// Relative file references are resolved against the config file's directory.
func LoadUnchecked(path string) (*Config, error) {
	c, err := Parse(path)
	if err != nil {
		return nil, err
	}
	if c.ScenarioFile != "" {
		base, err := Parse(resolve(path, c.ScenarioFile))
		if err != nil {
			return nil, fmt.Errorf("scenario_file: %w", err)
		}
		merged := Merge(*base, *c)
		c = &merged
	}
	if c.Market.InitialPricesFile != "" {
		c.Market.InitialPricesFile = resolve(path, c.Market.InitialPricesFile)
	}
	return c, nil
}

// Parse reads one YAML file without following scenario_file.
func Parse(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(raw)
}

func Unmarshal(raw []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &c, nil
}

// resolve prefers ref relative to the directory of path, but falls back to ref as given
// (relative to cwd) if that does not exist.
func resolve(path, ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	cand := filepath.Join(filepath.Dir(path), ref)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return ref
}

// ApplyDefaults fills every unset field. Initial prices are loaded from InitialPricesFile
// later, by Prices, so a missing file surfaces as a validation error.
func (c *Config) ApplyDefaults() {
	if c.Simulation.Steps == 0 {
		c.Simulation.Steps = DefaultSteps
	}
	if c.Simulation.Seed == nil {
		seed := time.Now().UnixNano()
		c.Simulation.Seed = &seed
	}
	if c.Grid.Width == 0 {
		c.Grid.Width = DefaultGridSize
	}
	if c.Grid.Height == 0 {
		c.Grid.Height = DefaultGridSize
	}
	if c.Traders.Count == 0 {
		c.Traders.Count = DefaultTraderCount
	}
	if c.Traders.InitialAssets == nil {
		v := DefaultInitialAssets
		c.Traders.InitialAssets = &v
	}
	if c.Traders.InitialCash == nil {
		v := DefaultInitialCash
		c.Traders.InitialCash = &v
	}
	if len(c.Market.InitialPrices) == 0 && c.Market.InitialPricesFile == "" {
		c.Market.InitialPrices = append([]float64(nil), DefaultInitialPrices...)
	}
	if c.Market.Sensitivity == nil {
		v := market.DefaultSensitivity
		c.Market.Sensitivity = &v
	}
	if c.Market.NoiseAmplitude == nil {
		v := market.DefaultNoiseAmplitude
		c.Market.NoiseAmplitude = &v
	}
	if c.Market.Floor == 0 {
		c.Market.Floor = market.DefaultFloor
	}
	if c.Oracle.Name == "" {
		c.Oracle.Name = "rule"
	}
	if c.Oracle.Timeout == "" {
		c.Oracle.Timeout = DefaultOracleTimeout.String()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate reports every problem found, joined, each wrapping model.ErrInvalidConfiguration.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", model.ErrInvalidConfiguration)
	}
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{model.ErrInvalidConfiguration}, args...)...))
	}

	if c.Simulation.Steps < 0 {
		add("simulation.steps must be >= 0")
	}
	if c.Grid.Width < 0 || c.Grid.Height < 0 {
		add("grid dimensions must be >= 0")
	}
	if c.Traders.Count <= 0 {
		add("traders.count must be > 0")
	}
	if c.Traders.InitialAssets != nil && *c.Traders.InitialAssets < 0 {
		add("traders.initial_assets must be >= 0")
	}
	if c.Traders.InitialCash != nil && *c.Traders.InitialCash < 0 {
		add("traders.initial_cash must be >= 0")
	}
	if _, err := c.DispositionList(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Prices(); err != nil {
		errs = append(errs, err)
	}
	if err := c.MarketParams().Validate(); err != nil {
		add("market: %v", err)
	}
	if c.Market.NoiseAmplitude != nil && *c.Market.NoiseAmplitude < 0 {
		add("market.noise_amplitude must be >= 0")
	}
	if !containsFold(oracle.Names(), c.Oracle.Name) {
		add("oracle.name %q is not one of %s", c.Oracle.Name, strings.Join(oracle.Names(), ", "))
	}
	if c.Oracle.Fallback != "" && !containsFold(oracle.Names(), c.Oracle.Fallback) {
		add("oracle.fallback %q is not one of %s", c.Oracle.Fallback, strings.Join(oracle.Names(), ", "))
	}
	if strings.EqualFold(c.Oracle.Name, "scripted") && len(c.Oracle.Responses) == 0 {
		add("oracle.responses is required for the scripted oracle")
	}
	if _, err := c.OracleTimeout(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Prices returns the configured seed prices, reading InitialPricesFile when no inline list is set.
func (c *Config) Prices() ([]float64, error) {
	if len(c.Market.InitialPrices) > 0 {
		return append([]float64(nil), c.Market.InitialPrices...), nil
	}
	if c.Market.InitialPricesFile == "" {
		return nil, fmt.Errorf("%w: market.initial_prices must not be empty", model.ErrInvalidConfiguration)
	}
	prices, err := data.LoadPriceSeries(c.Market.InitialPricesFile)
	if err != nil {
		return nil, fmt.Errorf("%w: market.initial_prices_file: %v", model.ErrInvalidConfiguration, err)
	}
	return prices, nil
}

func (c *Config) MarketParams() market.Params {
	p := market.DefaultParams()
	if c.Market.Sensitivity != nil {
		p.Sensitivity = *c.Market.Sensitivity
	}
	if c.Market.Floor != 0 {
		p.Floor = c.Market.Floor
	}
	return p
}

func (c *Config) Noise() market.NoiseSource {
	amp := market.DefaultNoiseAmplitude
	if c.Market.NoiseAmplitude != nil {
		amp = *c.Market.NoiseAmplitude
	}
	return market.NewUniformNoise(amp, c.Seed())
}

func (c *Config) Seed() int64 {
	if c.Simulation.Seed == nil {
		return 0
	}
	return *c.Simulation.Seed
}

// DispositionList parses Traders.Dispositions.
func (c *Config) DispositionList() ([]model.Disposition, error) {
	out := make([]model.Disposition, 0, len(c.Traders.Dispositions))
	for _, s := range c.Traders.Dispositions {
		d, err := model.ParseDisposition(s)
		if err != nil {
			return nil, fmt.Errorf("traders.dispositions: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (c *Config) InitialCash() decimal.Decimal {
	if c.Traders.InitialCash == nil {
		return decimal.NewFromFloat(DefaultInitialCash)
	}
	return decimal.NewFromFloat(*c.Traders.InitialCash)
}

func (c *Config) InitialAssets() int {
	if c.Traders.InitialAssets == nil {
		return DefaultInitialAssets
	}
	return *c.Traders.InitialAssets
}

func (c *Config) OracleTimeout() (time.Duration, error) {
	if c.Oracle.Timeout == "" {
		return DefaultOracleTimeout, nil
	}
	d, err := time.ParseDuration(c.Oracle.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: oracle.timeout: %v", model.ErrInvalidConfiguration, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: oracle.timeout must be >= 0", model.ErrInvalidConfiguration)
	}
	return d, nil
}

// OracleSpec converts the oracle section for oracle.Build. A configured timeout of zero
// disables the client bound.
func (c *Config) OracleSpec() (oracle.Spec, error) {
	timeout, err := c.OracleTimeout()
	if err != nil {
		return oracle.Spec{}, err
	}
	if timeout == 0 {
		timeout = -1
	}
	return oracle.Spec{
		Name:        c.Oracle.Name,
		Model:       c.Oracle.Model,
		BaseURL:     c.Oracle.BaseURL,
		APIKey:      c.Oracle.APIKey,
		Timeout:     timeout,
		MaxTokens:   c.Oracle.MaxTokens,
		Temperature: c.Oracle.Temperature,
		Responses:   c.Oracle.Responses,
		Rule:        oracle.RuleParams{Window: c.Oracle.Window, Band: c.Oracle.Band},
		Fallback:    c.Oracle.Fallback,
	}, nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
