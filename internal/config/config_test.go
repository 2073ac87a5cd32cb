package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"agent-market/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.Simulation.Steps != 40 || c.Traders.Count != 20 || c.Seed() != 1 {
		t.Errorf("unexpected defaults: %+v", c.Simulation)
	}
	if c.InitialAssets() != 3 || !c.InitialCash().Equal(decimal.NewFromInt(70)) {
		t.Errorf("unexpected balances: %d %s", c.InitialAssets(), c.InitialCash())
	}
	prices, err := c.Prices()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prices) != 5 || prices[4] != 10.1 {
		t.Errorf("prices = %v", prices)
	}
	p := c.MarketParams()
	if p.Sensitivity != 0.1 || p.Floor != 1.0 || *c.Market.NoiseAmplitude != 3.0 {
		t.Errorf("unexpected market params: %+v", p)
	}
	if c.Grid.Width != 10 || c.Grid.Height != 10 {
		t.Errorf("grid = %+v", c.Grid)
	}
	if d, _ := c.OracleTimeout(); d != 30*time.Second {
		t.Errorf("timeout = %v", d)
	}
	if spec, err := c.OracleSpec(); err != nil || spec.Name != "rule" {
		t.Errorf("oracle = %q, %v", spec.Name, err)
	}
}

func TestLoadAppliesDefaultsAndKeepsZeroes(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sim.yaml", `
simulation:
  steps: 12
  seed: 0
traders:
  count: 4
  initial_assets: 0
  dispositions: [aggressive, risk_averse]
market:
  noise_amplitude: 0
oracle:
  name: scripted
  responses: ["1", "7"]
  timeout: 2s
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Simulation.Steps != 12 || c.Seed() != 0 {
		t.Errorf("simulation = %+v", c.Simulation)
	}
	if c.InitialAssets() != 0 {
		t.Errorf("initial assets = %d, want explicit 0", c.InitialAssets())
	}
	if *c.Market.NoiseAmplitude != 0 {
		t.Errorf("noise amplitude = %v, want explicit 0", *c.Market.NoiseAmplitude)
	}
	ds, err := c.DispositionList()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds) != 2 || ds[1] != model.DispositionRiskAverse {
		t.Errorf("dispositions = %v", ds)
	}
	spec, err := c.OracleSpec()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Timeout != 2*time.Second || len(spec.Responses) != 2 {
		t.Errorf("oracle spec = %+v", spec)
	}
	if c.Noise().Sample() != 0 {
		t.Error("expected silent noise")
	}
}

func TestOracleSpecTimeout(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"", 30 * time.Second, false},
		{"2s", 2 * time.Second, false},
		{"0s", -1, false},
		{"soon", 0, true},
		{"-5s", 0, true},
	}
	for _, tt := range tests {
		c := Default()
		c.Oracle.Timeout = tt.raw
		spec, err := c.OracleSpec()
		if tt.wantErr {
			if !errors.Is(err, model.ErrInvalidConfiguration) {
				t.Errorf("timeout %q: expected invalid configuration, got %v", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("timeout %q: unexpected error: %v", tt.raw, err)
		}
		if spec.Timeout != tt.want {
			t.Errorf("timeout %q = %v, want %v", tt.raw, spec.Timeout, tt.want)
		}
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	c := Default()
	neg := -1
	c.Traders.Count = -2
	c.Traders.InitialAssets = &neg
	c.Traders.Dispositions = []string{"Reckless"}
	c.Market.Floor = -1
	c.Oracle.Name = "magic"
	c.Oracle.Timeout = "soon"

	err := c.Validate()
	if !errors.Is(err, model.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
	for _, want := range []string{"traders.count", "initial_assets", "Reckless", "floor", "magic", "oracle.timeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidateRejectsScriptedWithoutResponses(t *testing.T) {
	c := Default()
	c.Oracle.Name = "scripted"
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "responses") {
		t.Errorf("expected responses error, got %v", err)
	}
}

func TestLoadScenarioFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
name: base
simulation:
  steps: 30
  seed: 5
market:
  initial_prices: [5, 6]
  noise_amplitude: 1.5
oracle:
  name: ollama
  model: llama3.2
`)
	path := writeFile(t, dir, "child.yaml", `
scenario_file: base.yaml
simulation:
  steps: 10
oracle:
  name: hold
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name != "base" || c.Simulation.Steps != 10 || c.Seed() != 5 {
		t.Errorf("unexpected merge: name=%q steps=%d seed=%d", c.Name, c.Simulation.Steps, c.Seed())
	}
	if *c.Market.NoiseAmplitude != 1.5 || len(c.Market.InitialPrices) != 2 {
		t.Errorf("market = %+v", c.Market)
	}
	if c.Oracle.Name != "hold" || c.Oracle.Model != "" {
		t.Errorf("oracle = %+v, want hold without model", c.Oracle)
	}
}

func TestLoadPricesFileRelativeToConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "prices.json", "[20, 21, 22]")
	path := writeFile(t, dir, "sim.yaml", "market:\n  initial_prices_file: prices.json\n")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prices, err := c.Prices()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prices) != 3 || prices[2] != 22 {
		t.Errorf("prices = %v", prices)
	}

	missing := writeFile(t, dir, "bad.yaml", "market:\n  initial_prices_file: nope.csv\n")
	if _, err := Load(missing); !errors.Is(err, model.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := writeFile(t, dir, "bad.yaml", "simulation: [unclosed")
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}
	orphan := writeFile(t, dir, "orphan.yaml", "scenario_file: nowhere.yaml\n")
	if _, err := Load(orphan); err == nil || !strings.Contains(err.Error(), "scenario_file") {
		t.Errorf("expected scenario_file error, got %v", err)
	}
}

func TestMerge(t *testing.T) {
	seed := int64(9)
	cash := 100.0
	base := *Default()
	base.Market.InitialPricesFile = ""

	out := Merge(base, Config{
		Simulation: SimulationConfig{Seed: &seed},
		Traders:    TraderConfig{InitialCash: &cash},
		Market:     MarketConfig{InitialPricesFile: "p.csv"},
		Oracle:     OracleConfig{Temperature: 0.7},
	})
	if out.Seed() != 9 || !out.InitialCash().Equal(decimal.NewFromInt(100)) {
		t.Errorf("unexpected merge: seed=%d cash=%s", out.Seed(), out.InitialCash())
	}
	if out.Simulation.Steps != 40 || out.Traders.Count != 20 {
		t.Errorf("base values lost: %+v %+v", out.Simulation, out.Traders)
	}
	if out.Market.InitialPricesFile != "p.csv" || out.Market.InitialPrices != nil {
		t.Errorf("price source not replaced: %+v", out.Market)
	}
	if out.Oracle.Name != "rule" || out.Oracle.Temperature != 0.7 {
		t.Errorf("oracle = %+v", out.Oracle)
	}
	if base.Seed() != 1 {
		t.Error("Merge modified base")
	}
}
