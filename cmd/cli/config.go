package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"agent-market/internal/config"
	"agent-market/internal/logging"
)

// loadConfig reads --config (if any) and layers the command's override flags on top.
// Defaults are applied and the result validated.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg := &config.Config{}
	if path != "" {
		c, err := config.LoadUnchecked(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	flags := cmd.Flags()
	if flags.Changed("steps") {
		cfg.Simulation.Steps, _ = flags.GetInt("steps")
	}
	if flags.Changed("seed") {
		seed, _ := flags.GetInt64("seed")
		cfg.Simulation.Seed = &seed
	}
	if flags.Changed("traders") {
		cfg.Traders.Count, _ = flags.GetInt("traders")
	}
	if flags.Changed("oracle") {
		name, _ := flags.GetString("oracle")
		cfg.Oracle = config.Merge(config.Config{Oracle: cfg.Oracle}, config.Config{Oracle: config.OracleConfig{Name: name}}).Oracle
	}
	if flags.Changed("model") {
		cfg.Oracle.Model, _ = flags.GetString("model")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("decisions-dir") {
		cfg.Logging.DecisionDir, _ = flags.GetString("decisions-dir")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, quiet bool) *slog.Logger {
	var w io.Writer = os.Stderr
	if quiet {
		w = io.Discard
	}
	return logging.NewLogger(cfg.Logging.Level, w)
}

// addRunFlags registers the overrides shared by run and sweep.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int("steps", 0, "Number of steps to simulate (overrides simulation.steps)")
	cmd.Flags().Int("traders", 0, "Number of traders (overrides traders.count)")
	cmd.Flags().String("oracle", "", "Decision oracle: rule, hold, scripted, ollama or openai")
	cmd.Flags().String("model", "", "Model name for the ollama and openai oracles")
	cmd.Flags().String("decisions-dir", "", "Directory for decisions.jsonl (written at debug or trace level)")
}
