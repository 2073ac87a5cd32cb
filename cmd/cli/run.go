package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"agent-market/internal/analysis"
	"agent-market/internal/config"
	"agent-market/internal/data"
	"agent-market/internal/logging"
	"agent-market/internal/simulation"
)

type runReport struct {
	Name        string           `json:"name,omitempty"`
	Seed        int64            `json:"seed"`
	Oracle      string           `json:"oracle"`
	Steps       int              `json:"steps"`
	Interrupted bool             `json:"interrupted"`
	History     []float64        `json:"history"`
	Outcomes    map[string]int   `json:"outcomes"`
	Summary     analysis.Summary `json:"summary"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and print the results",
		Long: `Run one simulation and print the price path and trader ranking.

Examples:
  cli run                                       # 20 traders, 40 steps, rule oracle
  cli run --config examples/scenarios/volatile.yaml --seed 7
  cli run --oracle ollama --model llama3.2 --log-level debug --decisions-dir results
  cli run --csv-dir results --out results/run.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			csvDir, _ := cmd.Flags().GetString("csv-dir")
			outPath, _ := cmd.Flags().GetString("out")
			quiet, _ := cmd.Flags().GetBool("quiet")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			res, report, runErr := runOnce(ctx, cfg, quiet || jsonOut)
			if res == nil {
				return runErr
			}

			if csvDir != "" {
				if err := os.MkdirAll(csvDir, 0o755); err != nil {
					return err
				}
				if err := simulation.WriteTurnsCSV(filepath.Join(csvDir, "turns.csv"), res.Turns); err != nil {
					return err
				}
				if err := simulation.WritePricesCSV(filepath.Join(csvDir, "prices.csv"), res); err != nil {
					return err
				}
			}
			if outPath != "" {
				if err := data.SaveJSON(report, outPath); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printReport(out, report)
				if csvDir != "" {
					fmt.Fprintf(out, "Wrote %d turns and %d prices to %s\n", len(res.Turns), len(res.History), csvDir)
				}
			}
			return runErr
		},
	}
	addRunFlags(cmd)
	cmd.Flags().Int64("seed", 0, "Random seed (overrides simulation.seed)")
	cmd.Flags().Bool("json", false, "Print the report as JSON")
	cmd.Flags().String("csv-dir", "", "Write turns.csv and prices.csv to this directory")
	cmd.Flags().String("out", "", "Write the JSON report to this path")
	cmd.Flags().Bool("quiet", false, "Suppress log output")
	return cmd
}

// runOnce builds and runs one engine. On interruption the partial result is returned
// together with the error.
func runOnce(ctx context.Context, cfg *config.Config, quiet bool) (*simulation.Result, runReport, error) {
	logger := newLogger(cfg, quiet)
	decisions := logging.NewDecisionLogger(cfg.Logging.DecisionDir, cfg.Logging.Level)
	defer decisions.Close()

	engine, err := simulation.FromConfig(cfg, simulation.Options{Logger: logger, Decisions: decisions})
	if err != nil {
		return nil, runReport{}, err
	}
	res, err := engine.Run(ctx, cfg.Simulation.Steps)
	if res == nil {
		return nil, runReport{}, err
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return nil, runReport{}, err
	}

	outcomes := map[string]int{}
	for k, v := range res.Counts() {
		outcomes[string(k)] = v
	}
	report := runReport{
		Name:        cfg.Name,
		Seed:        cfg.Seed(),
		Oracle:      cfg.Oracle.Name,
		Steps:       res.Steps,
		Interrupted: res.Interrupted,
		History:     res.History,
		Outcomes:    outcomes,
		Summary:     analysis.Summarize(res, cfg.InitialAssets(), cfg.InitialCash(), cfg.MarketParams().Floor),
	}
	return res, report, err
}

func printReport(w io.Writer, r runReport) {
	title := r.Name
	if title == "" {
		title = "simulation"
	}
	status := "completed"
	if r.Interrupted {
		status = "interrupted"
	}
	fmt.Fprintf(w, "%s: %d steps %s (oracle=%s seed=%d)\n", title, r.Steps, status, r.Oracle, r.Seed)

	p := r.Summary.Prices
	fmt.Fprintf(w, "Price %.2f -> %.2f  min=%.2f max=%.2f return=%.1f%% volatility=%.4f floor_hits=%d\n",
		p.First, p.Last, p.Min, p.Max, p.TotalReturn*100, p.Volatility, p.FloorHits)

	parts := make([]string, 0, len(r.Outcomes))
	for _, k := range []string{"accepted", "rejected", "hold", "unrecognized", "oracle_error"} {
		parts = append(parts, fmt.Sprintf("%s=%d", k, r.Outcomes[k]))
	}
	fmt.Fprintf(w, "Turns: %s\n", strings.Join(parts, " "))
	fmt.Fprintf(w, "Hindsight benchmark: best=$%s profit=$%s\n\n",
		r.Summary.Benchmark.BestValue.StringFixed(2), r.Summary.Benchmark.Profit.StringFixed(2))

	fmt.Fprintf(w, "%-4s %-5s %-12s %-6s %-10s %-10s %-10s\n", "rank", "index", "disposition", "assets", "cash", "value", "return%")
	for _, t := range r.Summary.Ranking {
		fmt.Fprintf(w, "%-4d %-5d %-12s %-6d %-10s %-10s %-10s\n",
			t.Rank,
			t.Index,
			t.Disposition,
			t.Assets,
			t.Cash.StringFixed(2),
			t.FinalValue.StringFixed(2),
			t.ReturnPct.StringFixed(2),
		)
	}
}
