package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"agent-market/internal/config"
	"agent-market/internal/simulation"
)

type sweepRow struct {
	Seed            int64           `json:"seed"`
	FinalPrice      float64         `json:"final_price"`
	TotalReturn     float64         `json:"total_return"`
	Accepted        int             `json:"accepted"`
	Rejected        int             `json:"rejected"`
	BestDisposition string          `json:"best_disposition"`
	BestValue       decimal.Decimal `json:"best_value"`
	BenchmarkProfit decimal.Decimal `json:"benchmark_profit"`
	Error           string          `json:"error,omitempty"`
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the same config over many seeds and rank the outcomes",
		Long: `Run the same config once per seed and rank the runs by final price.

Examples:
  cli sweep --seeds 20
  cli sweep --config examples/scenarios/volatile.yaml --seeds 50 --workers 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			n, _ := cmd.Flags().GetInt("seeds")
			start, _ := cmd.Flags().GetInt64("start-seed")
			workers, _ := cmd.Flags().GetInt("workers")
			jsonOut, _ := cmd.Flags().GetBool("json")
			if n <= 0 {
				return fmt.Errorf("--seeds must be > 0")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			rows := sweep(ctx, base, start, n, workers)
			sort.SliceStable(rows, func(i, j int) bool { return rows[i].FinalPrice > rows[j].FinalPrice })

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"runs": rows})
			}
			printSweep(cmd.OutOrStdout(), rows)
			return ctx.Err()
		},
	}
	addRunFlags(cmd)
	cmd.Flags().Int("seeds", 10, "Number of seeds to run")
	cmd.Flags().Int64("start-seed", 1, "First seed; the rest follow consecutively")
	cmd.Flags().Int("workers", 1, "Simulations to run at once")
	cmd.Flags().Bool("json", false, "Print the results as JSON")
	return cmd
}

// sweep runs base once per seed in [start, start+n). Rows come back in seed order.
func sweep(ctx context.Context, base *config.Config, start int64, n, workers int) []sweepRow {
	if workers <= 0 {
		workers = 1
	}
	rows := make([]sweepRow, n)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			cfg := *base
			seed := start + int64(i)
			cfg.Simulation.Seed = &seed
			rows[i] = sweepOne(ctx, &cfg)
		}(i)
	}
	wg.Wait()
	return rows
}

func sweepOne(ctx context.Context, cfg *config.Config) sweepRow {
	row := sweepRow{Seed: cfg.Seed()}
	res, report, err := runOnce(ctx, cfg, true)
	if res == nil {
		row.Error = err.Error()
		return row
	}
	counts := res.Counts()
	row.FinalPrice = res.FinalPrice()
	row.TotalReturn = report.Summary.Prices.TotalReturn
	row.Accepted = counts[simulation.OutcomeAccepted]
	row.Rejected = counts[simulation.OutcomeRejected]
	row.BenchmarkProfit = report.Summary.Benchmark.Profit
	if len(report.Summary.Ranking) > 0 {
		best := report.Summary.Ranking[0]
		row.BestDisposition = string(best.Disposition)
		row.BestValue = best.FinalValue
	}
	if err != nil {
		row.Error = err.Error()
	}
	return row
}

func printSweep(w io.Writer, rows []sweepRow) {
	fmt.Fprintf(w, "%-4s %-8s %-8s %-8s %-9s %-9s %-12s %-10s %-10s\n",
		"rank", "seed", "final", "return%", "accepted", "rejected", "best", "best$", "oracle$")
	for i, r := range rows {
		if r.Error != "" && r.FinalPrice == 0 {
			fmt.Fprintf(w, "%-4d %-8d error: %s\n", i+1, r.Seed, r.Error)
			continue
		}
		fmt.Fprintf(w, "%-4d %-8d %-8.2f %-8.1f %-9d %-9d %-12s %-10s %-10s\n",
			i+1,
			r.Seed,
			r.FinalPrice,
			r.TotalReturn*100,
			r.Accepted,
			r.Rejected,
			r.BestDisposition,
			r.BestValue.StringFixed(2),
			r.BenchmarkProfit.StringFixed(2),
		)
	}
}
