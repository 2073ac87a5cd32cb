package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"agent-market/internal/config"
	"agent-market/internal/logging"
	"agent-market/internal/market"
	"agent-market/internal/model"
	"agent-market/internal/oracle"
	"agent-market/internal/simulation"
)

// Demo:
// - Seed a market with a short price history
// - Create one trader per disposition
// - Step the engine with the rule oracle and print every turn
func main() {
	steps := flag.Int("n", 5, "Number of steps to simulate")
	seed := flag.Int64("seed", 1, "Random seed for trader ids and price noise")
	oracleName := flag.String("oracle", "rule", "Decision oracle: rule, hold, ollama or openai")
	outCSV := flag.String("out", "", "Optional path to write the turn ledger CSV (e.g. results/turns.csv)")
	verbose := flag.Bool("v", false, "Log engine narration at debug level")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := logging.NewLogger(level, os.Stderr)

	m, err := market.New(config.DefaultInitialPrices, market.DefaultParams(), market.NewUniformNoise(market.DefaultNoiseAmplitude, *seed))
	if err != nil {
		panic(err)
	}

	traders, err := simulation.NewTraders(simulation.Population{
		Count:        len(model.Dispositions()),
		Assets:       config.DefaultInitialAssets,
		Cash:         decimal.NewFromFloat(config.DefaultInitialCash),
		Dispositions: model.Dispositions(),
		Seed:         *seed,
	})
	if err != nil {
		panic(err)
	}

	orc, err := oracle.Build(oracle.Spec{Name: *oracleName, Fallback: "rule"}, logger)
	if err != nil {
		panic(err)
	}

	engine, err := simulation.New(m, traders, simulation.Options{Oracle: orc, Logger: logger})
	if err != nil {
		panic(err)
	}

	fmt.Printf("Seeded market with %v\n", m.History())
	fmt.Printf("Oracle=%s traders=%d\n\n", orc.Name(), len(traders))

	var turns []simulation.TurnRecord
	ctx := context.Background()
	for i := 0; i < *steps; i++ {
		step, err := engine.Step(ctx)
		if err != nil {
			panic(err)
		}
		for _, t := range step.Turns {
			fmt.Printf(
				"step %2d  %-12s price=%6.2f  answer=%-3q action=%-6s outcome=%-12s assets=%2d cash=%8s\n",
				t.Step,
				t.Disposition,
				t.Price,
				t.Response,
				t.Action,
				t.Outcome,
				t.AssetsAfter,
				t.CashAfter.StringFixed(2),
			)
		}
		u := step.Price
		fmt.Printf("         buy=%d sell=%d  price %.2f -> %.2f (noise %+.3f)\n\n", u.BuyVolume, u.SellVolume, u.Previous, u.Next, u.Noise)
		turns = append(turns, step.Turns...)
	}

	if *outCSV != "" {
		if err := simulation.WriteTurnsCSV(*outCSV, turns); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote CSV: %s\n", *outCSV)
	}

	fmt.Println("Final positions:")
	for _, s := range engine.Report() {
		fmt.Printf("  %-12s assets=%2d cash=%8s value=%8s\n", s.Disposition, s.Assets, s.Cash.StringFixed(2), s.PortfolioValue.StringFixed(2))
	}
}
