package analysis

import (
	"github.com/shopspring/decimal"

	"agent-market/internal/model"
	"agent-market/internal/simulation"
)

// Benchmark is the best outcome a single trader could have reached with perfect knowledge of
// the price path, choosing one of the seven actions each step. Its own orders are assumed not
// to move the price.
type Benchmark struct {
	InitialValue decimal.Decimal `json:"initial_value"`
	BestValue    decimal.Decimal `json:"best_value"`
	Profit       decimal.Decimal `json:"profit"`
	// Path is one action sequence reaching BestValue.
	Path []model.Action `json:"-"`
}

// HindsightBenchmark searches every action sequence over tradePrices (the price each step's
// orders execute at) and values the final holdings at finalPrice.
//
// The search keeps, for every reachable asset count, the largest cash balance; more cash
// never removes an option, so this is exact.
func HindsightBenchmark(tradePrices []float64, finalPrice float64, assets int, cash decimal.Decimal) Benchmark {
	type state struct {
		cash decimal.Decimal
		ok   bool
		// prev asset count and action taken to get here
		from   int
		action model.Action
	}

	maxAssets := assets + 5*len(tradePrices)
	initial := cash.Add(decimal.NewFromFloat(startPrice(tradePrices, finalPrice)).Mul(decimal.NewFromInt(int64(assets))))

	layers := make([][]state, len(tradePrices)+1)
	layers[0] = make([]state, maxAssets+1)
	layers[0][assets] = state{cash: cash, ok: true, from: assets, action: model.ActionHold}

	for t, p := range tradePrices {
		cur := layers[t]
		next := make([]state, maxAssets+1)
		price := decimal.NewFromFloat(p)
		for a, s := range cur {
			if !s.ok {
				continue
			}
			for _, act := range model.Actions() {
				na, nc := a, s.cash
				q := act.Quantity()
				cost := price.Mul(decimal.NewFromInt(int64(q)))
				switch act.Side() {
				case model.SideBuy:
					if nc.LessThan(cost) {
						continue
					}
					na, nc = a+q, nc.Sub(cost)
				case model.SideSell:
					if a < q {
						continue
					}
					na, nc = a-q, nc.Add(cost)
				}
				if !next[na].ok || nc.GreaterThan(next[na].cash) {
					next[na] = state{cash: nc, ok: true, from: a, action: act}
				}
			}
		}
		layers[t+1] = next
	}

	last := layers[len(tradePrices)]
	fp := decimal.NewFromFloat(finalPrice)
	bestA := -1
	best := decimal.Zero
	for a, s := range last {
		if !s.ok {
			continue
		}
		v := s.cash.Add(fp.Mul(decimal.NewFromInt(int64(a))))
		if bestA < 0 || v.GreaterThan(best) {
			best, bestA = v, a
		}
	}

	path := make([]model.Action, len(tradePrices))
	a := bestA
	for t := len(tradePrices); t > 0; t-- {
		s := layers[t][a]
		path[t-1] = s.action
		a = s.from
	}

	// Profit is measured against holding the starting balances to the end.
	hold := cash.Add(fp.Mul(decimal.NewFromInt(int64(assets))))
	return Benchmark{
		InitialValue: initial,
		BestValue:    best,
		Profit:       best.Sub(hold),
		Path:         path,
	}
}

func startPrice(tradePrices []float64, fallback float64) float64 {
	if len(tradePrices) > 0 {
		return tradePrices[0]
	}
	return fallback
}

// BenchmarkResult runs HindsightBenchmark over a finished run for a trader that started with
// the given balances.
func BenchmarkResult(res *simulation.Result, assets int, cash decimal.Decimal) Benchmark {
	trade := make([]float64, 0, len(res.Prices))
	for _, u := range res.Prices {
		trade = append(trade, u.Previous)
	}
	return HindsightBenchmark(trade, res.FinalPrice(), assets, cash)
}
