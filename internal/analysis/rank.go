package analysis

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"agent-market/internal/model"
	"agent-market/internal/simulation"
)

type RankedTrader struct {
	Rank  int `json:"rank"`
	Index int `json:"index"`

	ID          uuid.UUID         `json:"id"`
	Disposition model.Disposition `json:"disposition"`

	Assets       int             `json:"assets"`
	Cash         decimal.Decimal `json:"cash"`
	InitialValue decimal.Decimal `json:"initial_value"`
	FinalValue   decimal.Decimal `json:"final_value"`
	Profit       decimal.Decimal `json:"profit"`
	// ReturnPct is Profit / InitialValue * 100, rounded to two places.
	ReturnPct decimal.Decimal `json:"return_pct"`
}

// RankTraders pairs the initial and final reports (same order) and sorts descending by final
// portfolio value. Ties keep trader order.
func RankTraders(initial, final []simulation.TraderStatus) []RankedTrader {
	out := make([]RankedTrader, 0, len(final))
	for i, f := range final {
		init := decimal.Zero
		if i < len(initial) {
			init = initial[i].PortfolioValue
		}
		profit := f.PortfolioValue.Sub(init)
		ret := decimal.Zero
		if init.IsPositive() {
			ret = profit.Div(init).Mul(decimal.NewFromInt(100)).Round(2)
		}
		out = append(out, RankedTrader{
			Index:        i,
			ID:           f.ID,
			Disposition:  f.Disposition,
			Assets:       f.Assets,
			Cash:         f.Cash,
			InitialValue: init,
			FinalValue:   f.PortfolioValue,
			Profit:       profit,
			ReturnPct:    ret,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalValue.GreaterThan(out[j].FinalValue)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// DispositionSummary aggregates ranked traders sharing a disposition.
type DispositionSummary struct {
	Disposition model.Disposition `json:"disposition"`
	Traders     int               `json:"traders"`
	MeanValue   decimal.Decimal   `json:"mean_value"`
	MeanProfit  decimal.Decimal   `json:"mean_profit"`
	BestValue   decimal.Decimal   `json:"best_value"`
}

// SummarizeByDisposition returns one row per disposition present, in enum order.
func SummarizeByDisposition(ranked []RankedTrader) []DispositionSummary {
	type acc struct {
		n      int
		value  decimal.Decimal
		profit decimal.Decimal
		best   decimal.Decimal
	}
	by := make(map[model.Disposition]*acc)
	for _, r := range ranked {
		a, ok := by[r.Disposition]
		if !ok {
			a = &acc{best: r.FinalValue}
			by[r.Disposition] = a
		}
		a.n++
		a.value = a.value.Add(r.FinalValue)
		a.profit = a.profit.Add(r.Profit)
		if r.FinalValue.GreaterThan(a.best) {
			a.best = r.FinalValue
		}
	}

	var out []DispositionSummary
	for _, d := range model.Dispositions() {
		a, ok := by[d]
		if !ok {
			continue
		}
		n := decimal.NewFromInt(int64(a.n))
		out = append(out, DispositionSummary{
			Disposition: d,
			Traders:     a.n,
			MeanValue:   a.value.Div(n).Round(2),
			MeanProfit:  a.profit.Div(n).Round(2),
			BestValue:   a.best,
		})
	}
	return out
}

// Summary bundles every analysis of one run.
type Summary struct {
	Prices       PriceStats           `json:"prices"`
	Benchmark    Benchmark            `json:"benchmark"`
	Ranking      []RankedTrader       `json:"ranking"`
	Dispositions []DispositionSummary `json:"dispositions"`
}

// Summarize analyzes res. assets and cash are the per-trader starting balances used for the
// benchmark; floor is the market floor.
func Summarize(res *simulation.Result, assets int, cash decimal.Decimal, floor float64) Summary {
	ranked := RankTraders(res.Initial, res.Final)
	return Summary{
		Prices:       ComputePriceStats(res.History, floor),
		Benchmark:    BenchmarkResult(res, assets, cash),
		Ranking:      ranked,
		Dispositions: SummarizeByDisposition(ranked),
	}
}
