package simulation

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"agent-market/internal/market"
	"agent-market/internal/metrics"
	"agent-market/internal/model"
	"agent-market/internal/oracle"
)

var seedPrices = []float64{9.5, 9.8, 10, 10.4, 10.1}

func newTrader(t *testing.T, d model.Disposition, assets int, cash string) *model.Trader {
	t.Helper()
	tr, err := model.NewTrader(uuid.New(), d, assets, decimal.RequireFromString(cash))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tr
}

func newEngine(t *testing.T, traders []*model.Trader, o oracle.Oracle, noise market.NoiseSource) *Engine {
	t.Helper()
	m, err := market.New(seedPrices, market.DefaultParams(), noise)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, err := New(m, traders, Options{Oracle: o})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNewValidates(t *testing.T) {
	m, err := market.New(seedPrices, market.DefaultParams(), market.FixedNoise(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr := newTrader(t, model.DispositionCautious, 3, "70")

	tests := []struct {
		name    string
		market  *market.Market
		traders []*model.Trader
		oracle  oracle.Oracle
	}{
		{"nil market", nil, []*model.Trader{tr}, oracle.Hold{}},
		{"no traders", m, nil, oracle.Hold{}},
		{"nil trader", m, []*model.Trader{nil}, oracle.Hold{}},
		{"nil oracle", m, []*model.Trader{tr}, nil},
		{"duplicate id", m, []*model.Trader{tr, tr}, oracle.Hold{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.market, tt.traders, Options{Oracle: tt.oracle})
			if !errors.Is(err, model.ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestRunWithHoldOracleLeavesBalancesUnchanged(t *testing.T) {
	traders, err := NewTraders(Population{Count: 20, Assets: 3, Cash: decimal.NewFromInt(70), Seed: 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := newEngine(t, traders, oracle.Hold{}, market.NewUniformNoise(market.DefaultNoiseAmplitude, 42))

	res, err := e.Run(context.Background(), 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Steps != 40 {
		t.Errorf("steps = %d, want 40", res.Steps)
	}
	if len(res.History) != len(seedPrices)+40 {
		t.Errorf("history length = %d, want %d", len(res.History), len(seedPrices)+40)
	}
	for i, p := range res.History[len(seedPrices):] {
		if p < market.DefaultFloor {
			t.Errorf("price %d = %v below floor", i, p)
		}
	}
	for _, s := range res.Final {
		if s.Assets != 3 || !s.Cash.Equal(decimal.NewFromInt(70)) {
			t.Errorf("trader %s changed: assets=%d cash=%s", s.ID, s.Assets, s.Cash)
		}
	}
	if got := res.Counts()[OutcomeHold]; got != 20*40 {
		t.Errorf("hold turns = %d, want %d", got, 20*40)
	}
	for _, u := range res.Prices {
		if u.BuyVolume != 0 || u.SellVolume != 0 || u.Delta != 0 {
			t.Errorf("step %d had volume: %+v", u.Step, u)
		}
	}
}

func TestBuyThenOversell(t *testing.T) {
	tr := newTrader(t, model.DispositionAggressive, 3, "70")
	script := oracle.NewScripted("1", "6")
	e := newEngine(t, []*model.Trader{tr}, script, market.FixedNoise(0))

	first, err := e.Step(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	turn := first.Turns[0]
	if turn.Outcome != OutcomeAccepted || turn.Action != model.ActionBuy1 || turn.Units != 1 {
		t.Fatalf("unexpected first turn: %+v", turn)
	}
	if tr.Assets() != 4 || !tr.Cash().Equal(decimal.RequireFromString("59.9")) {
		t.Fatalf("after buy: assets=%d cash=%s, want 4 59.9", tr.Assets(), tr.Cash())
	}
	if first.BuyVolume != 1 || first.SellVolume != 0 {
		t.Errorf("volumes = %d/%d, want 1/0", first.BuyVolume, first.SellVolume)
	}
	if !almostEqual(first.Price.Next, 10.2) {
		t.Errorf("price after buy = %v, want 10.2", first.Price.Next)
	}

	second, err := e.Step(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	turn = second.Turns[0]
	if turn.Outcome != OutcomeRejected || turn.Action != model.ActionSell5 {
		t.Fatalf("unexpected second turn: %+v", turn)
	}
	if !strings.Contains(turn.Reason, model.ErrInsufficientHoldings.Error()) {
		t.Errorf("reason = %q", turn.Reason)
	}
	if tr.Assets() != 4 || !tr.Cash().Equal(decimal.RequireFromString("59.9")) {
		t.Errorf("after rejected sell: assets=%d cash=%s, want 4 59.9", tr.Assets(), tr.Cash())
	}
	if second.SellVolume != 0 || !almostEqual(second.Price.Next, first.Price.Next) {
		t.Errorf("rejected sell moved the market: %+v", second.Price)
	}
}

func TestUnrecognizedResponseHolds(t *testing.T) {
	tr := newTrader(t, model.DispositionOptimistic, 3, "70")
	e := newEngine(t, []*model.Trader{tr}, oracle.NewScripted("I would rather wait and see."), market.FixedNoise(0))

	res, err := e.Step(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	turn := res.Turns[0]
	if turn.Outcome != OutcomeUnrecognized || turn.Action != model.ActionHold {
		t.Errorf("unexpected turn: %+v", turn)
	}
	if tr.Assets() != 3 || !tr.Cash().Equal(decimal.NewFromInt(70)) {
		t.Errorf("balances changed: %d %s", tr.Assets(), tr.Cash())
	}
	if !almostEqual(res.Price.Next, 10.1) {
		t.Errorf("price = %v, want 10.1", res.Price.Next)
	}
}

func TestCountersIncludeOnlyAcceptedOrders(t *testing.T) {
	rich := newTrader(t, model.DispositionAggressive, 0, "70")
	poor := newTrader(t, model.DispositionAggressive, 0, "10")
	seller := newTrader(t, model.DispositionPessimistic, 1, "0")
	// buy 5, buy 5, sell 3
	e := newEngine(t, []*model.Trader{rich, poor, seller}, oracle.NewScripted("3", "3", "5"), market.FixedNoise(0))

	res, err := e.Step(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Outcome{OutcomeAccepted, OutcomeRejected, OutcomeRejected}
	for i, w := range want {
		if res.Turns[i].Outcome != w {
			t.Errorf("turn %d outcome = %s, want %s", i, res.Turns[i].Outcome, w)
		}
	}
	if res.BuyVolume != 5 || res.SellVolume != 0 {
		t.Errorf("volumes = %d/%d, want 5/0", res.BuyVolume, res.SellVolume)
	}
	if !almostEqual(res.Price.Delta, 0.5) {
		t.Errorf("delta = %v, want 0.5", res.Price.Delta)
	}
	if !rich.Cash().Equal(decimal.RequireFromString("19.5")) || rich.Assets() != 5 {
		t.Errorf("rich trader = %d %s, want 5 19.5", rich.Assets(), rich.Cash())
	}
}

func TestAmbiguousResponseUsesFirstOption(t *testing.T) {
	tr := newTrader(t, model.DispositionCautious, 3, "70")
	e := newEngine(t, []*model.Trader{tr}, oracle.NewScripted("4 or maybe 1"), market.FixedNoise(0))

	res, err := e.Step(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	turn := res.Turns[0]
	if !turn.Ambiguous || turn.Action != model.ActionSell1 || turn.Outcome != OutcomeAccepted {
		t.Errorf("unexpected turn: %+v", turn)
	}
	if tr.Assets() != 2 {
		t.Errorf("assets = %d, want 2", tr.Assets())
	}
}

func TestOracleTimeoutFallsBackToHold(t *testing.T) {
	slow := oracle.Func(func(ctx context.Context, s oracle.Situation) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	tr := newTrader(t, model.DispositionCautious, 3, "70")
	m, err := market.New(seedPrices, market.DefaultParams(), market.FixedNoise(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, err := New(m, []*model.Trader{tr}, Options{Oracle: slow, OracleTimeout: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := e.Step(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	turn := res.Turns[0]
	if turn.Outcome != OutcomeOracleError || turn.Action != model.ActionHold {
		t.Errorf("unexpected turn: %+v", turn)
	}
	if !strings.Contains(turn.Reason, context.DeadlineExceeded.Error()) {
		t.Errorf("reason = %q", turn.Reason)
	}
	if m.Len() != len(seedPrices)+1 {
		t.Errorf("market did not advance")
	}
}

func TestSituationCarriesHistoryAndBalances(t *testing.T) {
	tr := newTrader(t, model.DispositionPessimistic, 3, "70")
	script := oracle.NewScripted("7")
	e := newEngine(t, []*model.Trader{tr}, script, market.FixedNoise(0))

	if _, err := e.Run(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if script.CallCount() != 2 {
		t.Fatalf("calls = %d, want 2", script.CallCount())
	}
	first := script.Calls[0]
	if len(first.PriceHistory) != len(seedPrices) || first.CurrentPrice != 10.1 {
		t.Errorf("first situation history=%v current=%v", first.PriceHistory, first.CurrentPrice)
	}
	if first.Disposition != model.DispositionPessimistic || first.Assets != 3 || !first.Cash.Equal(decimal.NewFromInt(70)) {
		t.Errorf("first situation balances: %+v", first)
	}
	if first.Step != 1 || script.Calls[1].Step != 2 {
		t.Errorf("steps = %d, %d", first.Step, script.Calls[1].Step)
	}
	if len(script.Calls[1].PriceHistory) != len(seedPrices)+1 {
		t.Errorf("second situation history length = %d", len(script.Calls[1].PriceHistory))
	}
}

func TestSituationHistoryIsPerTurnCopy(t *testing.T) {
	a := newTrader(t, model.DispositionCautious, 3, "70")
	b := newTrader(t, model.DispositionCautious, 3, "70")
	var seen []float64
	vandal := oracle.Func(func(ctx context.Context, s oracle.Situation) (string, error) {
		seen = append(seen, s.PriceHistory[0])
		for i := range s.PriceHistory {
			s.PriceHistory[i] = -1
		}
		return "7", nil
	})
	e := newEngine(t, []*model.Trader{a, b}, vandal, market.FixedNoise(0))

	if _, err := e.Step(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 2 || seen[0] != 9.5 || seen[1] != 9.5 {
		t.Errorf("history seen by traders = %v, want 9.5 for both", seen)
	}
	h := e.History()
	if h[0] != 9.5 || len(h) != len(seedPrices)+1 {
		t.Errorf("market history changed: %v", h)
	}
	h[0] = -1
	if e.History()[0] != 9.5 || e.CurrentPrice() != 10.1 {
		t.Errorf("engine history is not a copy: %v", e.History())
	}
}

func TestRunIsDeterministic(t *testing.T) {
	run := func() *Result {
		traders, err := NewTraders(Population{Count: 10, Assets: 3, Cash: decimal.NewFromInt(70), Seed: 7})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		e := newEngine(t, traders, oracle.NewRule(oracle.RuleParams{}), market.NewUniformNoise(3, 7))
		res, err := e.Run(context.Background(), 25)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return res
	}

	a, b := run(), run()
	if len(a.History) != len(b.History) {
		t.Fatalf("history lengths differ")
	}
	for i := range a.History {
		if a.History[i] != b.History[i] {
			t.Fatalf("history differs at %d: %v vs %v", i, a.History[i], b.History[i])
		}
	}
	for i := range a.Final {
		if a.Final[i].ID != b.Final[i].ID || !a.Final[i].Cash.Equal(b.Final[i].Cash) || a.Final[i].Assets != b.Final[i].Assets {
			t.Fatalf("trader %d differs: %+v vs %+v", i, a.Final[i], b.Final[i])
		}
	}
}

func TestRunNeverBreaksBalanceInvariants(t *testing.T) {
	traders, err := NewTraders(Population{Count: 20, Assets: 3, Cash: decimal.NewFromInt(70), Seed: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := newEngine(t, traders, oracle.NewScripted("3", "6", "2", "5", "1", "4", "7"), market.NewUniformNoise(3, 3))
	res, err := e.Run(context.Background(), 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, turn := range res.Turns {
		if turn.AssetsAfter < 0 || turn.CashAfter.IsNegative() {
			t.Fatalf("negative balance after turn %+v", turn)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	tr := newTrader(t, model.DispositionCautious, 3, "70")
	e := newEngine(t, []*model.Trader{tr}, oracle.Hold{}, market.FixedNoise(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := e.Run(ctx, 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res == nil || res.Steps != 0 || !res.Interrupted {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.History) != len(seedPrices) {
		t.Errorf("history grew on a cancelled run")
	}
}

func TestRunRejectsNegativeSteps(t *testing.T) {
	tr := newTrader(t, model.DispositionCautious, 3, "70")
	e := newEngine(t, []*model.Trader{tr}, oracle.Hold{}, market.FixedNoise(0))
	if _, err := e.Run(context.Background(), -1); !errors.Is(err, model.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestReport(t *testing.T) {
	a := newTrader(t, model.DispositionCautious, 3, "70")
	b := newTrader(t, model.DispositionAggressive, 0, "5.5")
	e := newEngine(t, []*model.Trader{a, b}, oracle.Hold{}, market.FixedNoise(0))

	report := e.Report()
	if len(report) != 2 || report[0].ID != a.ID || report[1].ID != b.ID {
		t.Fatalf("report order wrong: %+v", report)
	}
	if !report[0].PortfolioValue.Equal(decimal.RequireFromString("100.3")) {
		t.Errorf("portfolio value = %s, want 100.3", report[0].PortfolioValue)
	}
	if !report[1].PortfolioValue.Equal(decimal.RequireFromString("5.5")) {
		t.Errorf("portfolio value = %s, want 5.5", report[1].PortfolioValue)
	}
}

func TestMetricsFollowTurns(t *testing.T) {
	tr := newTrader(t, model.DispositionAggressive, 3, "70")
	m, err := market.New(seedPrices, market.DefaultParams(), market.FixedNoise(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mx := metrics.New()
	e, err := New(m, []*model.Trader{tr}, Options{Oracle: oracle.NewScripted("2", "6", "x"), Metrics: mx})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.Run(context.Background(), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := testutil.ToFloat64(mx.StepsTotal); got != 3 {
		t.Errorf("steps = %v, want 3", got)
	}
	if got := testutil.ToFloat64(mx.UnitsTraded.WithLabelValues("BUY")); got != 3 {
		t.Errorf("bought units = %v, want 3", got)
	}
	if got := testutil.ToFloat64(mx.OrdersTotal.WithLabelValues("SELL", "accepted")); got != 1 {
		t.Errorf("accepted sells = %v, want 1", got)
	}
	if got := testutil.ToFloat64(mx.OrdersTotal.WithLabelValues("HOLD", "unrecognized")); got != 1 {
		t.Errorf("unrecognized = %v, want 1", got)
	}
}
