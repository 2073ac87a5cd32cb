package model

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestTrader(t *testing.T, assets int, cash float64) *Trader {
	t.Helper()
	tr, err := NewTrader(uuid.New(), DispositionCautious, assets, decimal.NewFromFloat(cash))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tr
}

func TestNewTraderValidation(t *testing.T) {
	tests := []struct {
		name        string
		id          uuid.UUID
		disposition Disposition
		assets      int
		cash        float64
		wantErr     bool
	}{
		{"valid", uuid.New(), DispositionAggressive, 3, 70, false},
		{"zero balances", uuid.New(), DispositionPessimistic, 0, 0, false},
		{"nil id", uuid.Nil, DispositionAggressive, 3, 70, true},
		{"unknown disposition", uuid.New(), Disposition("Reckless"), 3, 70, true},
		{"negative assets", uuid.New(), DispositionAggressive, -1, 70, true},
		{"negative cash", uuid.New(), DispositionAggressive, 3, -0.01, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTrader(tt.id, tt.disposition, tt.assets, decimal.NewFromFloat(tt.cash))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTrader() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestTraderBuySellScenario(t *testing.T) {
	// Market seeded with [9.5, 9.8, 10, 10.4, 10.1]; the trader trades at the last price.
	tr := newTestTrader(t, 3, 70)

	if err := tr.Buy(1, 10.1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Assets() != 4 {
		t.Errorf("expected assets 4, got %d", tr.Assets())
	}
	if !tr.Cash().Equal(decimal.RequireFromString("59.9")) {
		t.Errorf("expected cash 59.9, got %s", tr.Cash())
	}

	err := tr.Sell(5, 10.1)
	if !errors.Is(err, ErrInsufficientHoldings) {
		t.Fatalf("expected ErrInsufficientHoldings, got %v", err)
	}
	if tr.Assets() != 4 {
		t.Errorf("expected assets unchanged at 4, got %d", tr.Assets())
	}
	if !tr.Cash().Equal(decimal.RequireFromString("59.9")) {
		t.Errorf("expected cash unchanged at 59.9, got %s", tr.Cash())
	}
}

func TestTraderBuyInsufficientFunds(t *testing.T) {
	tr := newTestTrader(t, 0, 20)
	err := tr.Buy(3, 10)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if tr.Assets() != 0 || !tr.Cash().Equal(decimal.NewFromInt(20)) {
		t.Errorf("state changed on rejected buy: %+v", tr.Snapshot())
	}

	// Exactly affordable is accepted.
	if err := tr.Buy(2, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tr.Cash().IsZero() {
		t.Errorf("expected zero cash, got %s", tr.Cash())
	}
}

func TestTraderInvalidOrder(t *testing.T) {
	tr := newTestTrader(t, 3, 70)
	cases := []struct {
		amount int
		price  float64
	}{
		{0, 10}, {-1, 10}, {1, 0}, {1, -5},
	}
	for _, c := range cases {
		if err := tr.Buy(c.amount, c.price); !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("Buy(%d, %v): expected ErrInvalidOrder, got %v", c.amount, c.price, err)
		}
		if err := tr.Sell(c.amount, c.price); !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("Sell(%d, %v): expected ErrInvalidOrder, got %v", c.amount, c.price, err)
		}
	}
	if tr.Assets() != 3 || !tr.Cash().Equal(decimal.NewFromInt(70)) {
		t.Errorf("state changed on invalid orders: %+v", tr.Snapshot())
	}
}

func TestTraderRoundTripRestoresBalances(t *testing.T) {
	prices := []float64{1, 9.5, 10.1, 10.4, 3.3333333333, 17.77}
	for _, p := range prices {
		for _, amount := range []int{1, 3, 5} {
			tr := newTestTrader(t, 3, 70)
			before := tr.Snapshot()
			if err := tr.Buy(amount, p); err != nil {
				continue
			}
			if err := tr.Sell(amount, p); err != nil {
				t.Fatalf("sell after buy failed: %v", err)
			}
			after := tr.Snapshot()
			if after.Assets != before.Assets || !after.Cash.Equal(before.Cash) {
				t.Errorf("round trip at %v x%d: before %+v after %+v", p, amount, before, after)
			}
		}
	}
}

func TestTraderBalancesNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tr := newTestTrader(t, 3, 70)
	for i := 0; i < 5000; i++ {
		amount := rng.Intn(7) + 1
		price := 1 + rng.Float64()*30
		if rng.Intn(2) == 0 {
			_ = tr.Buy(amount, price)
		} else {
			_ = tr.Sell(amount, price)
		}
		if tr.Assets() < 0 || tr.Cash().IsNegative() {
			t.Fatalf("negative balance after op %d: %+v", i, tr.Snapshot())
		}
	}
}

func TestTraderApply(t *testing.T) {
	tr := newTestTrader(t, 3, 70)

	n, err := tr.Apply(ActionBuy3, 10)
	if err != nil || n != 3 {
		t.Fatalf("Apply(buy 3) = %d, %v", n, err)
	}
	n, err = tr.Apply(ActionSell5, 10)
	if err != nil || n != 5 {
		t.Fatalf("Apply(sell 5) = %d, %v", n, err)
	}
	n, err = tr.Apply(ActionHold, 10)
	if err != nil || n != 0 {
		t.Fatalf("Apply(hold) = %d, %v", n, err)
	}
	n, err = tr.Apply(ActionSell1, 10)
	if !errors.Is(err, ErrInsufficientHoldings) || n != 0 {
		t.Fatalf("Apply(sell 1) with no holdings = %d, %v", n, err)
	}
}

func TestPortfolioValue(t *testing.T) {
	tr := newTestTrader(t, 3, 70)
	got := tr.PortfolioValue(10.1)
	if !got.Equal(decimal.RequireFromString("100.3")) {
		t.Errorf("expected 100.3, got %s", got)
	}
	if tr.Assets() != 3 || !tr.Cash().Equal(decimal.NewFromInt(70)) {
		t.Errorf("PortfolioValue mutated state")
	}
}
