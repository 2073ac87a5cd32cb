package model

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Holdings is a point-in-time copy of a trader's balances.
type Holdings struct {
	Assets int
	Cash   decimal.Decimal
}

// Trader is one market participant. Balances are private so they can only change
// through Buy and Sell, which never leave either balance negative.
type Trader struct {
	ID          uuid.UUID
	Disposition Disposition

	assets int
	cash   decimal.Decimal
}

func NewTrader(id uuid.UUID, disposition Disposition, assets int, cash decimal.Decimal) (*Trader, error) {
	t := &Trader{
		ID:          id,
		Disposition: disposition,
		assets:      assets,
		cash:        cash,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trader) Validate() error {
	if t.ID == uuid.Nil {
		return fmt.Errorf("%w: trader id is required", ErrInvalidConfiguration)
	}
	if !t.Disposition.Valid() {
		return fmt.Errorf("%w: unknown disposition %q", ErrInvalidConfiguration, t.Disposition)
	}
	if t.assets < 0 {
		return fmt.Errorf("%w: initial assets must be >= 0", ErrInvalidConfiguration)
	}
	if t.cash.IsNegative() {
		return fmt.Errorf("%w: initial cash must be >= 0", ErrInvalidConfiguration)
	}
	return nil
}

func (t *Trader) Assets() int           { return t.assets }
func (t *Trader) Cash() decimal.Decimal { return t.cash }

func (t *Trader) Snapshot() Holdings {
	return Holdings{Assets: t.assets, Cash: t.cash}
}

// Buy acquires amount units at unitPrice. It is all-or-nothing: if cash cannot cover
// amount*unitPrice the order is rejected with ErrInsufficientFunds and nothing changes.
func (t *Trader) Buy(amount int, unitPrice float64) error {
	cost, err := orderValue(amount, unitPrice)
	if err != nil {
		return err
	}
	if t.cash.LessThan(cost) {
		return fmt.Errorf("%w: buy %d costs %s, cash is %s", ErrInsufficientFunds, amount, cost.String(), t.cash.String())
	}
	t.assets += amount
	t.cash = t.cash.Sub(cost)
	return nil
}

// Sell disposes of amount units at unitPrice. It is all-or-nothing: selling more than
// is held is rejected with ErrInsufficientHoldings and nothing changes.
func (t *Trader) Sell(amount int, unitPrice float64) error {
	proceeds, err := orderValue(amount, unitPrice)
	if err != nil {
		return err
	}
	if t.assets < amount {
		return fmt.Errorf("%w: sell %d, holding %d", ErrInsufficientHoldings, amount, t.assets)
	}
	t.assets -= amount
	t.cash = t.cash.Add(proceeds)
	return nil
}

// Hold is a no-op. It exists so every action maps to a trader operation.
func (t *Trader) Hold() {}

// PortfolioValue is cash + assets*unitPrice.
func (t *Trader) PortfolioValue(unitPrice float64) decimal.Decimal {
	return t.cash.Add(decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(t.assets))))
}

// Apply executes an action at unitPrice and returns the units traded on success.
func (t *Trader) Apply(a Action, unitPrice float64) (int, error) {
	switch a.Side() {
	case SideBuy:
		if err := t.Buy(a.Quantity(), unitPrice); err != nil {
			return 0, err
		}
		return a.Quantity(), nil
	case SideSell:
		if err := t.Sell(a.Quantity(), unitPrice); err != nil {
			return 0, err
		}
		return a.Quantity(), nil
	default:
		t.Hold()
		return 0, nil
	}
}

func orderValue(amount int, unitPrice float64) (decimal.Decimal, error) {
	if amount <= 0 || !(unitPrice > 0) || math.IsInf(unitPrice, 0) {
		return decimal.Zero, ErrInvalidOrder
	}
	return decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(amount))), nil
}
