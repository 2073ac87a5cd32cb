package simulation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"agent-market/internal/market"
	"agent-market/internal/model"
)

// Outcome classifies how a trader turn ended. Keep these values stable; they are written to CSV.
type Outcome string

const (
	OutcomeAccepted     Outcome = "accepted"
	OutcomeRejected     Outcome = "rejected"
	OutcomeHold         Outcome = "hold"
	OutcomeUnrecognized Outcome = "unrecognized"
	OutcomeOracleError  Outcome = "oracle_error"
)

// TurnRecord is one row of per-turn output: what a trader was asked, what it answered,
// and where its balances ended up.
type TurnRecord struct {
	Step        int
	TraderIndex int
	TraderID    uuid.UUID
	Disposition model.Disposition

	Price    float64
	Response string

	Action    model.Action
	Outcome   Outcome
	Reason    string
	Ambiguous bool
	Units     int

	AssetsAfter int
	CashAfter   decimal.Decimal
}

// StepResult summarizes one round: every turn in trader order plus the price update it caused.
type StepResult struct {
	Step       int
	Turns      []TurnRecord
	BuyVolume  int
	SellVolume int
	Price      market.PriceUpdate
}

// TraderStatus is a read-only view of one trader valued at a given price.
type TraderStatus struct {
	ID             uuid.UUID
	Disposition    model.Disposition
	Assets         int
	Cash           decimal.Decimal
	PortfolioValue decimal.Decimal
}

// Result is everything a run produced.
type Result struct {
	Steps int
	// Initial is the report taken before the first step.
	Initial []TraderStatus
	Final   []TraderStatus

	InitialPrices []float64
	History       []float64

	Turns  []TurnRecord
	Prices []market.PriceUpdate

	// Interrupted is set when the context ended the run early.
	Interrupted bool
}

// FinalPrice is the last price in the history.
func (r *Result) FinalPrice() float64 {
	if len(r.History) == 0 {
		return 0
	}
	return r.History[len(r.History)-1]
}

// Counts tallies turns by outcome.
func (r *Result) Counts() map[Outcome]int {
	out := make(map[Outcome]int)
	for _, t := range r.Turns {
		out[t.Outcome]++
	}
	return out
}
