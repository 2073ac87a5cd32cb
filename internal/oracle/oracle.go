// Package oracle defines the decision function consulted once per trader per step, and
// its implementations: fixed answers, disposition rules, scripted replies, and live
// language models behind Ollama or an OpenAI-compatible endpoint.
//
// An oracle answers in free text. Interpreting that text is the engine's job
// (see model.ParseDecision); oracles only need to mention the chosen option number.
package oracle

import (
	"context"

	"agent-market/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Situation is the snapshot a trader decides on.
type Situation struct {
	Step     int
	TraderID uuid.UUID

	// PriceHistory holds every price so far, oldest first; the last entry is CurrentPrice.
	PriceHistory []float64
	CurrentPrice float64

	Disposition model.Disposition
	Assets      int
	Cash        decimal.Decimal
}

// PastPrices is the history before the current price.
func (s Situation) PastPrices() []float64 {
	if len(s.PriceHistory) == 0 {
		return nil
	}
	return s.PriceHistory[:len(s.PriceHistory)-1]
}

// Oracle maps a situation to a raw response naming one of the seven options.
type Oracle interface {
	Name() string
	Decide(ctx context.Context, s Situation) (string, error)
}

// Availability is implemented by oracles that depend on an external backend.
// Consumers type-assert: if a, ok := o.(Availability); ok && !a.Available() { ... }
type Availability interface {
	Available() bool
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, s Situation) (string, error)

func (f Func) Name() string { return "func" }

func (f Func) Decide(ctx context.Context, s Situation) (string, error) { return f(ctx, s) }
