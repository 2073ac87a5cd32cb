package oracle

import (
	"context"
	"strconv"

	"agent-market/internal/model"

	"github.com/shopspring/decimal"
)

// RuleParams tune the rule-based oracle.
type RuleParams struct {
	// Window is how many past prices form the reference mean. Default 5.
	Window int
	// Band is the relative distance from the mean treated as "cheap" or "dear". Default 0.03.
	Band float64
}

// Rule is a deterministic stand-in for a language model. Each disposition reacts to how
// the current price compares with the recent mean, limited by what the trader can afford
// or has to sell.
type Rule struct {
	Params RuleParams
}

func NewRule(p RuleParams) *Rule {
	if p.Window <= 0 {
		p.Window = 5
	}
	if p.Band <= 0 {
		p.Band = 0.03
	}
	return &Rule{Params: p}
}

func (r *Rule) Name() string { return "rule" }

func (r *Rule) Decide(ctx context.Context, s Situation) (string, error) {
	return strconv.Itoa(r.choose(s).Option()), nil
}

func (r *Rule) choose(s Situation) model.Action {
	ref := r.reference(s)
	price := s.CurrentPrice
	rising := price > ref*(1+r.Params.Band)
	falling := price < ref*(1-r.Params.Band)

	switch s.Disposition {
	case model.DispositionAggressive:
		if falling && s.Assets >= 3 {
			return model.ActionSell3
		}
		return largestBuy(s, model.ActionBuy5, model.ActionBuy3, model.ActionBuy1)
	case model.DispositionOptimistic:
		if !falling {
			return largestBuy(s, model.ActionBuy3, model.ActionBuy1)
		}
		return model.ActionHold
	case model.DispositionCautious:
		if falling {
			return largestBuy(s, model.ActionBuy1)
		}
		if rising && s.Assets >= 1 {
			return model.ActionSell1
		}
		return model.ActionHold
	case model.DispositionRiskAverse:
		if !rising && s.Assets >= 1 && price < ref {
			return model.ActionSell1
		}
		return model.ActionHold
	case model.DispositionPessimistic:
		switch {
		case s.Assets >= 5 && falling:
			return model.ActionSell5
		case s.Assets >= 3:
			return model.ActionSell3
		case s.Assets >= 1:
			return model.ActionSell1
		}
		return model.ActionHold
	default:
		return model.ActionHold
	}
}

// reference is the mean of up to Window prices before the current one.
func (r *Rule) reference(s Situation) float64 {
	past := s.PastPrices()
	if len(past) == 0 {
		return s.CurrentPrice
	}
	if len(past) > r.Params.Window {
		past = past[len(past)-r.Params.Window:]
	}
	sum := 0.0
	for _, p := range past {
		sum += p
	}
	return sum / float64(len(past))
}

// largestBuy picks the first candidate the trader can pay for, or hold.
func largestBuy(s Situation, candidates ...model.Action) model.Action {
	price := decimal.NewFromFloat(s.CurrentPrice)
	for _, a := range candidates {
		cost := price.Mul(decimal.NewFromInt(int64(a.Quantity())))
		if s.Cash.GreaterThanOrEqual(cost) {
			return a
		}
	}
	return model.ActionHold
}
