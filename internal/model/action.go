package model

import "fmt"

// Action is one of the seven choices offered to a trader each step.
// The numeric value is the option number shown to the oracle.
type Action int

const (
	ActionBuy1 Action = iota + 1
	ActionBuy3
	ActionBuy5
	ActionSell1
	ActionSell3
	ActionSell5
	ActionHold
)

// Side is the direction of an action. Keep these values stable; they are intended for CSV output.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
	SideHold Side = "HOLD"
)

// Actions returns the seven actions in option order.
func Actions() []Action {
	return []Action{ActionBuy1, ActionBuy3, ActionBuy5, ActionSell1, ActionSell3, ActionSell5, ActionHold}
}

func (a Action) Valid() bool { return a >= ActionBuy1 && a <= ActionHold }

func (a Action) Side() Side {
	switch a {
	case ActionBuy1, ActionBuy3, ActionBuy5:
		return SideBuy
	case ActionSell1, ActionSell3, ActionSell5:
		return SideSell
	default:
		return SideHold
	}
}

// Quantity is the number of units the action trades; zero for hold.
func (a Action) Quantity() int {
	switch a {
	case ActionBuy1, ActionSell1:
		return 1
	case ActionBuy3, ActionSell3:
		return 3
	case ActionBuy5, ActionSell5:
		return 5
	default:
		return 0
	}
}

// Option is the digit the oracle answers with to select this action.
func (a Action) Option() int { return int(a) }

func (a Action) String() string {
	if !a.Valid() {
		return "UNKNOWN"
	}
	if a == ActionHold {
		return string(SideHold)
	}
	return fmt.Sprintf("%s_%d", a.Side(), a.Quantity())
}

// Label is the human wording used in prompts.
func (a Action) Label() string {
	switch a.Side() {
	case SideBuy:
		return fmt.Sprintf("Buy %d", a.Quantity())
	case SideSell:
		return fmt.Sprintf("Sell %d", a.Quantity())
	default:
		return "Hold your position"
	}
}

// Decision is the engine's interpretation of a raw oracle response.
type Decision struct {
	Action Action
	Raw    string
	// Ambiguous is set when the response names more than one distinct option.
	// The first option still wins; the flag exists so the response can be reviewed.
	Ambiguous bool
	// Options lists the distinct option digits found, in order of appearance.
	Options []int
}

// ParseDecision maps free-form oracle text to an action. The first trade digit (1-6)
// anywhere in the text is authoritative and surrounding text is ignored; a 7 never
// overrides a trade digit. Text naming 7 and no trade digit is an explicit hold.
// When no option digit is present the decision is ActionHold and the error is
// ErrUnrecognizedDecision; callers are expected to proceed with the hold.
func ParseDecision(raw string) (Decision, error) {
	d := Decision{Action: ActionHold, Raw: raw}
	seen := map[int]bool{}
	trade := 0
	for _, r := range raw {
		if r < '1' || r > '7' {
			continue
		}
		opt := int(r - '0')
		if seen[opt] {
			continue
		}
		seen[opt] = true
		d.Options = append(d.Options, opt)
		if trade == 0 && opt != int(ActionHold) {
			trade = opt
		}
	}
	if len(d.Options) == 0 {
		return d, fmt.Errorf("%w: %q", ErrUnrecognizedDecision, truncate(raw, 80))
	}
	if trade != 0 {
		d.Action = Action(trade)
	}
	d.Ambiguous = len(d.Options) > 1
	return d, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
