// Package simulation runs the discrete-time market: each step every trader is asked for a
// decision, the decisions are applied at the current price, and the market advances.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"agent-market/internal/logging"
	"agent-market/internal/market"
	"agent-market/internal/metrics"
	"agent-market/internal/model"
	"agent-market/internal/oracle"
)

// DefaultOracleTimeout bounds a single oracle call when Options.OracleTimeout is zero.
const DefaultOracleTimeout = 30 * time.Second

type Options struct {
	Oracle oracle.Oracle
	// OracleTimeout bounds each Decide call. Negative disables the bound.
	OracleTimeout time.Duration

	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Decisions *logging.DecisionLogger
}

// Engine owns one market and a fixed, ordered set of traders. It is not safe for concurrent use.
type Engine struct {
	market  *market.Market
	traders []*model.Trader
	oracle  oracle.Oracle
	timeout time.Duration

	logger    *slog.Logger
	metrics   *metrics.Metrics
	decisions *logging.DecisionLogger

	step          int
	initialPrices []float64
	initial       []TraderStatus
}

func New(m *market.Market, traders []*model.Trader, opts Options) (*Engine, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: market is nil", model.ErrInvalidConfiguration)
	}
	if len(traders) == 0 {
		return nil, fmt.Errorf("%w: at least one trader is required", model.ErrInvalidConfiguration)
	}
	if opts.Oracle == nil {
		return nil, fmt.Errorf("%w: oracle is nil", model.ErrInvalidConfiguration)
	}

	seen := make(map[uuid.UUID]struct{}, len(traders))
	for i, t := range traders {
		if t == nil {
			return nil, fmt.Errorf("%w: trader %d is nil", model.ErrInvalidConfiguration, i)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("trader %d: %w", i, err)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate trader id %s", model.ErrInvalidConfiguration, t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	timeout := opts.OracleTimeout
	if timeout == 0 {
		timeout = DefaultOracleTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	e := &Engine{
		market:        m,
		traders:       append([]*model.Trader(nil), traders...),
		oracle:        opts.Oracle,
		timeout:       timeout,
		logger:        logger,
		metrics:       opts.Metrics,
		decisions:     opts.Decisions,
		initialPrices: m.History(),
	}
	e.initial = e.Report()
	return e, nil
}

// CurrentPrice is the market's latest price.
func (e *Engine) CurrentPrice() float64 { return e.market.CurrentPrice() }

// History returns a copy of the market's price history.
func (e *Engine) History() []float64 { return e.market.History() }

// Traders returns the traders in iteration order. The slice is a copy; the traders are not.
func (e *Engine) Traders() []*model.Trader {
	return append([]*model.Trader(nil), e.traders...)
}

// StepsRun is the number of completed steps.
func (e *Engine) StepsRun() int { return e.step }

// Step runs one round. It fails only if ctx is already done; once started, a step always
// completes and the market always advances.
func (e *Engine) Step(ctx context.Context) (StepResult, error) {
	if err := ctx.Err(); err != nil {
		return StepResult{}, err
	}
	e.step++
	res := StepResult{Step: e.step, Turns: make([]TurnRecord, 0, len(e.traders))}

	buy, sell := 0, 0
	price := e.market.CurrentPrice()
	history := e.market.History()

	for i, t := range e.traders {
		rec := e.turn(ctx, i, t, price, history)
		if rec.Outcome == OutcomeAccepted {
			switch rec.Action.Side() {
			case model.SideBuy:
				buy += rec.Units
			case model.SideSell:
				sell += rec.Units
			}
		}
		res.Turns = append(res.Turns, rec)
	}

	// Counts are non-negative by construction.
	if err := e.market.RecordActivity(buy, sell); err != nil {
		return res, fmt.Errorf("step %d: %w", e.step, err)
	}
	upd := e.market.AdvancePrice()
	upd.Step = e.step

	res.BuyVolume = buy
	res.SellVolume = sell
	res.Price = upd

	e.metrics.ObserveStep(upd.Next, upd.Clamped)
	e.logger.Info("New price",
		"step", e.step,
		"price", upd.Next,
		"buy_volume", buy,
		"sell_volume", sell,
		"clamped", upd.Clamped,
	)
	return res, nil
}

func (e *Engine) turn(ctx context.Context, idx int, t *model.Trader, price float64, history []float64) TurnRecord {
	situation := oracle.Situation{
		Step:         e.step,
		TraderID:     t.ID,
		PriceHistory: append([]float64(nil), history...),
		CurrentPrice: price,
		Disposition:  t.Disposition,
		Assets:       t.Assets(),
		Cash:         t.Cash(),
	}

	rec := TurnRecord{
		Step:        e.step,
		TraderIndex: idx,
		TraderID:    t.ID,
		Disposition: t.Disposition,
		Price:       price,
		Action:      model.ActionHold,
	}

	raw, err := e.ask(ctx, situation)
	rec.Response = raw
	switch {
	case err != nil:
		rec.Outcome = OutcomeOracleError
		rec.Reason = err.Error()
		e.logger.Warn("oracle failed, holding", "step", e.step, "trader", t.ID, "error", err)
	default:
		e.apply(&rec, t, raw, price)
	}

	snap := t.Snapshot()
	rec.AssetsAfter = snap.Assets
	rec.CashAfter = snap.Cash

	e.metrics.ObserveTurn(string(rec.Action.Side()), string(rec.Outcome), rec.Units, rec.Ambiguous)
	e.decisions.Log(map[string]any{
		"step":        rec.Step,
		"trader":      rec.TraderID.String(),
		"disposition": string(rec.Disposition),
		"price":       rec.Price,
		"response":    rec.Response,
		"action":      rec.Action.String(),
		"outcome":     string(rec.Outcome),
		"reason":      rec.Reason,
		"ambiguous":   rec.Ambiguous,
		"assets":      rec.AssetsAfter,
		"cash":        rec.CashAfter.String(),
	})
	return rec
}

func (e *Engine) ask(ctx context.Context, s oracle.Situation) (string, error) {
	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := e.oracle.Decide(callCtx, s)
	e.metrics.ObserveOracle(e.oracle.Name(), time.Since(start), err)
	if err != nil {
		return raw, fmt.Errorf("%s: %w", e.oracle.Name(), err)
	}
	e.logger.Log(ctx, logging.LevelTrace, "oracle response", "step", s.Step, "trader", s.TraderID, "response", raw)
	return raw, nil
}

func (e *Engine) apply(rec *TurnRecord, t *model.Trader, raw string, price float64) {
	dec, err := model.ParseDecision(raw)
	rec.Action = dec.Action
	rec.Ambiguous = dec.Ambiguous
	if dec.Ambiguous {
		e.logger.Warn("ambiguous oracle response",
			"step", e.step, "trader", t.ID, "options", dec.Options, "action", dec.Action.String())
	}
	if err != nil {
		rec.Outcome = OutcomeUnrecognized
		rec.Reason = err.Error()
		e.logger.Info("unrecognized oracle response, holding", "step", e.step, "trader", t.ID, "error", err)
		return
	}

	units, err := t.Apply(dec.Action, price)
	switch {
	case err != nil:
		rec.Outcome = OutcomeRejected
		rec.Reason = err.Error()
		e.logger.Debug(fmt.Sprintf("Trader %s could not %s", t.ID, lowerLabel(dec.Action)),
			"step", e.step, "reason", err)
	case dec.Action == model.ActionHold:
		rec.Outcome = OutcomeHold
		e.logger.Debug(fmt.Sprintf("Trader %s held", t.ID), "step", e.step)
	default:
		rec.Outcome = OutcomeAccepted
		rec.Units = units
		verb := "bought"
		if dec.Action.Side() == model.SideSell {
			verb = "sold"
		}
		e.logger.Debug(fmt.Sprintf("Trader %s %s %d", t.ID, verb, units), "step", e.step, "price", price)
	}
}

// Run calls Step n times in order. If ctx ends first, it returns the partial result with
// Interrupted set together with the context error.
func (e *Engine) Run(ctx context.Context, n int) (*Result, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: step count must be >= 0, got %d", model.ErrInvalidConfiguration, n)
	}

	res := &Result{
		Initial:       e.initial,
		InitialPrices: append([]float64(nil), e.initialPrices...),
		Turns:         make([]TurnRecord, 0, n*len(e.traders)),
		Prices:        make([]market.PriceUpdate, 0, n),
	}

	var runErr error
	for i := 0; i < n; i++ {
		sr, err := e.Step(ctx)
		if err != nil {
			runErr = err
			break
		}
		res.Steps++
		res.Turns = append(res.Turns, sr.Turns...)
		res.Prices = append(res.Prices, sr.Price)
	}

	res.History = e.market.History()
	res.Final = e.Report()

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			res.Interrupted = true
		}
		e.metrics.ObserveSimulation("interrupted")
		return res, fmt.Errorf("run stopped after %d of %d steps: %w", res.Steps, n, runErr)
	}
	e.metrics.ObserveSimulation("completed")
	return res, nil
}

// Report values every trader at the current price, in trader order.
func (e *Engine) Report() []TraderStatus {
	price := e.market.CurrentPrice()
	out := make([]TraderStatus, 0, len(e.traders))
	for _, t := range e.traders {
		snap := t.Snapshot()
		out = append(out, TraderStatus{
			ID:             t.ID,
			Disposition:    t.Disposition,
			Assets:         snap.Assets,
			Cash:           snap.Cash,
			PortfolioValue: t.PortfolioValue(price),
		})
	}
	return out
}

func lowerLabel(a model.Action) string {
	switch a.Side() {
	case model.SideBuy:
		return fmt.Sprintf("buy %d", a.Quantity())
	case model.SideSell:
		return fmt.Sprintf("sell %d", a.Quantity())
	default:
		return "hold"
	}
}
