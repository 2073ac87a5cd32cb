// Package market owns the asset's price history and turns each step's aggregate
// buy/sell volume into the next price.
package market

import (
	"errors"
	"fmt"
	"math"

	"agent-market/internal/model"
)

const (
	DefaultSensitivity    = 0.1
	DefaultNoiseAmplitude = 3.0
	DefaultFloor          = 1.0
)

// Params are the fixed coefficients of the price rule:
//
//	next = max(Floor, last + (buy - sell)*Sensitivity + noise)
type Params struct {
	Sensitivity float64
	Floor       float64
}

func DefaultParams() Params {
	return Params{Sensitivity: DefaultSensitivity, Floor: DefaultFloor}
}

func (p Params) Validate() error {
	if p.Sensitivity < 0 || math.IsNaN(p.Sensitivity) || math.IsInf(p.Sensitivity, 0) {
		return errors.New("sensitivity must be a finite value >= 0")
	}
	if !(p.Floor > 0) || math.IsInf(p.Floor, 0) {
		return errors.New("floor must be a finite value > 0")
	}
	return nil
}

// PriceUpdate records how one step's price was formed.
type PriceUpdate struct {
	// Step is filled in by the engine; the market does not count steps.
	Step       int
	BuyVolume  int
	SellVolume int
	Previous   float64
	Delta      float64
	Noise      float64
	Next       float64
	// Clamped is true when the raw price fell below the floor.
	Clamped bool
}

// Market is mutated only by RecordActivity and AdvancePrice, both called by the engine
// once per step. It is not safe for concurrent use.
type Market struct {
	params  Params
	noise   NoiseSource
	history []float64

	buyVolume  int
	sellVolume int
}

// New seeds the history with initialPrices. The seed prices are taken as given;
// the floor applies to every price appended afterwards.
func New(initialPrices []float64, params Params, noise NoiseSource) (*Market, error) {
	if len(initialPrices) == 0 {
		return nil, fmt.Errorf("%w: initial prices must not be empty", model.ErrInvalidConfiguration)
	}
	for i, p := range initialPrices {
		if !(p > 0) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w: initial price %d must be a finite value > 0, got %v", model.ErrInvalidConfiguration, i, p)
		}
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidConfiguration, err)
	}
	if noise == nil {
		return nil, fmt.Errorf("%w: noise source is required", model.ErrInvalidConfiguration)
	}
	history := make([]float64, len(initialPrices))
	copy(history, initialPrices)
	return &Market{
		params:  params,
		noise:   noise,
		history: history,
	}, nil
}

func (m *Market) Params() Params { return m.params }

// RecordActivity adds executed volume to the step that is about to close.
func (m *Market) RecordActivity(buyVolume, sellVolume int) error {
	if buyVolume < 0 || sellVolume < 0 {
		return fmt.Errorf("%w: volumes must be >= 0, got buy=%d sell=%d", model.ErrInvalidConfiguration, buyVolume, sellVolume)
	}
	m.buyVolume += buyVolume
	m.sellVolume += sellVolume
	return nil
}

// Volumes returns the volume recorded since the last AdvancePrice.
func (m *Market) Volumes() (buy, sell int) {
	return m.buyVolume, m.sellVolume
}

// AdvancePrice closes the step: it appends the next price and resets the volumes.
// It always succeeds; prices below the floor are raised to it.
func (m *Market) AdvancePrice() PriceUpdate {
	last := m.CurrentPrice()
	delta := float64(m.buyVolume-m.sellVolume) * m.params.Sensitivity
	noise := m.noise.Sample()
	raw := last + delta + noise

	next := raw
	clamped := false
	// NaN compares false, so it is clamped as well.
	if !(raw >= m.params.Floor) {
		next = m.params.Floor
		clamped = true
	}

	u := PriceUpdate{
		BuyVolume:  m.buyVolume,
		SellVolume: m.sellVolume,
		Previous:   last,
		Delta:      delta,
		Noise:      noise,
		Next:       next,
		Clamped:    clamped,
	}
	m.history = append(m.history, next)
	m.buyVolume = 0
	m.sellVolume = 0
	return u
}

func (m *Market) CurrentPrice() float64 {
	return m.history[len(m.history)-1]
}

// History returns a copy of every price so far, oldest first.
func (m *Market) History() []float64 {
	out := make([]float64, len(m.history))
	copy(out, m.history)
	return out
}

func (m *Market) Len() int { return len(m.history) }
