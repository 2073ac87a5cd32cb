package simulation

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"agent-market/internal/model"
)

// Population describes how the trader set is created.
type Population struct {
	Count  int
	Assets int
	Cash   decimal.Decimal
	// Dispositions, when non-empty, is assigned in order and repeated to fill Count.
	// When empty each trader draws one uniformly.
	Dispositions []model.Disposition
	Seed         int64
}

// NewTraders builds Count traders. Ids and drawn dispositions come from a generator seeded
// with Seed, so equal populations produce identical traders.
func NewTraders(p Population) ([]*model.Trader, error) {
	if p.Count <= 0 {
		return nil, fmt.Errorf("%w: trader count must be > 0, got %d", model.ErrInvalidConfiguration, p.Count)
	}
	for _, d := range p.Dispositions {
		if !d.Valid() {
			return nil, fmt.Errorf("%w: unknown disposition %q", model.ErrInvalidConfiguration, d)
		}
	}

	rng := rand.New(rand.NewSource(p.Seed))
	all := model.Dispositions()
	traders := make([]*model.Trader, 0, p.Count)
	for i := 0; i < p.Count; i++ {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, fmt.Errorf("trader %d id: %w", i, err)
		}
		var d model.Disposition
		if len(p.Dispositions) > 0 {
			d = p.Dispositions[i%len(p.Dispositions)]
		} else {
			d = all[rng.Intn(len(all))]
		}
		t, err := model.NewTrader(id, d, p.Assets, p.Cash)
		if err != nil {
			return nil, fmt.Errorf("trader %d: %w", i, err)
		}
		traders = append(traders, t)
	}
	return traders, nil
}
