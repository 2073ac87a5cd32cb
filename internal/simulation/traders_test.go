package simulation

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"agent-market/internal/model"
)

func TestNewTradersRejectsBadPopulation(t *testing.T) {
	tests := []struct {
		name string
		pop  Population
	}{
		{"zero count", Population{Count: 0, Cash: decimal.NewFromInt(70)}},
		{"negative assets", Population{Count: 2, Assets: -1, Cash: decimal.NewFromInt(70)}},
		{"negative cash", Population{Count: 2, Cash: decimal.NewFromInt(-1)}},
		{"bad disposition", Population{Count: 2, Cash: decimal.NewFromInt(70), Dispositions: []model.Disposition{"Reckless"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTraders(tt.pop); !errors.Is(err, model.ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestNewTradersIsReproducible(t *testing.T) {
	pop := Population{Count: 20, Assets: 3, Cash: decimal.NewFromInt(70), Seed: 99}
	a, err := NewTraders(pop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewTraders(pop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[uuid.UUID]bool)
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Disposition != b[i].Disposition {
			t.Errorf("trader %d differs between runs", i)
		}
		if seen[a[i].ID] {
			t.Errorf("duplicate id %s", a[i].ID)
		}
		seen[a[i].ID] = true
		if a[i].Assets() != 3 || !a[i].Cash().Equal(decimal.NewFromInt(70)) {
			t.Errorf("trader %d balances = %d %s", i, a[i].Assets(), a[i].Cash())
		}
	}

	other, err := NewTraders(Population{Count: 20, Assets: 3, Cash: decimal.NewFromInt(70), Seed: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other[0].ID == a[0].ID {
		t.Error("different seeds produced the same id")
	}
}

func TestNewTradersCyclesExplicitDispositions(t *testing.T) {
	list := []model.Disposition{model.DispositionAggressive, model.DispositionRiskAverse}
	traders, err := NewTraders(Population{Count: 5, Assets: 3, Cash: decimal.NewFromInt(70), Dispositions: list})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []model.Disposition{model.DispositionAggressive, model.DispositionRiskAverse, model.DispositionAggressive, model.DispositionRiskAverse, model.DispositionAggressive}
	for i, tr := range traders {
		if tr.Disposition != want[i] {
			t.Errorf("trader %d disposition = %s, want %s", i, tr.Disposition, want[i])
		}
	}
}
