package model

import (
	"fmt"
	"strings"
)

// Disposition is a trader's fixed behavioral label. It only influences how an oracle
// answers for the trader; the engine treats all dispositions alike.
// Keep these values stable; they appear in prompts, CSV and JSON output.
type Disposition string

const (
	DispositionAggressive  Disposition = "Aggressive"
	DispositionCautious    Disposition = "Cautious"
	DispositionRiskAverse  Disposition = "Risk-Averse"
	DispositionOptimistic  Disposition = "Optimistic"
	DispositionPessimistic Disposition = "Pessimistic"
)

var dispositions = []Disposition{
	DispositionAggressive,
	DispositionCautious,
	DispositionRiskAverse,
	DispositionOptimistic,
	DispositionPessimistic,
}

// Dispositions returns every disposition in declaration order.
func Dispositions() []Disposition {
	out := make([]Disposition, len(dispositions))
	copy(out, dispositions)
	return out
}

func (d Disposition) Valid() bool {
	for _, v := range dispositions {
		if d == v {
			return true
		}
	}
	return false
}

func (d Disposition) String() string { return string(d) }

// ParseDisposition accepts any casing and "-", "_" or " " as separators,
// so "risk_averse" and "Risk Averse" both resolve to DispositionRiskAverse.
func ParseDisposition(s string) (Disposition, error) {
	norm := normalizeLabel(s)
	for _, d := range dispositions {
		if normalizeLabel(string(d)) == norm {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: unknown disposition %q", ErrInvalidConfiguration, s)
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}
