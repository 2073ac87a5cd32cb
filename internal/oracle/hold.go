package oracle

import (
	"context"
	"strconv"

	"agent-market/internal/model"
)

// Hold always chooses to hold.
type Hold struct{}

func (Hold) Name() string { return "hold" }

func (Hold) Decide(ctx context.Context, s Situation) (string, error) {
	return strconv.Itoa(model.ActionHold.Option()), nil
}
