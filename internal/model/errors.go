package model

import (
	"errors"
	"fmt"
)

// Error kinds shared by the trader, market and engine. Callers match them with errors.Is.
var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrUnrecognizedDecision = errors.New("unrecognized decision")
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidOrder is returned for non-positive amounts or unit prices.
	ErrInvalidOrder = fmt.Errorf("%w: order amount and unit price must be > 0", ErrInvalidConfiguration)
)
