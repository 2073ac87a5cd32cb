package oracle

import (
	"context"
	"fmt"
	"log/slog"
)

// Fallback consults Primary and switches to Secondary when Primary reports itself
// unavailable or returns an error.
type Fallback struct {
	Primary   Oracle
	Secondary Oracle
	Logger    *slog.Logger
}

func (f *Fallback) Name() string {
	return fmt.Sprintf("%s+%s", f.Primary.Name(), f.Secondary.Name())
}

func (f *Fallback) Decide(ctx context.Context, s Situation) (string, error) {
	if a, ok := f.Primary.(Availability); !ok || a.Available() {
		resp, err := f.Primary.Decide(ctx, s)
		if err == nil {
			return resp, nil
		}
		// A cancelled run should not be papered over by the secondary.
		if ctx.Err() != nil {
			return "", err
		}
		if f.Logger != nil {
			f.Logger.Warn("primary oracle failed, using fallback",
				"primary", f.Primary.Name(), "fallback", f.Secondary.Name(), "error", err)
		}
	}
	resp, err := f.Secondary.Decide(ctx, s)
	if err != nil {
		return "", fmt.Errorf("fallback oracle %s: %w", f.Secondary.Name(), err)
	}
	return resp, nil
}
