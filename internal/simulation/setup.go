package simulation

import (
	"fmt"

	"agent-market/internal/config"
	"agent-market/internal/market"
	"agent-market/internal/oracle"
)

// FromConfig assembles an engine from cfg. Unset fields of opts are filled from cfg:
// the oracle is built from the oracle section and the per-call timeout comes from oracle.timeout.
func FromConfig(cfg *config.Config, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prices, err := cfg.Prices()
	if err != nil {
		return nil, err
	}
	m, err := market.New(prices, cfg.MarketParams(), cfg.Noise())
	if err != nil {
		return nil, fmt.Errorf("market: %w", err)
	}

	dispositions, err := cfg.DispositionList()
	if err != nil {
		return nil, err
	}
	traders, err := NewTraders(Population{
		Count:        cfg.Traders.Count,
		Assets:       cfg.InitialAssets(),
		Cash:         cfg.InitialCash(),
		Dispositions: dispositions,
		Seed:         cfg.Seed(),
	})
	if err != nil {
		return nil, err
	}

	if opts.Oracle == nil {
		spec, err := cfg.OracleSpec()
		if err != nil {
			return nil, err
		}
		o, err := oracle.Build(spec, opts.Logger)
		if err != nil {
			return nil, fmt.Errorf("oracle: %w", err)
		}
		opts.Oracle = o
	}
	if opts.OracleTimeout == 0 {
		timeout, err := cfg.OracleTimeout()
		if err != nil {
			return nil, err
		}
		// A configured zero means no per-call bound.
		if timeout == 0 {
			timeout = -1
		}
		opts.OracleTimeout = timeout
	}

	return New(m, traders, opts)
}
