// Package market defines the market-data boundary: bar history for the
// signal engine, option-chain snapshots for the contract selector, and
// snapshot-based movers for the premarket scanner.
package market

import (
	"context"
	"time"

	"swingtrader/internal/options"
)

// Bar is a single OHLCV bar.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Move is a symbol's change from the previous close, used by the
// premarket scanner to rank the universe.
type Move struct {
	Symbol    string
	PrevClose float64
	LastPrice float64
	ChangePct float64
}

// Provider supplies price history and option-chain snapshots. An
// unavailable symbol yields an empty result, not an error that callers
// must distinguish from transport failures: adapters classify transient
// transport problems themselves and return nil data once retries are
// exhausted.
type Provider interface {
	// DailyBars returns up to lookback daily bars, oldest first.
	DailyBars(ctx context.Context, symbol string, lookback int) ([]Bar, error)

	// OptionChain returns the tradable contracts for an underlying
	// within the given expiration window, with quotes and greeks where
	// the data plane provides them. An empty chain is a normal outcome.
	OptionChain(ctx context.Context, underlying string, optType options.Type, dteMin, dteMax int) ([]options.Contract, error)

	// Moves returns previous-close-to-latest changes for a universe of
	// symbols, for the premarket movers scan.
	Moves(ctx context.Context, symbols []string) ([]Move, error)

	// HasListedOptions reports whether the symbol has any listed
	// option contracts at all.
	HasListedOptions(ctx context.Context, symbol string) (bool, error)
}
