// Package options models option contracts and selects the best tradable
// contract for a directional signal.
package options

import (
	"fmt"
	"time"
)

// Type is the option contract type.
type Type string

const (
	TypeCall Type = "call"
	TypePut  Type = "put"
)

// Contract is a read-only snapshot of one option contract from the
// market-data provider.
type Contract struct {
	// Symbol is the OCC option symbol (e.g. AAPL240119C00100000).
	Symbol     string
	Underlying string
	Type       Type
	Strike     float64
	Expiration time.Time
	// DTE is days to expiration at snapshot time.
	DTE          int
	Delta        float64
	Bid          float64
	Ask          float64
	OpenInterest int64
	Volume       int64
}

// Premium is the per-share cost basis used for sizing and entry limit
// pricing: the ask when quoted, else the bid.
func (c Contract) Premium() float64 {
	if c.Ask > 0 {
		return c.Ask
	}
	return c.Bid
}

// Liquidity scores open interest plus volume, weighting recent volume
// double since it reflects today's tradability.
func (c Contract) Liquidity() int64 {
	return c.OpenInterest + 2*c.Volume
}

func (c Contract) String() string {
	return fmt.Sprintf("%s %s %.2f exp %s (dte=%d delta=%.2f bid=%.2f ask=%.2f oi=%d)",
		c.Underlying, c.Type, c.Strike, c.Expiration.Format("2006-01-02"),
		c.DTE, c.Delta, c.Bid, c.Ask, c.OpenInterest)
}
