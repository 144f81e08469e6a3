// Package portfolio owns the position lifecycle. The Manager is the
// only writer of position state; everything else sees read-only
// snapshots.
package portfolio

import (
	"fmt"
	"time"

	"swingtrader/internal/broker"
	"swingtrader/internal/options"
	"swingtrader/internal/signal"
)

// State is a position's lifecycle stage. Transitions run strictly
// OPEN -> EXIT_PENDING -> CLOSED; a failed exit leaves the position in
// EXIT_PENDING so the next cycle retries the same order.
type State string

const (
	StateOpen        State = "OPEN"
	StateExitPending State = "EXIT_PENDING"
	StateClosed      State = "CLOSED"
)

// Position is one long option position and its full lifecycle record.
type Position struct {
	ID            string           `json:"id"`
	Underlying    string           `json:"underlying"`
	Contract      options.Contract `json:"contract"`
	Direction     signal.Direction `json:"direction"`
	Qty           int              `json:"qty"`
	EntryIntentID string           `json:"entry_intent_id"`
	EntryPrice    float64          `json:"entry_price"`
	EntryTime     time.Time        `json:"entry_time"`
	StopPrice     float64          `json:"stop_price"`
	TargetPrice   float64          `json:"target_price"`
	MaxHoldUntil  time.Time        `json:"max_hold_until"`
	State         State            `json:"state"`

	ExitIntentID string        `json:"exit_intent_id,omitempty"`
	ExitReason   broker.Reason `json:"exit_reason,omitempty"`
	ExitLimit    float64       `json:"exit_limit,omitempty"`
	ExitPrice    float64       `json:"exit_price,omitempty"`
	ExitTime     time.Time     `json:"exit_time,omitempty"`
	RealizedPnL  float64       `json:"realized_pnl,omitempty"`
}

// Notional is the capital committed at entry, in dollars.
func (p Position) Notional() float64 {
	return p.EntryPrice * 100 * float64(p.Qty)
}

func (p Position) String() string {
	return fmt.Sprintf("%s %d x %s @ %.2f [%s]", p.Underlying, p.Qty, p.Contract.Symbol, p.EntryPrice, p.State)
}

// EntryPlan is an approved entry: the order to place plus the exit
// levels the position will carry once it fills.
type EntryPlan struct {
	Intent       broker.OrderIntent
	Direction    signal.Direction
	StopPrice    float64
	TargetPrice  float64
	MaxHoldUntil time.Time
}

// Snapshot is a read-only view of the open book.
type Snapshot struct {
	Open         []Position
	OpenNotional float64
}

func (s Snapshot) Count() int {
	return len(s.Open)
}

// HasExposure reports whether an open position already expresses the
// same underlying and direction.
func (s Snapshot) HasExposure(underlying string, dir signal.Direction) bool {
	for _, p := range s.Open {
		if p.Underlying == underlying && p.Direction == dir {
			return true
		}
	}
	return false
}
