package broker

import (
	"fmt"
	"time"

	"swingtrader/internal/options"
)

// Side is the direction of an order against the contract.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Reason records why an order was placed. Exit reasons carry through to
// the trade log and the daily summary.
type Reason string

const (
	ReasonEntry       Reason = "entry"
	ReasonStopLoss    Reason = "stop_loss"
	ReasonTakeProfit  Reason = "take_profit"
	ReasonMaxHold     Reason = "max_hold"
	ReasonForcedClose Reason = "forced_close"
)

// OrderIntent is a fully specified order before submission. ID doubles
// as the client order ID at the broker, so resubmitting the same intent
// can never open a duplicate position.
type OrderIntent struct {
	ID         string
	PositionID string
	Contract   options.Contract
	Side       Side
	Qty        int
	LimitPrice float64
	Reason     Reason
}

func (o OrderIntent) String() string {
	return fmt.Sprintf("%s %d x %s @ %.2f (%s)", o.Side, o.Qty, o.Contract.Symbol, o.LimitPrice, o.Reason)
}

// Fill is the confirmed execution of an intent.
type Fill struct {
	OrderID  string
	IntentID string
	Symbol   string
	Side     Side
	Qty      int
	Price    float64
	FilledAt time.Time
}
