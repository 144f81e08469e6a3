// Package signal turns daily bar history into directional trade signals
// by weighted voting across momentum indicators.
package signal

import (
	"fmt"
	"time"

	"swingtrader/internal/options"
)

// Direction is the trade direction a signal recommends.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionBullish
	DirectionBearish
)

func (d Direction) String() string {
	switch d {
	case DirectionBullish:
		return "BULLISH"
	case DirectionBearish:
		return "BEARISH"
	default:
		return "NONE"
	}
}

// OptionType maps a direction to the option type that expresses it.
// Bullish buys calls, bearish buys puts.
func (d Direction) OptionType() (options.Type, bool) {
	switch d {
	case DirectionBullish:
		return options.TypeCall, true
	case DirectionBearish:
		return options.TypePut, true
	default:
		return options.TypeCall, false
	}
}

// Vote is a single indicator's contribution to a signal. Value is
// +1 (bullish), -1 (bearish) or 0 (neutral).
type Vote struct {
	Indicator string
	Value     int
	Weight    float64
	Note      string
}

// Signal is the outcome of evaluating one symbol. Score is the raw
// weighted vote sum; Strength is its absolute value normalized to
// [0, 1]. A Direction of DirectionNone means no trade; Strength is 0
// in that case only when the score never reached the threshold.
type Signal struct {
	Symbol    string
	Direction Direction
	Score     float64
	Strength  float64
	Votes     []Vote
	Reasons   []string
	At        time.Time
}

func (s Signal) String() string {
	return fmt.Sprintf("%s %s strength=%.2f", s.Symbol, s.Direction, s.Strength)
}
