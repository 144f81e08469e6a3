// Package risk sizes approved entries and vetoes the rest. A veto is a
// normal outcome with a reason attached, not an error.
package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"swingtrader/internal/broker"
	"swingtrader/internal/options"
	"swingtrader/internal/portfolio"
	"swingtrader/internal/signal"
)

// Limits are the account-level risk parameters. Percentages are
// fractions, so a 10% position cap is 0.10.
type Limits struct {
	MaxOpenPositions int     `yaml:"max_open_positions"`
	MaxPositionPct   float64 `yaml:"max_position_pct"`
	MaxExposurePct   float64 `yaml:"max_exposure_pct"`
	StopLossPct      float64 `yaml:"stop_loss_pct"`
	TakeProfitPct    float64 `yaml:"take_profit_pct"`
	MaxHoldDays      int     `yaml:"max_hold_days"`
}

// DefaultLimits mirror a conservative small-account swing profile.
func DefaultLimits() Limits {
	return Limits{
		MaxOpenPositions: 4,
		MaxPositionPct:   0.10,
		MaxExposurePct:   0.40,
		StopLossPct:      0.15,
		TakeProfitPct:    0.20,
		MaxHoldDays:      5,
	}
}

// Decision is the outcome of a risk evaluation. When Approved is false,
// Veto explains why and the plan is zero.
type Decision struct {
	Approved bool
	Veto     string
	Plan     portfolio.EntryPlan
}

// Manager applies the limits to candidate entries.
type Manager struct {
	limits Limits
}

func NewManager(limits Limits) *Manager {
	return &Manager{limits: limits}
}

// Evaluate decides whether to enter the selected contract for the
// signal, and at what size. Sizing takes the smaller of the per-position
// cap and the remaining exposure headroom, then floors to whole
// contracts at the current premium.
func (m *Manager) Evaluate(sig signal.Signal, contract options.Contract, equity float64, snap portfolio.Snapshot, now time.Time) Decision {
	if sig.Direction == signal.DirectionNone {
		return veto("no directional signal")
	}
	if equity <= 0 {
		return veto("account equity unavailable")
	}
	if snap.Count() >= m.limits.MaxOpenPositions {
		return veto(fmt.Sprintf("open position limit reached (%d/%d)", snap.Count(), m.limits.MaxOpenPositions))
	}
	if snap.HasExposure(contract.Underlying, sig.Direction) {
		return veto(fmt.Sprintf("already %s %s", sig.Direction, contract.Underlying))
	}

	premium := contract.Premium()
	if premium <= 0 {
		return veto(fmt.Sprintf("no usable quote for %s", contract.Symbol))
	}

	positionCap := equity * m.limits.MaxPositionPct
	headroom := equity*m.limits.MaxExposurePct - snap.OpenNotional
	if headroom <= 0 {
		return veto("exposure headroom exhausted")
	}
	budget := math.Min(positionCap, headroom)

	qty := int(math.Floor(budget / (premium * 100)))
	if qty < 1 {
		return veto(fmt.Sprintf("budget %.2f below one contract at %.2f", budget, premium))
	}

	positionID := uuid.NewString()
	return Decision{
		Approved: true,
		Plan: portfolio.EntryPlan{
			Intent: broker.OrderIntent{
				ID:         uuid.NewString(),
				PositionID: positionID,
				Contract:   contract,
				Side:       broker.SideBuy,
				Qty:        qty,
				LimitPrice: premium,
				Reason:     broker.ReasonEntry,
			},
			Direction:    sig.Direction,
			StopPrice:    premium * (1 - m.limits.StopLossPct),
			TargetPrice:  premium * (1 + m.limits.TakeProfitPct),
			MaxHoldUntil: now.AddDate(0, 0, m.limits.MaxHoldDays),
		},
	}
}

func veto(reason string) Decision {
	return Decision{Veto: reason}
}
