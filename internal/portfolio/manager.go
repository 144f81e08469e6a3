package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"swingtrader/internal/botfail"
	"swingtrader/internal/broker"
)

// Manager is the single writer of position state. All mutation happens
// under one lock, and every mutation is persisted before it is visible
// to callers.
type Manager struct {
	mu     sync.Mutex
	open   []Position
	closed []Position
	store  *Store
	loc    *time.Location
	log    *zap.Logger
}

// NewManager loads the persisted book, if any, and resumes from it.
func NewManager(store *Store, loc *time.Location, log *zap.Logger) (*Manager, error) {
	state, err := store.load()
	if err != nil {
		return nil, err
	}
	m := &Manager{
		open:   state.Open,
		closed: state.Closed,
		store:  store,
		loc:    loc,
		log:    log,
	}
	if n := len(m.open); n > 0 {
		log.Info("resumed position book", zap.Int("open", n), zap.Int("closed", len(m.closed)))
	}
	return m, nil
}

// Snapshot returns a copy of the open book.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{Open: make([]Position, len(m.open))}
	copy(snap.Open, m.open)
	for _, p := range m.open {
		snap.OpenNotional += p.Notional()
	}
	return snap
}

// RegisterEntry records a filled entry as an open position. Calling it
// again with the same intent ID returns the existing position
// unchanged, so a crashed-and-replayed entry can never double a book.
func (m *Manager) RegisterEntry(plan EntryPlan, fill broker.Fill) (Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.open {
		if p.EntryIntentID == fill.IntentID {
			return p, nil
		}
	}
	for _, p := range m.closed {
		if p.EntryIntentID == fill.IntentID {
			return p, nil
		}
	}

	if fill.Qty != plan.Intent.Qty {
		return Position{}, botfail.NewInvariantError("portfolio",
			fmt.Sprintf("fill qty %d does not match intent qty %d for %s", fill.Qty, plan.Intent.Qty, fill.IntentID), nil)
	}
	if fill.Qty <= 0 {
		return Position{}, botfail.NewInvariantError("portfolio",
			fmt.Sprintf("non-positive fill qty %d for %s", fill.Qty, fill.IntentID), nil)
	}

	pos := Position{
		ID:            plan.Intent.PositionID,
		Underlying:    plan.Intent.Contract.Underlying,
		Contract:      plan.Intent.Contract,
		Direction:     plan.Direction,
		Qty:           fill.Qty,
		EntryIntentID: fill.IntentID,
		EntryPrice:    fill.Price,
		EntryTime:     fill.FilledAt,
		StopPrice:     plan.StopPrice,
		TargetPrice:   plan.TargetPrice,
		MaxHoldUntil:  plan.MaxHoldUntil,
		State:         StateOpen,
	}
	m.open = append(m.open, pos)
	if err := m.persist(); err != nil {
		return Position{}, err
	}
	m.log.Info("position opened",
		zap.String("position", pos.ID),
		zap.String("contract", pos.Contract.Symbol),
		zap.Int("qty", pos.Qty),
		zap.Float64("entry", pos.EntryPrice),
		zap.Float64("stop", pos.StopPrice),
		zap.Float64("target", pos.TargetPrice))
	return pos, nil
}

// EvaluateExits walks the open book and returns the exit orders due
// now. Exit triggers apply in fixed priority: stop loss, then take
// profit, then max hold. Price exits are skipped on the entry day so a
// swing position never becomes a day trade; forced closes ignore every
// guard. Positions already awaiting a fill re-emit their stored intent
// with the same intent ID.
func (m *Manager) EvaluateExits(now time.Time, marks map[string]float64, forced bool) ([]broker.OrderIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var intents []broker.OrderIntent
	dirty := false
	for i := range m.open {
		p := &m.open[i]

		if p.State == StateExitPending {
			intents = append(intents, m.exitIntent(p))
			continue
		}

		mark, hasMark := marks[p.Contract.Symbol]
		reason, limit := exitDecision(p, now, mark, hasMark, forced, m.loc)
		if reason == "" {
			continue
		}

		p.State = StateExitPending
		p.ExitIntentID = uuid.NewString()
		p.ExitReason = reason
		p.ExitLimit = limit
		dirty = true
		intents = append(intents, m.exitIntent(p))
		m.log.Info("exit triggered",
			zap.String("position", p.ID),
			zap.String("reason", string(reason)),
			zap.Float64("mark", mark),
			zap.Float64("limit", limit))
	}

	if dirty {
		if err := m.persist(); err != nil {
			return nil, err
		}
	}
	return intents, nil
}

// exitDecision picks the exit reason for an open position, or "" when
// none applies.
func exitDecision(p *Position, now time.Time, mark float64, hasMark, forced bool, loc *time.Location) (broker.Reason, float64) {
	if forced {
		limit := p.EntryPrice
		if hasMark {
			limit = mark
		}
		return broker.ReasonForcedClose, limit
	}

	entryDay := sameDay(now, p.EntryTime, loc)
	if hasMark && !entryDay {
		if mark <= p.StopPrice {
			return broker.ReasonStopLoss, mark
		}
		if mark >= p.TargetPrice {
			return broker.ReasonTakeProfit, mark
		}
	}
	if !now.Before(p.MaxHoldUntil) {
		limit := p.EntryPrice
		if hasMark {
			limit = mark
		}
		return broker.ReasonMaxHold, limit
	}
	return "", 0
}

func (m *Manager) exitIntent(p *Position) broker.OrderIntent {
	return broker.OrderIntent{
		ID:         p.ExitIntentID,
		PositionID: p.ID,
		Contract:   p.Contract,
		Side:       broker.SideSell,
		Qty:        p.Qty,
		LimitPrice: p.ExitLimit,
		Reason:     p.ExitReason,
	}
}

// ResolveExit finalizes an exit attempt. submitErr nil means the fill
// confirmed: the position closes and realized P&L is booked. A timeout
// or transport drop leaves the order's fate unknown, so the position
// stays EXIT_PENDING and the next evaluation re-submits the same
// intent. A confirmed rejection puts the position back to OPEN; the
// next check evaluates it fresh under a new intent.
func (m *Manager) ResolveExit(positionID string, fill broker.Fill, submitErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i := range m.open {
		if m.open[i].ID == positionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		// Already closed with the same exit intent: replay, not a bug.
		for _, p := range m.closed {
			if p.ID == positionID && p.ExitIntentID == fill.IntentID {
				return nil
			}
		}
		return botfail.NewInvariantError("portfolio", fmt.Sprintf("exit resolution for unknown position %s", positionID), nil)
	}

	p := &m.open[idx]
	if p.State != StateExitPending {
		return botfail.NewInvariantError("portfolio", fmt.Sprintf("exit resolution for %s in state %s", positionID, p.State), nil)
	}

	if submitErr != nil {
		if exitOutcomeUnknown(submitErr) {
			m.log.Warn("exit attempt unresolved, re-submitting same intent next check",
				zap.String("position", p.ID),
				zap.String("intent", p.ExitIntentID),
				zap.Error(submitErr))
			return nil
		}
		m.log.Warn("exit order rejected, position back to open",
			zap.String("position", p.ID),
			zap.String("intent", p.ExitIntentID),
			zap.Error(submitErr))
		p.State = StateOpen
		p.ExitIntentID = ""
		p.ExitReason = ""
		p.ExitLimit = 0
		return m.persist()
	}

	if fill.Qty != p.Qty {
		return botfail.NewInvariantError("portfolio",
			fmt.Sprintf("exit fill qty %d does not match position qty %d for %s", fill.Qty, p.Qty, positionID), nil)
	}

	p.State = StateClosed
	p.ExitPrice = fill.Price
	p.ExitTime = fill.FilledAt
	p.RealizedPnL = (p.ExitPrice - p.EntryPrice) * 100 * float64(p.Qty)
	closed := *p
	m.open = append(m.open[:idx], m.open[idx+1:]...)
	m.closed = append(m.closed, closed)
	if err := m.persist(); err != nil {
		return err
	}
	m.log.Info("position closed",
		zap.String("position", closed.ID),
		zap.String("reason", string(closed.ExitReason)),
		zap.Float64("exit", closed.ExitPrice),
		zap.Float64("pnl", closed.RealizedPnL))
	return nil
}

// ClosedSince returns positions closed at or after t, newest last.
func (m *Manager) ClosedSince(t time.Time) []Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Position
	for _, p := range m.closed {
		if !p.ExitTime.Before(t) {
			out = append(out, p)
		}
	}
	return out
}

func (m *Manager) persist() error {
	return m.store.save(persistedState{Open: m.open, Closed: m.closed})
}

// exitOutcomeUnknown reports whether a submission failure leaves the
// order's fate undecided at the broker. Such failures must not revert
// the position: the order may still fill, and reverting would allow a
// second, duplicate exit intent.
func exitOutcomeUnknown(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var be *botfail.Error
	if errors.As(err, &be) {
		switch be.Category {
		case botfail.CategoryTimeout, botfail.CategoryNetwork:
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
