package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"swingtrader/internal/botfail"
)

// Paper is an in-memory broker that fills every order at its limit
// price. It backs dry runs and tests; marks are set by the caller.
type Paper struct {
	mu       sync.Mutex
	equity   float64
	marks    map[string]float64
	fills    []Fill
	byIntent map[string]Fill
	rejectFn func(OrderIntent) error
}

func NewPaper(startingEquity float64) *Paper {
	return &Paper{
		equity:   startingEquity,
		marks:    make(map[string]float64),
		byIntent: make(map[string]Fill),
	}
}

func (p *Paper) Name() string { return "paper" }

// SetMark sets the current mark for a contract symbol.
func (p *Paper) SetMark(symbol string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.marks[symbol] = price
}

// RejectWith makes subsequent orders fail with the error fn returns, or
// succeed when fn returns nil. Passing nil restores normal fills.
func (p *Paper) RejectWith(fn func(OrderIntent) error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejectFn = fn
}

func (p *Paper) SubmitOrder(ctx context.Context, intent OrderIntent) (Fill, error) {
	if err := ctx.Err(); err != nil {
		return Fill{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// A resubmitted intent resolves to its recorded fill, the way the
	// live broker resolves a duplicate client order ID.
	if fill, ok := p.byIntent[intent.ID]; ok {
		return fill, nil
	}

	if p.rejectFn != nil {
		if err := p.rejectFn(intent); err != nil {
			return Fill{}, err
		}
	}
	if intent.Qty <= 0 {
		return Fill{}, botfail.NewValidationError("paper", fmt.Sprintf("order quantity %d", intent.Qty), nil)
	}

	notional := intent.LimitPrice * 100 * float64(intent.Qty)
	switch intent.Side {
	case SideBuy:
		if notional > p.equity {
			return Fill{}, botfail.NewOrderError("paper", "insufficient equity", nil)
		}
		p.equity -= notional
	case SideSell:
		p.equity += notional
	default:
		return Fill{}, botfail.NewValidationError("paper", fmt.Sprintf("order side %q", intent.Side), nil)
	}

	fill := Fill{
		OrderID:  uuid.NewString(),
		IntentID: intent.ID,
		Symbol:   intent.Contract.Symbol,
		Side:     intent.Side,
		Qty:      intent.Qty,
		Price:    intent.LimitPrice,
		FilledAt: time.Now(),
	}
	p.fills = append(p.fills, fill)
	p.byIntent[intent.ID] = fill
	return fill, nil
}

func (p *Paper) AccountEquity(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.equity, nil
}

func (p *Paper) MarkPrice(ctx context.Context, contractSymbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	mark, ok := p.marks[contractSymbol]
	if !ok {
		return 0, botfail.NewMarketDataError("paper", fmt.Sprintf("no mark for %s", contractSymbol), nil)
	}
	return mark, nil
}

// Fills returns a copy of every fill recorded so far.
func (p *Paper) Fills() []Fill {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Fill, len(p.fills))
	copy(out, p.fills)
	return out
}
