package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swingtrader/internal/options"
)

func intent(side Side, qty int, limit float64) OrderIntent {
	return OrderIntent{
		ID:         "intent-1",
		PositionID: "pos-1",
		Contract:   options.Contract{Symbol: "AAPL260116C00180000", Underlying: "AAPL", Type: options.TypeCall},
		Side:       side,
		Qty:        qty,
		LimitPrice: limit,
		Reason:     ReasonEntry,
	}
}

func TestPaper_BuyDebitsEquity(t *testing.T) {
	p := NewPaper(10_000)
	fill, err := p.SubmitOrder(context.Background(), intent(SideBuy, 5, 2.00))
	require.NoError(t, err)

	assert.Equal(t, "intent-1", fill.IntentID)
	assert.Equal(t, 5, fill.Qty)
	assert.Equal(t, 2.00, fill.Price)

	equity, err := p.AccountEquity(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 10_000-5*2.00*100, equity, 1e-9)
}

func TestPaper_SellCreditsEquity(t *testing.T) {
	p := NewPaper(10_000)
	_, err := p.SubmitOrder(context.Background(), intent(SideSell, 2, 3.00))
	require.NoError(t, err)

	equity, err := p.AccountEquity(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 10_600, equity, 1e-9)
}

func TestPaper_ResubmitSameIntentFillsOnce(t *testing.T) {
	p := NewPaper(10_000)
	first, err := p.SubmitOrder(context.Background(), intent(SideBuy, 2, 5.00))
	require.NoError(t, err)

	second, err := p.SubmitOrder(context.Background(), intent(SideBuy, 2, 5.00))
	require.NoError(t, err)
	assert.Equal(t, first, second, "replay returns the recorded fill")
	assert.Len(t, p.Fills(), 1)

	equity, err := p.AccountEquity(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 9_000, equity, 1e-9, "equity moves once per logical intent")
}

func TestPaper_InsufficientEquity(t *testing.T) {
	p := NewPaper(100)
	_, err := p.SubmitOrder(context.Background(), intent(SideBuy, 5, 2.00))
	assert.Error(t, err)

	equity, _ := p.AccountEquity(context.Background())
	assert.Equal(t, 100.0, equity, "failed orders must not move equity")
}

func TestPaper_RejectWith(t *testing.T) {
	p := NewPaper(10_000)
	boom := errors.New("exchange offline")
	p.RejectWith(func(OrderIntent) error { return boom })

	_, err := p.SubmitOrder(context.Background(), intent(SideBuy, 1, 2.00))
	assert.ErrorIs(t, err, boom)

	p.RejectWith(nil)
	_, err = p.SubmitOrder(context.Background(), intent(SideBuy, 1, 2.00))
	assert.NoError(t, err)
}

func TestPaper_MarkPrice(t *testing.T) {
	p := NewPaper(10_000)
	_, err := p.MarkPrice(context.Background(), "AAPL260116C00180000")
	assert.Error(t, err, "unset marks are an error, not zero")

	p.SetMark("AAPL260116C00180000", 2.35)
	mark, err := p.MarkPrice(context.Background(), "AAPL260116C00180000")
	require.NoError(t, err)
	assert.Equal(t, 2.35, mark)
}

func TestPaper_ContextCancelled(t *testing.T) {
	p := NewPaper(10_000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.SubmitOrder(ctx, intent(SideBuy, 1, 2.00))
	assert.ErrorIs(t, err, context.Canceled)
}
