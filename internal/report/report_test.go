package report

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swingtrader/internal/broker"
	"swingtrader/internal/options"
	"swingtrader/internal/portfolio"
)

func sampleClosed() []portfolio.Position {
	return []portfolio.Position{
		{
			Underlying:  "AAPL",
			Contract:    options.Contract{Symbol: "AAPL260116C00180000"},
			Qty:         5,
			EntryPrice:  2.00,
			ExitPrice:   2.40,
			ExitReason:  broker.ReasonTakeProfit,
			RealizedPnL: 200,
			State:       portfolio.StateClosed,
		},
		{
			Underlying:  "TSLA",
			Contract:    options.Contract{Symbol: "TSLA260116P00200000"},
			Qty:         2,
			EntryPrice:  3.00,
			ExitPrice:   2.55,
			ExitReason:  broker.ReasonStopLoss,
			RealizedPnL: -90,
			State:       portfolio.StateClosed,
		},
	}
}

func TestRecorder_SummarizeAndReset(t *testing.T) {
	r := NewRecorder()
	now := time.Date(2026, 3, 2, 16, 15, 0, 0, time.UTC)

	r.RecordSignal(SignalRecord{Time: now, Symbol: "AAPL", Direction: "BULLISH", Strength: 0.7})
	r.RecordDecision(DecisionRecord{Time: now, Symbol: "AAPL", Contract: "AAPL260116C00180000", Approved: true, Qty: 5})

	s := r.Summarize(now, sampleClosed(), 1, 9_800)
	assert.Len(t, s.Signals, 1)
	assert.Len(t, s.Decisions, 1)
	assert.InDelta(t, 110.0, s.RealizedPnL, 1e-9)
	assert.Equal(t, 1, s.OpenCount)

	// A second summarize starts from a clean slate.
	s2 := r.Summarize(now.AddDate(0, 0, 1), nil, 1, 9_800)
	assert.Empty(t, s2.Signals)
	assert.Empty(t, s2.Decisions)
	assert.Zero(t, s2.RealizedPnL)
}

func TestRenderConsole(t *testing.T) {
	r := NewRecorder()
	now := time.Date(2026, 3, 2, 16, 15, 0, 0, time.UTC)
	r.RecordDecision(DecisionRecord{Time: now, Symbol: "MSFT", Contract: "MSFT260116C00420000", Veto: "open position limit reached (4/4)"})

	out := RenderConsole(r.Summarize(now, sampleClosed(), 4, 12_345))
	assert.Contains(t, out, "Daily Summary 2026-03-02")
	assert.Contains(t, out, "Realized P&L")
	assert.Contains(t, out, "veto: open position limit reached (4/4)")
	assert.Contains(t, out, "AAPL260116C00180000")
	assert.Contains(t, out, "stop_loss")
}

func TestWriteExcel(t *testing.T) {
	r := NewRecorder()
	now := time.Date(2026, 3, 2, 16, 15, 0, 0, time.UTC)
	r.RecordSignal(SignalRecord{Time: now, Symbol: "AAPL", Direction: "BULLISH", Strength: 0.7, Reasons: []string{"RSI oversold at 28.4"}})

	dir := t.TempDir()
	path, err := WriteExcel(r.Summarize(now, sampleClosed(), 1, 9_800), dir)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.Contains(t, path, "summary_2026-03-02.xlsx")
}
