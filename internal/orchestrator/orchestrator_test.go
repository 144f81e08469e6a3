package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"swingtrader/internal/broker"
	"swingtrader/internal/market"
	"swingtrader/internal/monitoring"
	"swingtrader/internal/notifications"
	"swingtrader/internal/options"
	"swingtrader/internal/portfolio"
	"swingtrader/internal/report"
	"swingtrader/internal/risk"
	"swingtrader/internal/scanner"
	"swingtrader/internal/schedule"
	"swingtrader/internal/signal"
)

// stubProvider serves the same uptrend and chain for every symbol.
type stubProvider struct {
	bars     []market.Bar
	chain    []options.Contract
	barsErr  error
	chainErr error
}

func (s *stubProvider) DailyBars(ctx context.Context, symbol string, lookback int) ([]market.Bar, error) {
	return s.bars, s.barsErr
}

func (s *stubProvider) OptionChain(ctx context.Context, underlying string, optType options.Type, dteMin, dteMax int) ([]options.Contract, error) {
	if s.chainErr != nil {
		return nil, s.chainErr
	}
	out := make([]options.Contract, 0, len(s.chain))
	for _, c := range s.chain {
		c.Underlying = underlying
		c.Symbol = underlying + c.Symbol
		out = append(out, c)
	}
	return out, nil
}

func (s *stubProvider) Moves(ctx context.Context, symbols []string) ([]market.Move, error) {
	moves := make([]market.Move, 0, len(symbols))
	for i, sym := range symbols {
		moves = append(moves, market.Move{Symbol: sym, PrevClose: 100, LastPrice: 103, ChangePct: 3 - float64(i)*0.1})
	}
	return moves, nil
}

func (s *stubProvider) HasListedOptions(ctx context.Context, symbol string) (bool, error) {
	return true, nil
}

func uptrendBars(n int) []market.Bar {
	bars := make([]market.Bar, n)
	for i := range bars {
		c := 100.0 + float64(i)
		bars[i] = market.Bar{Close: c, Open: c, High: c, Low: c, Volume: 1e6}
	}
	return bars
}

func tradableChain() []options.Contract {
	return []options.Contract{{
		// Underlying-prefixed by the stub.
		Symbol:       "260116C00180000",
		Type:         options.TypeCall,
		Strike:       180,
		DTE:          30,
		Delta:        0.42,
		Bid:          1.85,
		Ask:          1.90,
		OpenInterest: 500,
		Volume:       100,
	}}
}

type fixture struct {
	orch   *Orchestrator
	paper  *broker.Paper
	book   *portfolio.Manager
	stub   *stubProvider
	monday time.Time
}

func newFixture(t *testing.T, limits risk.Limits) *fixture {
	t.Helper()

	sched, err := schedule.New(schedule.DefaultConfig())
	require.NoError(t, err)

	store := portfolio.NewStore(filepath.Join(t.TempDir(), "positions.json"))
	book, err := portfolio.NewManager(store, sched.Location(), zap.NewNop())
	require.NoError(t, err)

	stub := &stubProvider{bars: uptrendBars(80), chain: tradableChain()}
	paper := broker.NewPaper(10_000)

	sigCfg := signal.DefaultConfig()
	sigCfg.WeightRSI = 0
	sigCfg.ScoreThreshold = 1.0

	orch := New(Options{
		Schedule: sched,
		Scanner:  scanner.New(scanner.Config{Universe: []string{"AAPL", "MSFT", "NVDA"}, TopN: 3, MinMovePct: 1}, stub, zap.NewNop()),
		Provider: stub,
		Engine:   signal.NewEngine(sigCfg),
		Selector: options.NewSelector(options.Filter{DTEMin: 14, DTEMax: 60, DeltaMin: 0.25, DeltaMax: 0.60, MinOpenInterest: 100}),
		Risk:     risk.NewManager(limits),
		Book:     book,
		Broker:   paper,
		Recorder: report.NewRecorder(),
		Notifier: notifications.Noop{},
		Health:   monitoring.NewHealthChecker(),
		Log:      zap.NewNop(),

		BrokerTimeout: 5 * time.Second,
		BarLookback:   80,
	})

	return &fixture{
		orch:   orch,
		paper:  paper,
		book:   book,
		stub:   stub,
		monday: time.Date(2026, 3, 2, 10, 30, 0, 0, sched.Location()),
	}
}

func TestEntryScan_OpensPosition(t *testing.T) {
	f := newFixture(t, risk.DefaultLimits())
	f.orch.watchlist = []string{"AAPL"}

	require.NoError(t, f.orch.entryScan(f.monday))

	snap := f.book.Snapshot()
	require.Equal(t, 1, snap.Count())
	assert.Equal(t, "AAPL", snap.Open[0].Underlying)
	assert.Equal(t, signal.DirectionBullish, snap.Open[0].Direction)
	assert.Equal(t, 1.90, snap.Open[0].EntryPrice, "entry at the ask")
}

func TestEntryScan_RespectsMaxOpenAcrossSymbols(t *testing.T) {
	limits := risk.DefaultLimits()
	limits.MaxOpenPositions = 2
	limits.MaxExposurePct = 1.0
	f := newFixture(t, limits)
	f.orch.watchlist = []string{"AAPL", "MSFT", "NVDA"}

	require.NoError(t, f.orch.entryScan(f.monday))
	assert.Equal(t, 2, f.book.Snapshot().Count(), "third entry vetoed at the limit")

	// A later scan with the book still full opens nothing.
	require.NoError(t, f.orch.entryScan(f.monday.Add(30*time.Minute)))
	assert.Equal(t, 2, f.book.Snapshot().Count())
}

func TestEntryScan_DuplicateExposureVetoed(t *testing.T) {
	f := newFixture(t, risk.DefaultLimits())
	f.orch.watchlist = []string{"AAPL"}

	require.NoError(t, f.orch.entryScan(f.monday))
	require.NoError(t, f.orch.entryScan(f.monday.Add(30*time.Minute)))
	assert.Equal(t, 1, f.book.Snapshot().Count())
}

func TestEntryScan_BrokerRejectionLeavesNoPosition(t *testing.T) {
	f := newFixture(t, risk.DefaultLimits())
	f.orch.watchlist = []string{"AAPL"}
	f.paper.RejectWith(func(broker.OrderIntent) error { return errors.New("rejected") })

	require.NoError(t, f.orch.entryScan(f.monday), "a failed symbol does not fail the scan")
	assert.Zero(t, f.book.Snapshot().Count())
}

func TestExitCheck_StopLossRoundTrip(t *testing.T) {
	f := newFixture(t, risk.DefaultLimits())
	f.orch.watchlist = []string{"AAPL"}
	require.NoError(t, f.orch.entryScan(f.monday))

	pos := f.book.Snapshot().Open[0]
	f.paper.SetMark(pos.Contract.Symbol, pos.StopPrice-0.05)

	nextDay := f.monday.AddDate(0, 0, 1)
	require.NoError(t, f.orch.exitCheck(nextDay, false))

	assert.Zero(t, f.book.Snapshot().Count())
	closed := f.book.ClosedSince(f.monday)
	require.Len(t, closed, 1)
	assert.Equal(t, broker.ReasonStopLoss, closed[0].ExitReason)
}

func TestExitCheck_ForcedCloseFlattensAndBlocksEntries(t *testing.T) {
	limits := risk.DefaultLimits()
	limits.MaxExposurePct = 1.0
	f := newFixture(t, limits)
	f.orch.watchlist = []string{"AAPL", "MSFT"}
	require.NoError(t, f.orch.entryScan(f.monday))
	require.Equal(t, 2, f.book.Snapshot().Count())

	friday := time.Date(2026, 3, 6, 15, 0, 0, 0, f.monday.Location())
	require.NoError(t, f.orch.exitCheck(friday, true))
	assert.Zero(t, f.book.Snapshot().Count())

	// The 15:30 scan that day must not rebuild the book.
	require.NoError(t, f.orch.entryScan(friday.Add(30*time.Minute)))
	assert.Zero(t, f.book.Snapshot().Count())
}

func TestExitCheck_MissingMarkDefersExit(t *testing.T) {
	f := newFixture(t, risk.DefaultLimits())
	f.orch.watchlist = []string{"AAPL"}
	require.NoError(t, f.orch.entryScan(f.monday))

	// No mark set on the paper broker: price exits defer, book intact.
	require.NoError(t, f.orch.exitCheck(f.monday.AddDate(0, 0, 1), false))
	assert.Equal(t, 1, f.book.Snapshot().Count())
}

func TestTick_ScanMinuteDrivesEntries(t *testing.T) {
	f := newFixture(t, risk.DefaultLimits())
	f.orch.watchlist = []string{"AAPL"}

	f.orch.Tick(f.monday) // Monday 10:30, an entry-scan minute
	assert.Equal(t, 1, f.book.Snapshot().Count())
}

func TestTick_HolidayGate(t *testing.T) {
	f := newFixture(t, risk.DefaultLimits())
	f.orch.watchlist = []string{"AAPL"}
	f.orch.opts.IsTradingDay = func(ctx context.Context, day time.Time) (bool, error) {
		return false, nil
	}

	f.orch.Tick(f.monday)
	assert.Zero(t, f.book.Snapshot().Count())
}

func TestPremarketScan_BuildsWatchlist(t *testing.T) {
	f := newFixture(t, risk.DefaultLimits())
	require.NoError(t, f.orch.premarketScan())
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, f.orch.watchlist)
}

func TestEntryScan_BackfillsMissingWatchlist(t *testing.T) {
	f := newFixture(t, risk.DefaultLimits())
	require.Empty(t, f.orch.watchlist)

	// Started after the premarket trigger: the scan builds the list
	// itself and trades it.
	require.NoError(t, f.orch.entryScan(f.monday))
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, f.orch.watchlist)
	assert.Positive(t, f.book.Snapshot().Count())
}
