// Package orchestrator runs the trading loop: a minute ticker asks the
// schedule what is due and drives scans, exits and the daily summary.
// All trading state flows through here in a single goroutine, so ticks
// never overlap.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"swingtrader/internal/botfail"
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

// Options carries the collaborators and tunables for the loop.
type Options struct {
	Schedule *schedule.Schedule
	Scanner  *scanner.Scanner
	Provider market.Provider
	Engine   *signal.Engine
	Selector *options.Selector
	Risk     *risk.Manager
	Book     *portfolio.Manager
	Broker   broker.Broker
	Recorder *report.Recorder
	Notifier notifications.Notifier
	Health   *monitoring.HealthChecker
	Log      *zap.Logger

	// BrokerTimeout bounds each broker call. Calls derive from
	// context.Background so shutdown never abandons an in-flight order.
	BrokerTimeout time.Duration
	BarLookback   int
	ExcelDir      string
	ConsoleReport bool

	// IsTradingDay gates activity on market holidays. Nil means every
	// weekday trades; the schedule already skips weekends.
	IsTradingDay func(ctx context.Context, day time.Time) (bool, error)
}

// Orchestrator owns the daily trading cycle.
type Orchestrator struct {
	opts Options
	log  *zap.Logger

	watchlist   []string
	currentDay  string
	forcedToday bool
}

func New(opts Options) *Orchestrator {
	return &Orchestrator{opts: opts, log: opts.Log}
}

// Run ticks once a minute until ctx is cancelled. The loop is the only
// goroutine touching trading state, so a slow tick delays the next one
// instead of racing it.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.log.Info("orchestrator started", zap.String("broker", o.opts.Broker.Name()))
	o.opts.Health.SetConnected(true)

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.log.Info("orchestrator stopping")
			return ctx.Err()
		case now := <-ticker.C:
			o.Tick(now)
		}
	}
}

// Tick handles one scheduler minute.
func (o *Orchestrator) Tick(now time.Time) {
	started := time.Now()
	defer func() {
		monitoring.ObserveTick(time.Since(started).Seconds())
		o.opts.Health.TickSeen(o.opts.Book.Snapshot().Count())
	}()

	o.rolloverDay(now)

	triggers := o.opts.Schedule.Due(now)
	if len(triggers) == 0 {
		return
	}
	if !o.tradingDay(now) {
		return
	}

	for _, trig := range triggers {
		var err error
		switch trig {
		case schedule.TriggerPremarketScan:
			err = o.premarketScan()
		case schedule.TriggerExitCheck:
			err = o.exitCheck(now, false)
		case schedule.TriggerForcedClose:
			err = o.exitCheck(now, true)
		case schedule.TriggerEntryScan:
			err = o.entryScan(now)
		case schedule.TriggerDailySummary:
			err = o.dailySummary(now)
		}
		if err != nil {
			o.handleTickError(trig, err)
			if botfail.IsInvariant(err) {
				// A broken invariant makes the rest of the tick unsafe.
				return
			}
		}
	}
}

func (o *Orchestrator) rolloverDay(now time.Time) {
	day := now.In(o.opts.Schedule.Location()).Format("2006-01-02")
	if day != o.currentDay {
		o.currentDay = day
		o.forcedToday = false
	}
}

func (o *Orchestrator) tradingDay(now time.Time) bool {
	if o.opts.IsTradingDay == nil {
		return true
	}
	ctx, cancel := o.brokerCtx()
	defer cancel()
	ok, err := o.opts.IsTradingDay(ctx, now)
	if err != nil {
		// Calendar lookup failures keep the bot on the sidelines.
		o.log.Warn("trading-day check failed, skipping tick", zap.Error(err))
		return false
	}
	return ok
}

// brokerCtx derives from Background on purpose: a shutdown must not
// cancel an order that is already at the broker.
func (o *Orchestrator) brokerCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.opts.BrokerTimeout)
}

func (o *Orchestrator) premarketScan() error {
	ctx, cancel := o.brokerCtx()
	defer cancel()

	watchlist, err := o.opts.Scanner.Watchlist(ctx)
	if err != nil {
		return err
	}
	o.watchlist = watchlist
	o.log.Info("watchlist built", zap.Strings("symbols", watchlist))
	return nil
}

// exitCheck marks every open position and submits the exits that are
// due. Forced mode closes everything regardless of levels.
func (o *Orchestrator) exitCheck(now time.Time, forced bool) error {
	if forced {
		o.forcedToday = true
	}

	snap := o.opts.Book.Snapshot()
	if snap.Count() == 0 {
		return nil
	}

	marks := make(map[string]float64, snap.Count())
	for _, p := range snap.Open {
		ctx, cancel := o.brokerCtx()
		mark, err := o.opts.Broker.MarkPrice(ctx, p.Contract.Symbol)
		cancel()
		if err != nil {
			// A missing mark just defers price exits for this position.
			o.log.Warn("mark unavailable", zap.String("contract", p.Contract.Symbol), zap.Error(err))
			monitoring.RecordError(errCategory(err))
			continue
		}
		marks[p.Contract.Symbol] = mark
	}

	intents, err := o.opts.Book.EvaluateExits(now, marks, forced)
	if err != nil {
		return err
	}

	for _, intent := range intents {
		if err := o.submitExit(intent); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) submitExit(intent broker.OrderIntent) error {
	ctx, cancel := o.brokerCtx()
	fill, err := o.opts.Broker.SubmitOrder(ctx, intent)
	cancel()
	if err != nil {
		monitoring.RecordError(errCategory(err))
		o.log.Warn("exit order failed",
			zap.String("position", intent.PositionID),
			zap.String("intent", intent.ID),
			zap.Error(err))
		return o.opts.Book.ResolveExit(intent.PositionID, broker.Fill{}, err)
	}

	if err := o.opts.Book.ResolveExit(intent.PositionID, fill, nil); err != nil {
		return err
	}
	pnl := o.closedPnL(intent.PositionID)
	monitoring.RecordExit(string(intent.Reason), pnl)
	o.notify("success", fmt.Sprintf("Closed %s x%d @ %.2f (%s), P&L $%.2f",
		intent.Contract.Symbol, fill.Qty, fill.Price, intent.Reason, pnl))
	return nil
}

func (o *Orchestrator) closedPnL(positionID string) float64 {
	for _, p := range o.opts.Book.ClosedSince(time.Time{}) {
		if p.ID == positionID {
			return p.RealizedPnL
		}
	}
	return 0
}

// entryScan evaluates the watchlist and opens at most the positions the
// risk limits allow. After a forced liquidation the rest of the day
// stays flat.
func (o *Orchestrator) entryScan(now time.Time) error {
	if o.forcedToday {
		o.log.Info("skipping entry scan after forced close")
		return nil
	}
	if len(o.watchlist) == 0 {
		// The premarket trigger was missed, a mid-day start for example.
		o.log.Info("no watchlist yet, running premarket scan first")
		if err := o.premarketScan(); err != nil {
			return err
		}
	}
	if len(o.watchlist) == 0 {
		o.log.Info("entry scan with empty watchlist")
		return nil
	}

	for _, symbol := range o.watchlist {
		if err := o.evaluateSymbol(now, symbol); err != nil {
			if botfail.IsInvariant(err) {
				return err
			}
			// One symbol failing must not starve the rest of the list.
			monitoring.RecordError(errCategory(err))
			o.log.Warn("symbol evaluation failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}
	return nil
}

func (o *Orchestrator) evaluateSymbol(now time.Time, symbol string) error {
	ctx, cancel := o.brokerCtx()
	bars, err := o.opts.Provider.DailyBars(ctx, symbol, o.opts.BarLookback)
	cancel()
	if err != nil {
		return err
	}

	sig := o.opts.Engine.Evaluate(symbol, bars, now)
	o.opts.Recorder.RecordSignal(report.SignalRecord{
		Time:      now,
		Symbol:    symbol,
		Direction: sig.Direction.String(),
		Strength:  sig.Strength,
		Reasons:   sig.Reasons,
	})
	if sig.Direction == signal.DirectionNone {
		return nil
	}
	monitoring.RecordSignal(symbol, sig.Direction.String())
	o.log.Info("signal", zap.String("symbol", symbol),
		zap.String("direction", sig.Direction.String()),
		zap.Float64("strength", sig.Strength),
		zap.Strings("reasons", sig.Reasons))

	optType, _ := sig.Direction.OptionType()
	filter := o.opts.Selector.Filter()
	ctx, cancel = o.brokerCtx()
	chain, err := o.opts.Provider.OptionChain(ctx, symbol, optType, filter.DTEMin, filter.DTEMax)
	cancel()
	if err != nil {
		return err
	}

	contract, ok := o.opts.Selector.Select(optType, chain)
	if !ok {
		o.opts.Recorder.RecordDecision(report.DecisionRecord{
			Time: now, Symbol: symbol, Veto: "no contract passed the filters",
		})
		return nil
	}

	ctx, cancel = o.brokerCtx()
	equity, err := o.opts.Broker.AccountEquity(ctx)
	cancel()
	if err != nil {
		return err
	}
	monitoring.SetAccountEquity(equity)

	decision := o.opts.Risk.Evaluate(sig, contract, equity, o.opts.Book.Snapshot(), now)
	o.opts.Recorder.RecordDecision(report.DecisionRecord{
		Time:     now,
		Symbol:   symbol,
		Contract: contract.Symbol,
		Approved: decision.Approved,
		Veto:     decision.Veto,
		Qty:      decision.Plan.Intent.Qty,
	})
	if !decision.Approved {
		monitoring.RecordVeto()
		o.log.Info("entry vetoed", zap.String("symbol", symbol), zap.String("reason", decision.Veto))
		return nil
	}

	return o.submitEntry(decision.Plan)
}

func (o *Orchestrator) submitEntry(plan portfolio.EntryPlan) error {
	ctx, cancel := o.brokerCtx()
	fill, err := o.opts.Broker.SubmitOrder(ctx, plan.Intent)
	cancel()
	if err != nil {
		// No fill means no position; the intent ID protects a replay.
		o.log.Warn("entry order failed",
			zap.String("intent", plan.Intent.ID),
			zap.String("contract", plan.Intent.Contract.Symbol),
			zap.Error(err))
		return err
	}

	pos, err := o.opts.Book.RegisterEntry(plan, fill)
	if err != nil {
		return err
	}
	monitoring.RecordEntry(pos.Underlying)
	monitoring.SetOpenPositions(o.opts.Book.Snapshot().Count())
	o.notify("info", fmt.Sprintf("Opened %s x%d @ %.2f, stop %.2f, target %.2f",
		pos.Contract.Symbol, pos.Qty, pos.EntryPrice, pos.StopPrice, pos.TargetPrice))
	return nil
}

func (o *Orchestrator) dailySummary(now time.Time) error {
	loc := o.opts.Schedule.Location()
	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	ctx, cancel := o.brokerCtx()
	equity, err := o.opts.Broker.AccountEquity(ctx)
	cancel()
	if err != nil {
		o.log.Warn("equity unavailable for summary", zap.Error(err))
	}

	snap := o.opts.Book.Snapshot()
	closed := o.opts.Book.ClosedSince(dayStart)
	summary := o.opts.Recorder.Summarize(local, closed, snap.Count(), equity)

	monitoring.SetOpenPositions(snap.Count())
	if o.opts.ConsoleReport {
		fmt.Println(report.RenderConsole(summary))
	}
	if o.opts.ExcelDir != "" {
		path, err := report.WriteExcel(summary, o.opts.ExcelDir)
		if err != nil {
			o.log.Warn("excel summary failed", zap.Error(err))
		} else {
			o.log.Info("excel summary written", zap.String("path", path))
		}
	}
	o.notify("info", fmt.Sprintf("Daily summary: %d closed, realized $%.2f, %d open, equity $%.2f",
		len(closed), summary.RealizedPnL, snap.Count(), equity))
	return nil
}

func (o *Orchestrator) handleTickError(trig schedule.Trigger, err error) {
	monitoring.RecordError(errCategory(err))
	o.opts.Health.ReportError(err.Error())
	o.log.Error("trigger failed", zap.String("trigger", string(trig)), zap.Error(err))
	if botfail.IsInvariant(err) || botfail.IsFatal(err) {
		o.notify("error", fmt.Sprintf("%s failed: %v", trig, err))
	}
}

func (o *Orchestrator) notify(level, msg string) {
	if err := o.opts.Notifier.SendAlert(level, msg); err != nil {
		o.log.Warn("notification failed", zap.Error(err))
	}
}

func errCategory(err error) string {
	if be := botfail.Categorize(err, "orchestrator"); be != nil {
		return string(be.Category)
	}
	return "unknown"
}
