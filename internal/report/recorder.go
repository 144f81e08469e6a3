// Package report accumulates the day's decisions and renders the daily
// summary to console and Excel.
package report

import (
	"sync"
	"time"

	"swingtrader/internal/portfolio"
)

// SignalRecord is one evaluated symbol during a scan.
type SignalRecord struct {
	Time      time.Time
	Symbol    string
	Direction string
	Strength  float64
	Reasons   []string
}

// DecisionRecord is the outcome of contract selection plus risk review
// for one signal.
type DecisionRecord struct {
	Time     time.Time
	Symbol   string
	Contract string
	Approved bool
	Veto     string
	Qty      int
}

// Summary is the day's activity rolled up at the close.
type Summary struct {
	Date        time.Time
	Signals     []SignalRecord
	Decisions   []DecisionRecord
	Closed      []portfolio.Position
	RealizedPnL float64
	OpenCount   int
	Equity      float64
}

// Recorder collects records over a trading day. Safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	signals   []SignalRecord
	decisions []DecisionRecord
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) RecordSignal(rec SignalRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, rec)
}

func (r *Recorder) RecordDecision(rec DecisionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, rec)
}

// Summarize rolls the day up and clears the recorder for the next one.
func (r *Recorder) Summarize(date time.Time, closed []portfolio.Position, openCount int, equity float64) Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		Date:      date,
		Signals:   r.signals,
		Decisions: r.decisions,
		Closed:    closed,
		OpenCount: openCount,
		Equity:    equity,
	}
	for _, p := range closed {
		s.RealizedPnL += p.RealizedPnL
	}

	r.signals = nil
	r.decisions = nil
	return s
}
