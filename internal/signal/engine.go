package signal

import (
	"fmt"
	"time"

	"swingtrader/internal/indicators"
	"swingtrader/internal/market"
)

// Config holds the indicator parameters and vote weights for the engine.
type Config struct {
	RSIPeriod     int     `yaml:"rsi_period"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`

	MACDFast   int `yaml:"macd_fast"`
	MACDSlow   int `yaml:"macd_slow"`
	MACDSignal int `yaml:"macd_signal"`

	EMAFast int `yaml:"ema_fast"`
	EMASlow int `yaml:"ema_slow"`

	VolumeWindow    int     `yaml:"volume_window"`
	VolumeThreshold float64 `yaml:"volume_threshold"`

	WeightRSI  float64 `yaml:"weight_rsi"`
	WeightMACD float64 `yaml:"weight_macd"`
	WeightEMA  float64 `yaml:"weight_ema"`

	// ScoreThreshold is the minimum absolute weighted score required
	// before a direction is emitted.
	ScoreThreshold float64 `yaml:"score_threshold"`
}

// DefaultConfig returns the standard swing parameters: RSI(14) 30/70,
// MACD(12,26,9), EMA 9/21 and a 20-bar volume window at 1.5x.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:       14,
		RSIOversold:     30,
		RSIOverbought:   70,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		EMAFast:         9,
		EMASlow:         21,
		VolumeWindow:    20,
		VolumeThreshold: 1.5,
		WeightRSI:       1.0,
		WeightMACD:      1.0,
		WeightEMA:       1.0,
		ScoreThreshold:  2.0,
	}
}

// MinBars is the shortest bar history the engine can evaluate with the
// given config. Shorter histories yield a no-trade signal, never an error.
func (c Config) MinBars() int {
	min := c.MACDSlow + c.MACDSignal
	if n := c.RSIPeriod + 2; n > min {
		min = n
	}
	if n := c.EMASlow + 1; n > min {
		min = n
	}
	if n := c.VolumeWindow + 1; n > min {
		min = n
	}
	return min
}

// Engine evaluates symbols against the configured indicator set. It is
// stateless and safe for concurrent use.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate scores one symbol from its daily bars as of the given time.
// The same bars always produce the same direction and strength.
// Histories shorter than MinBars return a DirectionNone signal with
// zero strength.
func (e *Engine) Evaluate(symbol string, bars []market.Bar, at time.Time) Signal {
	sig := Signal{Symbol: symbol, Direction: DirectionNone, At: at}
	if len(bars) < e.cfg.MinBars() {
		sig.Reasons = append(sig.Reasons, fmt.Sprintf("history too short: %d bars, need %d", len(bars), e.cfg.MinBars()))
		return sig
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	sig.Votes = append(sig.Votes, e.rsiVote(closes))
	sig.Votes = append(sig.Votes, e.macdVote(closes))
	sig.Votes = append(sig.Votes, e.emaVote(closes))

	score := 0.0
	totalWeight := 0.0
	for _, v := range sig.Votes {
		score += float64(v.Value) * v.Weight
		totalWeight += v.Weight
		if v.Value != 0 {
			sig.Reasons = append(sig.Reasons, v.Note)
		}
	}
	sig.Score = score

	if totalWeight == 0 || score < e.cfg.ScoreThreshold && score > -e.cfg.ScoreThreshold {
		return sig
	}

	if score > 0 {
		sig.Direction = DirectionBullish
	} else {
		sig.Direction = DirectionBearish
	}
	sig.Strength = abs(score) / totalWeight

	// Volume is advisory only: it annotates a signal but never votes.
	if rv, err := indicators.RelativeVolume(volumes, e.cfg.VolumeWindow); err == nil && rv >= e.cfg.VolumeThreshold {
		sig.Reasons = append(sig.Reasons, fmt.Sprintf("volume %.1fx the %d-day average", rv, e.cfg.VolumeWindow))
	}
	return sig
}

// rsiVote is bullish when RSI crosses up through the oversold line or
// sits below it, bearish on the mirror condition at the overbought line.
func (e *Engine) rsiVote(closes []float64) Vote {
	v := Vote{Indicator: "RSI", Weight: e.cfg.WeightRSI}
	series, err := indicators.RSISeries(closes, e.cfg.RSIPeriod)
	if err != nil || len(series) < 2 {
		v.Note = "RSI: insufficient data"
		return v
	}
	cur, prev := series[len(series)-1], series[len(series)-2]
	switch {
	case prev < e.cfg.RSIOversold && cur >= e.cfg.RSIOversold:
		v.Value = 1
		v.Note = fmt.Sprintf("RSI crossed up through %.0f (%.1f)", e.cfg.RSIOversold, cur)
	case cur < e.cfg.RSIOversold:
		v.Value = 1
		v.Note = fmt.Sprintf("RSI oversold at %.1f", cur)
	case prev > e.cfg.RSIOverbought && cur <= e.cfg.RSIOverbought:
		v.Value = -1
		v.Note = fmt.Sprintf("RSI crossed down through %.0f (%.1f)", e.cfg.RSIOverbought, cur)
	case cur > e.cfg.RSIOverbought:
		v.Value = -1
		v.Note = fmt.Sprintf("RSI overbought at %.1f", cur)
	}
	return v
}

// macdVote fires on a MACD line crossing its signal line on the latest bar.
func (e *Engine) macdVote(closes []float64) Vote {
	v := Vote{Indicator: "MACD", Weight: e.cfg.WeightMACD}
	macd, sigLine, err := indicators.MACDSeries(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
	if err != nil || len(sigLine) < 2 {
		v.Note = "MACD: insufficient data"
		return v
	}
	// The signal line is shorter than the MACD line; align on the tail.
	mCur, mPrev := macd[len(macd)-1], macd[len(macd)-2]
	sCur, sPrev := sigLine[len(sigLine)-1], sigLine[len(sigLine)-2]
	switch {
	case mPrev <= sPrev && mCur > sCur:
		v.Value = 1
		v.Note = "MACD crossed above its signal line"
	case mPrev >= sPrev && mCur < sCur:
		v.Value = -1
		v.Note = "MACD crossed below its signal line"
	}
	return v
}

// emaVote reflects which side of the slow EMA the fast EMA sits on.
func (e *Engine) emaVote(closes []float64) Vote {
	v := Vote{Indicator: "EMA", Weight: e.cfg.WeightEMA}
	fast, err := indicators.EMASeries(closes, e.cfg.EMAFast)
	if err != nil {
		v.Note = "EMA: insufficient data"
		return v
	}
	slow, err := indicators.EMASeries(closes, e.cfg.EMASlow)
	if err != nil {
		v.Note = "EMA: insufficient data"
		return v
	}
	fCur, sCur := fast[len(fast)-1], slow[len(slow)-1]
	switch {
	case fCur > sCur:
		v.Value = 1
		v.Note = fmt.Sprintf("EMA%d above EMA%d", e.cfg.EMAFast, e.cfg.EMASlow)
	case fCur < sCur:
		v.Value = -1
		v.Note = fmt.Sprintf("EMA%d below EMA%d", e.cfg.EMAFast, e.cfg.EMASlow)
	}
	return v
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
