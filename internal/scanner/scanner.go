// Package scanner builds the day's watchlist from premarket movers.
package scanner

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"swingtrader/internal/market"
)

// Config bounds the watchlist.
type Config struct {
	// Core symbols trade every day regardless of premarket movement.
	Core []string `yaml:"core_symbols"`
	// Universe is the symbol pool the movers scan ranks.
	Universe []string `yaml:"universe"`
	// TopN caps how many movers join the core list.
	TopN int `yaml:"top_n"`
	// MinMovePct filters out symbols that barely moved, in percent.
	MinMovePct float64 `yaml:"min_move_pct"`
}

func DefaultConfig() Config {
	return Config{
		Core: []string{
			"TSLA", "SPY", "QQQ", "NVDA", "AAPL", "AMD", "META", "AMZN",
			"MSFT", "GOOGL", "NFLX", "CRM", "AVGO", "SHOP", "COIN", "PLTR",
		},
		Universe: []string{
			"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "META", "TSLA",
			"AMD", "NFLX", "AVGO", "CRM", "ORCL", "QCOM", "INTC", "MU",
			"SPY", "QQQ", "IWM", "UBER", "SHOP", "PYPL", "ADBE", "COIN", "PLTR",
		},
		TopN:       5,
		MinMovePct: 1.0,
	}
}

// Scanner ranks premarket movers and keeps only optionable names.
type Scanner struct {
	cfg      Config
	provider market.Provider
	log      *zap.Logger
}

func New(cfg Config, provider market.Provider, log *zap.Logger) *Scanner {
	return &Scanner{cfg: cfg, provider: provider, log: log}
}

// Watchlist builds the day's list: the core symbols plus up to TopN
// premarket movers from the universe, ordered by absolute move, largest
// first. Movers without listed options are dropped; a symbol whose
// options check fails is skipped rather than failing the whole scan.
// When the movers scan itself fails the core list still trades.
func (s *Scanner) Watchlist(ctx context.Context) ([]string, error) {
	watchlist := append([]string(nil), s.cfg.Core...)
	seen := make(map[string]bool, len(watchlist))
	for _, sym := range watchlist {
		seen[sym] = true
	}

	moves, err := s.provider.Moves(ctx, s.cfg.Universe)
	if err != nil {
		if len(watchlist) == 0 {
			return nil, err
		}
		s.log.Warn("premarket movers scan failed, core watchlist only", zap.Error(err))
		return watchlist, nil
	}

	sort.SliceStable(moves, func(i, j int) bool {
		return math.Abs(moves[i].ChangePct) > math.Abs(moves[j].ChangePct)
	})

	added := 0
	for _, mv := range moves {
		if added >= s.cfg.TopN {
			break
		}
		if math.Abs(mv.ChangePct) < s.cfg.MinMovePct {
			// Sorted by magnitude, nothing further passes either.
			break
		}
		if seen[mv.Symbol] {
			continue
		}
		ok, err := s.provider.HasListedOptions(ctx, mv.Symbol)
		if err != nil {
			s.log.Warn("options check failed, skipping symbol",
				zap.String("symbol", mv.Symbol), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		watchlist = append(watchlist, mv.Symbol)
		seen[mv.Symbol] = true
		added++
		s.log.Info("watchlist mover",
			zap.String("symbol", mv.Symbol),
			zap.Float64("move_pct", mv.ChangePct))
	}
	return watchlist, nil
}
