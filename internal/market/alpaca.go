package market

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"swingtrader/internal/botfail"
	"swingtrader/internal/options"
	"swingtrader/internal/retry"
)

// AlpacaProvider serves bars, quotes and option chains from the Alpaca
// market-data and trading APIs. Chain data is a join: contract terms
// and open interest come from the trading API, greeks and quotes from
// the market-data snapshot endpoint, keyed by OCC symbol.
type AlpacaProvider struct {
	data    *marketdata.Client
	trading *alpaca.Client
	retryC  retry.Config
}

// compile-time interface check
var _ Provider = (*AlpacaProvider)(nil)

func NewAlpacaProvider(apiKey, apiSecret, dataURL, tradingURL string, retryC retry.Config) *AlpacaProvider {
	dataOpts := marketdata.ClientOpts{APIKey: apiKey, APISecret: apiSecret}
	if dataURL != "" {
		dataOpts.BaseURL = dataURL
	}
	tradingOpts := alpaca.ClientOpts{APIKey: apiKey, APISecret: apiSecret}
	if tradingURL != "" {
		tradingOpts.BaseURL = tradingURL
	}
	return &AlpacaProvider{
		data:    marketdata.NewClient(dataOpts),
		trading: alpaca.NewClient(tradingOpts),
		retryC:  retryC,
	}
}

// DailyBars returns up to lookback daily bars for symbol, oldest first.
func (p *AlpacaProvider) DailyBars(ctx context.Context, symbol string, lookback int) ([]Bar, error) {
	var raw []marketdata.Bar
	err := retry.Do(ctx, p.retryC, func() error {
		var callErr error
		// Weekends and holidays thin the calendar out, so over-fetch.
		start := time.Now().AddDate(0, 0, -lookback*2-10)
		raw, callErr = p.data.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame:  marketdata.OneDay,
			Start:      start,
			TotalLimit: lookback * 2,
		})
		if callErr != nil {
			return botfail.Categorize(callErr, "market")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	bars := make([]Bar, 0, len(raw))
	for _, b := range raw {
		bars = append(bars, Bar{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    float64(b.Volume),
		})
	}
	if len(bars) > lookback {
		bars = bars[len(bars)-lookback:]
	}
	return bars, nil
}

// Moves computes each symbol's move from the prior close, in percent.
// Symbols missing a snapshot or a prior close are silently dropped.
func (p *AlpacaProvider) Moves(ctx context.Context, symbols []string) ([]Move, error) {
	var snaps map[string]*marketdata.Snapshot
	err := retry.Do(ctx, p.retryC, func() error {
		var callErr error
		snaps, callErr = p.data.GetSnapshots(symbols, marketdata.GetSnapshotRequest{})
		if callErr != nil {
			return botfail.Categorize(callErr, "market")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	moves := make([]Move, 0, len(symbols))
	for _, sym := range symbols {
		snap := snaps[sym]
		if snap == nil || snap.LatestTrade == nil || snap.PrevDailyBar == nil || snap.PrevDailyBar.Close <= 0 {
			continue
		}
		prev := snap.PrevDailyBar.Close
		last := snap.LatestTrade.Price
		moves = append(moves, Move{
			Symbol:    sym,
			PrevClose: prev,
			LastPrice: last,
			ChangePct: (last - prev) / prev * 100,
		})
	}
	return moves, nil
}

// HasListedOptions reports whether any active option contract exists
// for the underlying.
func (p *AlpacaProvider) HasListedOptions(ctx context.Context, symbol string) (bool, error) {
	contracts, err := p.activeContracts(ctx, symbol, nil, 0, 0)
	if err != nil {
		return false, err
	}
	return len(contracts) > 0, nil
}

// OptionChain returns tradable contracts of the given type expiring
// within [dteMin, dteMax] days, with greeks and quotes attached.
// Contracts missing a delta or a quote are dropped; the selector cannot
// rank them.
func (p *AlpacaProvider) OptionChain(ctx context.Context, underlying string, optType options.Type, dteMin, dteMax int) ([]options.Contract, error) {
	var typ alpaca.OptionType
	switch optType {
	case options.TypeCall:
		typ = alpaca.OptionTypeCall
	case options.TypePut:
		typ = alpaca.OptionTypePut
	default:
		return nil, botfail.NewValidationError("market", fmt.Sprintf("option type %q", optType), nil)
	}

	today := time.Now()
	contracts, err := p.activeContracts(ctx, underlying, &typ, dteMin, dteMax)
	if err != nil {
		return nil, err
	}
	if len(contracts) == 0 {
		return nil, nil
	}

	var snaps map[string]marketdata.OptionSnapshot
	err = retry.Do(ctx, p.retryC, func() error {
		var callErr error
		snaps, callErr = p.data.GetOptionChain(underlying, marketdata.GetOptionChainRequest{
			Type:              marketdata.OptionType(typ),
			ExpirationDateGte: civil.DateOf(today.AddDate(0, 0, dteMin)),
			ExpirationDateLte: civil.DateOf(today.AddDate(0, 0, dteMax)),
		})
		if callErr != nil {
			return botfail.Categorize(callErr, "market")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]options.Contract, 0, len(contracts))
	for _, c := range contracts {
		snap, ok := snaps[c.Symbol]
		if !ok {
			continue
		}
		if mapped, ok := contractFromSDK(c, snap, underlying, optType, today); ok {
			out = append(out, mapped)
		}
	}
	return out, nil
}

// contractFromSDK joins one trading-API contract with its market-data
// snapshot. Contracts missing greeks or a quote are unrankable and are
// dropped.
func contractFromSDK(c alpaca.OptionContract, snap marketdata.OptionSnapshot, underlying string, optType options.Type, today time.Time) (options.Contract, bool) {
	if snap.Greeks == nil || snap.LatestQuote == nil {
		return options.Contract{}, false
	}
	expiry := time.Date(c.ExpirationDate.Year, c.ExpirationDate.Month, c.ExpirationDate.Day, 0, 0, 0, 0, time.UTC)
	var oi int64
	if c.OpenInterest != nil {
		oi = c.OpenInterest.IntPart()
	}
	strike, _ := c.StrikePrice.Float64()
	return options.Contract{
		Symbol:       c.Symbol,
		Underlying:   underlying,
		Type:         optType,
		Strike:       strike,
		Expiration:   expiry,
		DTE:          int(expiry.Sub(today).Hours() / 24),
		Delta:        snap.Greeks.Delta,
		Bid:          snap.LatestQuote.BidPrice,
		Ask:          snap.LatestQuote.AskPrice,
		OpenInterest: oi,
	}, true
}

func (p *AlpacaProvider) activeContracts(ctx context.Context, underlying string, typ *alpaca.OptionType, dteMin, dteMax int) ([]alpaca.OptionContract, error) {
	req := alpaca.GetOptionContractsRequest{
		UnderlyingSymbols: underlying,
		Status:            alpaca.OptionStatusActive,
	}
	if typ != nil {
		req.Type = *typ
		today := time.Now()
		req.ExpirationDateGTE = civil.DateOf(today.AddDate(0, 0, dteMin))
		req.ExpirationDateLTE = civil.DateOf(today.AddDate(0, 0, dteMax))
	}

	var contracts []alpaca.OptionContract
	err := retry.Do(ctx, p.retryC, func() error {
		var callErr error
		contracts, callErr = p.trading.GetOptionContracts(req)
		if callErr != nil {
			return botfail.Categorize(callErr, "market")
		}
		return nil
	})
	return contracts, err
}
