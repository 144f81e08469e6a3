package broker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swingtrader/internal/botfail"
	"swingtrader/internal/retry"
)

// Alpaca executes orders against the Alpaca trading API. Every order is
// a limit day order carrying the intent ID as client order ID, so a
// resubmitted intent resolves to the already-placed order instead of a
// second one.
type Alpaca struct {
	trading  *alpaca.Client
	data     *marketdata.Client
	retryC   retry.Config
	pollEach time.Duration
	log      *zap.Logger
}

var _ Broker = (*Alpaca)(nil)

func NewAlpaca(apiKey, apiSecret, tradingURL, dataURL string, retryC retry.Config, log *zap.Logger) *Alpaca {
	tOpts := alpaca.ClientOpts{APIKey: apiKey, APISecret: apiSecret}
	if tradingURL != "" {
		tOpts.BaseURL = tradingURL
	}
	dOpts := marketdata.ClientOpts{APIKey: apiKey, APISecret: apiSecret}
	if dataURL != "" {
		dOpts.BaseURL = dataURL
	}
	return &Alpaca{
		trading:  alpaca.NewClient(tOpts),
		data:     marketdata.NewClient(dOpts),
		retryC:   retryC,
		pollEach: 2 * time.Second,
		log:      log,
	}
}

func (a *Alpaca) Name() string { return "alpaca" }

// SubmitOrder places the intent and polls until the order fills or the
// context expires. If an order with the same client order ID already
// exists, that order is adopted instead of placing a new one.
func (a *Alpaca) SubmitOrder(ctx context.Context, intent OrderIntent) (Fill, error) {
	order, err := a.placeOrAdopt(intent)
	if err != nil {
		return Fill{}, err
	}

	for {
		switch order.Status {
		case "filled":
			return a.fillFrom(intent, order), nil
		case "canceled", "expired", "rejected", "done_for_day":
			return Fill{}, botfail.NewOrderError("alpaca",
				fmt.Sprintf("order %s ended %s", order.ID, order.Status), nil)
		}

		select {
		case <-ctx.Done():
			a.log.Warn("order not filled before deadline",
				zap.String("intent", intent.ID),
				zap.String("order", order.ID),
				zap.String("status", string(order.Status)))
			return Fill{}, botfail.NewOrderError("alpaca",
				fmt.Sprintf("order %s unfilled at deadline", order.ID), ctx.Err())
		case <-time.After(a.pollEach):
		}

		refreshed, pollErr := a.trading.GetOrder(order.ID)
		if pollErr != nil {
			// Transient poll failures keep the last known order state.
			a.log.Warn("order poll failed", zap.String("order", order.ID), zap.Error(pollErr))
			continue
		}
		order = refreshed
	}
}

func (a *Alpaca) placeOrAdopt(intent OrderIntent) (*alpaca.Order, error) {
	qty := decimal.NewFromInt(int64(intent.Qty))
	limit := decimal.NewFromFloat(intent.LimitPrice)
	side := alpaca.Buy
	if intent.Side == SideSell {
		side = alpaca.Sell
	}

	order, err := a.trading.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:        intent.Contract.Symbol,
		Qty:           &qty,
		Side:          side,
		Type:          alpaca.Limit,
		LimitPrice:    &limit,
		TimeInForce:   alpaca.Day,
		ClientOrderID: intent.ID,
	})
	if err == nil {
		a.log.Info("order placed",
			zap.String("intent", intent.ID),
			zap.String("order", order.ID),
			zap.String("symbol", intent.Contract.Symbol),
			zap.String("side", string(intent.Side)),
			zap.Int("qty", intent.Qty),
			zap.Float64("limit", intent.LimitPrice))
		return order, nil
	}

	if strings.Contains(strings.ToLower(err.Error()), "client_order_id must be unique") {
		existing, lookupErr := a.trading.GetOrderByClientOrderID(intent.ID)
		if lookupErr == nil {
			a.log.Info("adopted existing order for intent",
				zap.String("intent", intent.ID),
				zap.String("order", existing.ID))
			return existing, nil
		}
	}
	return nil, botfail.Categorize(err, "alpaca")
}

func (a *Alpaca) fillFrom(intent OrderIntent, order *alpaca.Order) Fill {
	price := intent.LimitPrice
	if order.FilledAvgPrice != nil {
		price, _ = order.FilledAvgPrice.Float64()
	}
	filledAt := time.Now()
	if order.FilledAt != nil {
		filledAt = *order.FilledAt
	}
	qty := int(order.FilledQty.IntPart())
	return Fill{
		OrderID:  order.ID,
		IntentID: intent.ID,
		Symbol:   intent.Contract.Symbol,
		Side:     intent.Side,
		Qty:      qty,
		Price:    price,
		FilledAt: filledAt,
	}
}

func (a *Alpaca) AccountEquity(ctx context.Context) (float64, error) {
	var equity float64
	err := retry.Do(ctx, a.retryC, func() error {
		acct, callErr := a.trading.GetAccount()
		if callErr != nil {
			return botfail.Categorize(callErr, "alpaca")
		}
		equity, _ = acct.Equity.Float64()
		return nil
	})
	return equity, err
}

// MarkPrice returns the quote midpoint for an option symbol, falling
// back to the last trade when the book is one-sided.
func (a *Alpaca) MarkPrice(ctx context.Context, contractSymbol string) (float64, error) {
	var mark float64
	err := retry.Do(ctx, a.retryC, func() error {
		snap, callErr := a.data.GetOptionSnapshot(contractSymbol, marketdata.GetOptionSnapshotRequest{})
		if callErr != nil {
			return botfail.Categorize(callErr, "alpaca")
		}
		m, ok := markFromSnapshot(snap)
		if !ok {
			return botfail.NewMarketDataError("alpaca",
				fmt.Sprintf("no mark available for %s", contractSymbol), nil).WithRetryable(false)
		}
		mark = m
		return nil
	})
	return mark, err
}

// markFromSnapshot derives a mark from an option snapshot: quote
// midpoint when both sides are live, last trade otherwise.
func markFromSnapshot(snap *marketdata.OptionSnapshot) (float64, bool) {
	if snap == nil {
		return 0, false
	}
	if q := snap.LatestQuote; q != nil && q.BidPrice > 0 && q.AskPrice > 0 {
		return (q.BidPrice + q.AskPrice) / 2, true
	}
	if t := snap.LatestTrade; t != nil && t.Price > 0 {
		return t.Price, true
	}
	return 0, false
}
