// Package broker defines the order execution boundary and its
// implementations: a live Alpaca client and an in-memory paper broker.
package broker

import "context"

// Broker executes option orders and reports account state. SubmitOrder
// blocks until the order fills or the context expires; an expired
// context returns an error and the caller decides how to reconcile.
type Broker interface {
	// SubmitOrder places the intent and waits for its fill.
	SubmitOrder(ctx context.Context, intent OrderIntent) (Fill, error)

	// AccountEquity returns total account equity in dollars.
	AccountEquity(ctx context.Context) (float64, error)

	// MarkPrice returns the current mark for an option contract symbol,
	// per share.
	MarkPrice(ctx context.Context, contractSymbol string) (float64, error)

	Name() string
}
