package broker

import (
	"testing"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/stretchr/testify/assert"
)

func TestMarkFromSnapshot_QuoteMidpoint(t *testing.T) {
	snap := &marketdata.OptionSnapshot{
		LatestQuote: &marketdata.OptionQuote{BidPrice: 1.80, AskPrice: 2.00},
		LatestTrade: &marketdata.OptionTrade{Price: 1.95},
	}
	mark, ok := markFromSnapshot(snap)
	assert.True(t, ok)
	assert.InDelta(t, 1.90, mark, 1e-9, "two-sided book uses the midpoint")
}

func TestMarkFromSnapshot_OneSidedBookFallsBackToTrade(t *testing.T) {
	snap := &marketdata.OptionSnapshot{
		LatestQuote: &marketdata.OptionQuote{BidPrice: 0, AskPrice: 2.00},
		LatestTrade: &marketdata.OptionTrade{Price: 1.95},
	}
	mark, ok := markFromSnapshot(snap)
	assert.True(t, ok)
	assert.Equal(t, 1.95, mark)
}

func TestMarkFromSnapshot_NoData(t *testing.T) {
	_, ok := markFromSnapshot(nil)
	assert.False(t, ok)

	_, ok = markFromSnapshot(&marketdata.OptionSnapshot{})
	assert.False(t, ok)
}
