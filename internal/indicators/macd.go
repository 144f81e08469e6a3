package indicators

// MACDSeries computes the MACD line (fast EMA minus slow EMA) and its
// signal line (EMA of the MACD line). Both slices are aligned to each
// other and end at the latest close; the signal line is the shorter of
// the two, so callers compare the tails.
func MACDSeries(closes []float64, fast, slow, signal int) (macdLine, signalLine []float64, err error) {
	if len(closes) < slow+signal {
		return nil, nil, ErrInsufficientData
	}

	fastEMA, err := EMASeries(closes, fast)
	if err != nil {
		return nil, nil, err
	}
	slowEMA, err := EMASeries(closes, slow)
	if err != nil {
		return nil, nil, err
	}

	// Both series end at the latest close; trim the fast series to the
	// slow series' length so indexes line up.
	fastEMA = fastEMA[len(fastEMA)-len(slowEMA):]

	macdLine = make([]float64, len(slowEMA))
	for i := range slowEMA {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine, err = EMASeries(macdLine, signal)
	if err != nil {
		return nil, nil, err
	}
	return macdLine, signalLine, nil
}
