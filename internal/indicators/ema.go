// Package indicators provides the technical indicator math behind the
// signal engine. Every function is a pure computation over a price
// series: identical input always yields identical output, and a short
// series is reported with ErrInsufficientData, which callers treat as
// "no signal" rather than failure.
package indicators

import "errors"

// ErrInsufficientData is returned when a series is shorter than the
// indicator's minimum lookback.
var ErrInsufficientData = errors.New("insufficient data for indicator calculation")

// EMASeries computes the exponential moving average of values. The
// result has one entry per input starting at index period-1; the first
// entry is seeded with the SMA of the first period values.
func EMASeries(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("ema period must be positive")
	}
	if len(values) < period {
		return nil, ErrInsufficientData
	}

	alpha := 2.0 / float64(period+1)

	sum := 0.0
	for _, v := range values[:period] {
		sum += v
	}

	out := make([]float64, 0, len(values)-period+1)
	ema := sum / float64(period)
	out = append(out, ema)
	for _, v := range values[period:] {
		ema = v*alpha + ema*(1-alpha)
		out = append(out, ema)
	}
	return out, nil
}

// SMA computes the simple moving average of values.
func SMA(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
