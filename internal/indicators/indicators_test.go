package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func risingCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100.0 + float64(i)
	}
	return out
}

func fallingCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 200.0 - float64(i)
	}
	return out
}

func flatCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100.0
	}
	return out
}

func TestEMASeries_InsufficientData(t *testing.T) {
	_, err := EMASeries(risingCloses(5), 10)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEMASeries_SeededWithSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	out, err := EMASeries(closes, 5)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 3.0, out[0], 1e-9)
}

func TestEMASeries_TracksTrend(t *testing.T) {
	out, err := EMASeries(risingCloses(50), 9)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	// In a steady uptrend the EMA lags price but keeps rising.
	for i := 1; i < len(out); i++ {
		assert.Greater(t, out[i], out[i-1])
	}
}

func TestRSISeries_InsufficientData(t *testing.T) {
	_, err := RSISeries(risingCloses(14), 14)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRSISeries_Range(t *testing.T) {
	for _, closes := range [][]float64{risingCloses(60), fallingCloses(60), flatCloses(60)} {
		out, err := RSISeries(closes, 14)
		require.NoError(t, err)
		for _, v := range out {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestRSISeries_Extremes(t *testing.T) {
	up, err := RSISeries(risingCloses(60), 14)
	require.NoError(t, err)
	assert.Equal(t, 100.0, up[len(up)-1], "all gains should pin RSI at 100")

	down, err := RSISeries(fallingCloses(60), 14)
	require.NoError(t, err)
	assert.Less(t, down[len(down)-1], 30.0, "all losses should push RSI deeply oversold")
}

func TestRSISeries_Deterministic(t *testing.T) {
	closes := risingCloses(40)
	a, err := RSISeries(closes, 14)
	require.NoError(t, err)
	b, err := RSISeries(closes, 14)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMACDSeries_InsufficientData(t *testing.T) {
	_, _, err := MACDSeries(risingCloses(30), 12, 26, 9)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMACDSeries_TrendSign(t *testing.T) {
	macd, sig, err := MACDSeries(risingCloses(80), 12, 26, 9)
	require.NoError(t, err)
	require.NotEmpty(t, sig)
	assert.Greater(t, macd[len(macd)-1], 0.0, "fast EMA above slow EMA in an uptrend")

	macd, _, err = MACDSeries(fallingCloses(80), 12, 26, 9)
	require.NoError(t, err)
	assert.Less(t, macd[len(macd)-1], 0.0, "fast EMA below slow EMA in a downtrend")
}

func TestMACDSeries_FlatIsNearZero(t *testing.T) {
	macd, sig, err := MACDSeries(flatCloses(80), 12, 26, 9)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, macd[len(macd)-1], 1e-9)
	assert.InDelta(t, 0.0, sig[len(sig)-1], 1e-9)
}

func TestRelativeVolume(t *testing.T) {
	vols := make([]float64, 21)
	for i := range vols {
		vols[i] = 1000
	}
	vols[20] = 2000

	rv, err := RelativeVolume(vols, 20)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, rv, 1e-9)
}

func TestRelativeVolume_ShortSeries(t *testing.T) {
	_, err := RelativeVolume([]float64{1, 2, 3}, 20)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRelativeVolume_DeadTape(t *testing.T) {
	vols := make([]float64, 25)
	vols[24] = 500
	rv, err := RelativeVolume(vols, 20)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rv)
}
