package indicators

// RelativeVolume returns the latest volume as a multiple of the average
// volume over the preceding window bars (the latest bar excluded). A
// non-positive average yields 1 so a dead tape never inflates a signal.
func RelativeVolume(volumes []float64, window int) (float64, error) {
	if window <= 0 || len(volumes) < window+1 {
		return 0, ErrInsufficientData
	}
	current := volumes[len(volumes)-1]
	avg := SMA(volumes[len(volumes)-window-1 : len(volumes)-1])
	if avg <= 0 {
		return 1, nil
	}
	return current / avg, nil
}
