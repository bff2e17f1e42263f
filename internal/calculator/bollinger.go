package calculator

// Bands is the Bollinger band triple, each index-aligned with the input prices.
type Bands struct {
	Window int
	K      float64
	Mean   []float64
	Upper  []float64
	Lower  []float64
}

// BollingerBands computes mean ± k·std over a trailing window. The first
// window-1 entries of every band are NaN.
func BollingerBands(prices []float64, window int, k float64) Bands {
	mean := RollingMean(prices, window)
	std := RollingStd(prices, window)

	upper := make([]float64, len(prices))
	lower := make([]float64, len(prices))
	for i := range prices {
		upper[i] = mean[i] + k*std[i]
		lower[i] = mean[i] - k*std[i]
	}
	return Bands{Window: window, K: k, Mean: mean, Upper: upper, Lower: lower}
}
