package model

import "math"

// AdstockWeights returns normalized geometric decay weights
// alpha^l / sum(alpha^l) for lags 0..maxLag-1.
func AdstockWeights(alpha float64, maxLag int) []float64 {
	weights := make([]float64, maxLag)
	total := 0.0
	w := 1.0
	for l := 0; l < maxLag; l++ {
		weights[l] = w
		total += w
		w *= alpha
	}
	for l := range weights {
		weights[l] /= total
	}
	return weights
}

// Adstock convolves a series with decay weights, truncating at the series
// start.
func Adstock(series, weights []float64) []float64 {
	out := make([]float64, len(series))
	for t := range series {
		acc := 0.0
		for l, w := range weights {
			if t-l < 0 {
				break
			}
			acc += w * series[t-l]
		}
		out[t] = acc
	}
	return out
}

// Hill is the saturation curve x^s / (x^s + ec^s).
func Hill(x, ec, slope float64) float64 {
	if x <= 0 {
		return 0
	}
	xs := math.Pow(x, slope)
	return xs / (xs + math.Pow(ec, slope))
}

func hillSeries(series []float64, ec, slope float64) []float64 {
	out := make([]float64, len(series))
	for i, x := range series {
		out[i] = Hill(x, ec, slope)
	}
	return out
}
