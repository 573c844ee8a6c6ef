package analysis

import (
	"fmt"
	"sort"
)

func quantile(xs []float64, q float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lower := int(pos)
	if lower >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[lower+1]*frac
}

func quantileMap(xs []float64, qs []float64) map[string]float64 {
	out := make(map[string]float64, len(qs))
	for _, q := range qs {
		out[quantileLabel(q)] = quantile(xs, q)
	}
	return out
}

func quantileLabel(q float64) string {
	return fmt.Sprintf("q%g", q)
}

func meanOf(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}
