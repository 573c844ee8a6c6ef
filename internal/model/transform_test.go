package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestAdstockWeightsNormalized(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		alpha := rapid.Float64Range(0.01, 0.99).Draw(t, "alpha")
		maxLag := rapid.IntRange(1, 20).Draw(t, "maxLag")

		weights := AdstockWeights(alpha, maxLag)
		assert.Equal(t, maxLag, len(weights))

		total := 0.0
		for i, w := range weights {
			total += w
			if i > 0 {
				assert.LessOrEqual(t, w, weights[i-1])
			}
		}
		assert.InDelta(t, 1.0, total, 1e-9)
	})
}

func TestAdstockConstantSeries(t *testing.T) {
	series := []float64{3, 3, 3, 3, 3, 3}
	out := Adstock(series, AdstockWeights(0.5, 3))

	// Once the window is full the convolution reproduces the constant.
	assert.InDelta(t, 3.0, out[5], 1e-9)
	assert.Less(t, out[0], 3.0)
}

func TestHill(t *testing.T) {
	assert.InDelta(t, 0.5, Hill(2, 2, 1.7), 1e-9)
	assert.Equal(t, 0.0, Hill(0, 1, 1))
	assert.Equal(t, 0.0, Hill(-1, 1, 1))

	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Float64Range(0, 1000).Draw(t, "x")
		ec := rapid.Float64Range(0.01, 100).Draw(t, "ec")
		slope := rapid.Float64Range(0.1, 5).Draw(t, "slope")

		y := Hill(x, ec, slope)
		assert.GreaterOrEqual(t, y, 0.0)
		assert.Less(t, y, 1.0)
	})
}
