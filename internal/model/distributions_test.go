package model

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/lgrosjean/baynext-ml/internal/config"
)

func TestNormalLogProb(t *testing.T) {
	d := Normal{Mu: 1, Sigma: 2}
	assert.InDelta(t, -math.Log(2)-logSqrt2Pi, d.LogProb(1), 1e-12)
	assert.Equal(t, 1.0, d.Mean())
}

func TestLogNormal(t *testing.T) {
	d := LogNormal{Mu: 0.2, Sigma: 0.9}
	assert.InDelta(t, math.Exp(0.2+0.9*0.9/2), d.Mean(), 1e-12)
	assert.True(t, math.IsInf(d.LogProb(0), -1))
	assert.True(t, math.IsInf(d.LogProb(-1), -1))

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		assert.Greater(t, d.Sample(rng), 0.0)
	}
}

func TestHalfNormal(t *testing.T) {
	d := HalfNormal{Sigma: 5}
	assert.InDelta(t, 5*math.Sqrt(2/math.Pi), d.Mean(), 1e-12)
	assert.True(t, math.IsInf(d.LogProb(-0.1), -1))

	// Density doubles the underlying normal on the half line.
	n := Normal{Mu: 0, Sigma: 5}
	assert.InDelta(t, math.Ln2+n.LogProb(3), d.LogProb(3), 1e-12)
}

func TestUniform(t *testing.T) {
	d := Uniform{Low: 0, High: 1}
	assert.InDelta(t, 0.0, d.LogProb(0.4), 1e-12)
	assert.True(t, math.IsInf(d.LogProb(1.5), -1))

	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		rng := rand.New(rand.NewSource(seed))
		x := d.Sample(rng)
		assert.GreaterOrEqual(t, x, 0.0)
		assert.Less(t, x, 1.0)
	})
}

func TestNewDistribution(t *testing.T) {
	d, err := NewDistribution(config.DistributionConfig{Distribution: "log_normal", Mu: 0.2, Sigma: 0.9})
	assert.NoError(t, err)
	assert.IsType(t, LogNormal{}, d)

	_, err = NewDistribution(config.DistributionConfig{Distribution: "cauchy"})
	assert.ErrorIs(t, err, ErrUnknownDistribution)
}
