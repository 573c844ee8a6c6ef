package sampler

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lgrosjean/baynext-ml/internal/config"
	"github.com/lgrosjean/baynext-ml/internal/data"
	"github.com/lgrosjean/baynext-ml/internal/model"
)

func testModel(t *testing.T) *model.Model {
	t.Helper()
	spec, err := model.NewModelSpec(config.SpecConfig{
		Prior: config.PriorConfig{
			RoiM: config.DistributionConfig{Distribution: "log_normal", Mu: 0.2, Sigma: 0.9},
		},
		MediaEffectsDist: "log_normal",
		MaxLag:           2,
	})
	if err != nil {
		t.Fatalf("failed to build spec: %v", err)
	}
	input := &data.InputData{
		Times:        []string{"t0", "t1", "t2"},
		Geos:         []string{"national"},
		Population:   []float64{1},
		KpiType:      config.KpiTypeRevenue,
		Kpi:          [][]float64{{1.0, 1.1, 0.9}},
		ControlNames: []string{},
		Controls:     [][][]float64{},
		Channels:     []string{"tv"},
		Media:        [][][]float64{{{10, 12, 9}}},
		Spend:        [][][]float64{{{5, 6, 4}}},
	}
	return model.NewModel(spec, input)
}

type captureProgress struct {
	lock    sync.Mutex
	records map[string]float64
}

func (c *captureProgress) Record(name string, _ int64, value float64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.records == nil {
		c.records = make(map[string]float64)
	}
	c.records[name] = value
}

func TestSamplePriorDeterministic(t *testing.T) {
	m := testModel(t)

	a := SamplePrior(m, 20, 7)
	b := SamplePrior(m, 20, 7)
	assert.Equal(t, a, b)

	c := SamplePrior(m, 20, 8)
	assert.NotEqual(t, a, c)
}

func TestSamplePosteriorShape(t *testing.T) {
	m := testModel(t)
	cfg := config.PosteriorSampleConfig{
		NChains: 3,
		NAdapt:  100,
		NBurnin: 50,
		NKeep:   80,
		Seed:    11,
	}

	progress := &captureProgress{}
	chains, err := SamplePosterior(context.Background(), m, cfg, progress)
	assert.NoError(t, err)
	assert.Equal(t, 3, chains.NChains())
	assert.Equal(t, 80, chains.NKeep())

	nParams := m.Dims().NParams()
	assert.Equal(t, nParams, len(chains.ParamNames))
	for chain := 0; chain < 3; chain++ {
		assert.Equal(t, 80, len(chains.Draws[chain]))
		assert.Equal(t, nParams, len(chains.Draws[chain][0]))
		assert.Equal(t, 80, len(chains.LogPosterior[chain]))
		for _, logp := range chains.LogPosterior[chain] {
			assert.False(t, math.IsInf(logp, -1))
		}
	}

	assert.Contains(t, progress.records, "chain_0/acceptance_rate")
	assert.Contains(t, progress.records, "chain_2/log_posterior")
}

func TestSamplePosteriorDeterministic(t *testing.T) {
	m := testModel(t)
	cfg := config.PosteriorSampleConfig{
		NChains: 2,
		NAdapt:  50,
		NBurnin: 20,
		NKeep:   30,
		Seed:    5,
	}

	a, err := SamplePosterior(context.Background(), m, cfg, nil)
	assert.NoError(t, err)
	b, err := SamplePosterior(context.Background(), m, cfg, nil)
	assert.NoError(t, err)
	assert.Equal(t, a.Draws, b.Draws)
}

func TestSamplePosteriorCancelled(t *testing.T) {
	m := testModel(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SamplePosterior(ctx, m, config.PosteriorSampleConfig{
		NChains: 2,
		NAdapt:  10,
		NBurnin: 10,
		NKeep:   10,
		Seed:    1,
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitRHatIdenticalChains(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	chain := make([]float64, 200)
	for i := range chain {
		chain[i] = rng.NormFloat64()
	}

	// Identical well-mixed chains should sit near 1.
	rhat := SplitRHat([][]float64{chain, chain})
	assert.InDelta(t, 1.0, rhat, 0.1)
}

func TestSplitRHatDivergedChains(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	a := make([]float64, 200)
	b := make([]float64, 200)
	for i := range a {
		a[i] = rng.NormFloat64()
		b[i] = 50 + rng.NormFloat64()
	}

	rhat := SplitRHat([][]float64{a, b})
	assert.Greater(t, rhat, 1.5)
}

func TestEffectiveSampleSize(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	white := make([]float64, 500)
	for i := range white {
		white[i] = rng.NormFloat64()
	}

	ess := EffectiveSampleSize([][]float64{white})
	assert.Greater(t, ess, 250.0)

	// A heavily autocorrelated walk has far fewer effective samples.
	walk := make([]float64, 500)
	for i := 1; i < len(walk); i++ {
		walk[i] = walk[i-1] + 0.1*rng.NormFloat64()
	}
	assert.Less(t, EffectiveSampleSize([][]float64{walk}), ess/2)
}

func TestDiagnosticsCoverAllParams(t *testing.T) {
	m := testModel(t)
	chains, err := SamplePosterior(context.Background(), m, config.PosteriorSampleConfig{
		NChains: 2,
		NAdapt:  50,
		NBurnin: 20,
		NKeep:   60,
		Seed:    2,
	}, nil)
	assert.NoError(t, err)

	diags := Diagnostics(chains)
	assert.Equal(t, m.Dims().NParams(), len(diags))
	for _, d := range diags {
		assert.NotEmpty(t, d.Name)
	}
}
