package sampler

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/lgrosjean/baynext-ml/internal/config"
	"github.com/lgrosjean/baynext-ml/internal/model"
)

const (
	targetAcceptance = 0.234
	adaptWindow      = 50
	chainSeedStride  = 1000003
)

// Progress receives per-chain sampling metrics. Implementations must be
// safe for concurrent use.
type Progress interface {
	Record(name string, step int64, value float64)
}

// Chains holds posterior draws as [chain][keep][param].
type Chains struct {
	ParamNames   []string
	Draws        [][][]float64
	LogPosterior [][]float64
	Acceptance   []float64
}

func (c *Chains) NChains() int {
	return len(c.Draws)
}

func (c *Chains) NKeep() int {
	if len(c.Draws) == 0 {
		return 0
	}
	return len(c.Draws[0])
}

// ParamDraws merges one parameter across chains, preserving chain order.
func (c *Chains) ParamDraws(param int) [][]float64 {
	out := make([][]float64, len(c.Draws))
	for chain := range c.Draws {
		out[chain] = make([]float64, len(c.Draws[chain]))
		for i, draw := range c.Draws[chain] {
			out[chain][i] = draw[param]
		}
	}
	return out
}

// SamplePosterior runs one adaptive random-walk Metropolis chain per
// configured chain, in parallel bounded by a weighted semaphore. Each chain
// derives its own seed so results are reproducible regardless of
// scheduling. A cancelled context stops all chains.
func SamplePosterior(ctx context.Context, m *model.Model, cfg config.PosteriorSampleConfig, progress Progress) (*Chains, error) {
	dims := m.Dims()
	chains := &Chains{
		ParamNames:   dims.ParamNames(m.Data.Channels, m.Data.ControlNames, m.Data.Geos),
		Draws:        make([][][]float64, cfg.NChains),
		LogPosterior: make([][]float64, cfg.NChains),
		Acceptance:   make([]float64, cfg.NChains),
	}

	sem := semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))
	var wg sync.WaitGroup
	errs := make([]error, cfg.NChains)

	for chain := 0; chain < cfg.NChains; chain++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(chain int) {
			defer wg.Done()
			defer sem.Release(1)

			seed := cfg.Seed + int64(chain)*chainSeedStride
			draws, logp, acceptance, err := runChain(ctx, m, cfg, chain, seed, progress)
			if err != nil {
				errs[chain] = err
				return
			}
			chains.Draws[chain] = draws
			chains.LogPosterior[chain] = logp
			chains.Acceptance[chain] = acceptance
		}(chain)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return chains, nil
}

func runChain(ctx context.Context, m *model.Model, cfg config.PosteriorSampleConfig, chain int, seed int64, progress Progress) ([][]float64, []float64, float64, error) {
	rng := rand.New(rand.NewSource(seed))
	dims := m.Dims()
	nParams := dims.NParams()

	current, logp, err := initialState(m, rng)
	if err != nil {
		return nil, nil, 0, err
	}

	// Per-dimension proposal widths from the prior spread, tuned by a
	// global scale toward the target acceptance rate.
	widths := priorWidths(m, rng, nParams)
	scale := 0.2

	accepted := 0
	windowAccepted := 0
	step := func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		proposal := make([]float64, nParams)
		for i := range proposal {
			proposal[i] = current[i] + scale*widths[i]*rng.NormFloat64()
		}
		proposalLogp := m.LogPosterior(model.ParamsFromVector(dims, proposal))
		if math.Log(rng.Float64()) < proposalLogp-logp {
			current = proposal
			logp = proposalLogp
			accepted++
			windowAccepted++
		}
		return nil
	}

	for i := 0; i < cfg.NAdapt; i++ {
		if err := step(); err != nil {
			return nil, nil, 0, err
		}
		if (i+1)%adaptWindow == 0 {
			rate := float64(windowAccepted) / adaptWindow
			scale *= math.Exp(2 * (rate - targetAcceptance))
			windowAccepted = 0
		}
	}

	for i := 0; i < cfg.NBurnin; i++ {
		if err := step(); err != nil {
			return nil, nil, 0, err
		}
	}

	accepted = 0
	draws := make([][]float64, cfg.NKeep)
	logps := make([]float64, cfg.NKeep)
	for i := 0; i < cfg.NKeep; i++ {
		if err := step(); err != nil {
			return nil, nil, 0, err
		}
		draw := make([]float64, nParams)
		copy(draw, current)
		draws[i] = draw
		logps[i] = logp
	}

	acceptance := float64(accepted) / float64(cfg.NKeep)
	log.Printf("chain %d finished: acceptance %.3f, final log posterior %.2f", chain, acceptance, logp)
	if progress != nil {
		progress.Record(fmt.Sprintf("chain_%d/acceptance_rate", chain), int64(cfg.NKeep), acceptance)
		progress.Record(fmt.Sprintf("chain_%d/log_posterior", chain), int64(cfg.NKeep), logp)
	}
	return draws, logps, acceptance, nil
}

// initialState draws from the prior until it finds a point with finite
// posterior density.
func initialState(m *model.Model, rng *rand.Rand) ([]float64, float64, error) {
	for attempt := 0; attempt < 100; attempt++ {
		p := m.SamplePriorParams(rng)
		logp := m.LogPosterior(p)
		if !math.IsInf(logp, -1) && !math.IsNaN(logp) {
			return p.Vector(), logp, nil
		}
	}
	return nil, 0, fmt.Errorf("no valid initial state found after 100 prior draws")
}

func priorWidths(m *model.Model, rng *rand.Rand, nParams int) []float64 {
	const probes = 50
	samples := make([][]float64, probes)
	for i := range samples {
		samples[i] = m.SamplePriorParams(rng).Vector()
	}
	widths := make([]float64, nParams)
	for j := 0; j < nParams; j++ {
		mean := 0.0
		for i := 0; i < probes; i++ {
			mean += samples[i][j]
		}
		mean /= probes
		variance := 0.0
		for i := 0; i < probes; i++ {
			variance += (samples[i][j] - mean) * (samples[i][j] - mean)
		}
		widths[j] = math.Sqrt(variance / probes)
		if widths[j] == 0 {
			widths[j] = 0.1
		}
	}
	return widths
}
