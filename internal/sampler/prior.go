package sampler

import (
	"math/rand"

	"github.com/lgrosjean/baynext-ml/internal/model"
)

// SamplePrior draws n independent parameter sets from the model priors.
// Draws are deterministic under a seed.
func SamplePrior(m *model.Model, n int, seed int64) []*model.Params {
	rng := rand.New(rand.NewSource(seed))
	draws := make([]*model.Params, n)
	for i := range draws {
		draws[i] = m.SamplePriorParams(rng)
	}
	return draws
}
