package model

import (
	"github.com/lgrosjean/baynext-ml/internal/config"
)

// ModelSpec fixes the model structure for a run: the ROI prior, the media
// transform order and reach, and the fixed hyperpriors on the remaining
// parameter families.
type ModelSpec struct {
	RoiPrior Distribution
	// MediaEffectsDist is accepted for config compatibility and recorded
	// with the run. The pooled model carries one media coefficient per
	// channel, so there is no geo-level effect distribution to choose.
	MediaEffectsDist  string
	HillBeforeAdstock bool
	MaxLag            int

	AlphaPrior    Distribution
	ECPrior       Distribution
	SlopePrior    Distribution
	GammaPrior    Distribution
	BaselinePrior Distribution
	SigmaPrior    Distribution
}

func NewModelSpec(cfg config.SpecConfig) (*ModelSpec, error) {
	roiPrior, err := NewDistribution(cfg.Prior.RoiM)
	if err != nil {
		return nil, err
	}
	return &ModelSpec{
		RoiPrior:          roiPrior,
		MediaEffectsDist:  cfg.MediaEffectsDist,
		HillBeforeAdstock: cfg.HillBeforeAdstock,
		MaxLag:            cfg.MaxLag,

		AlphaPrior:    Uniform{Low: 0, High: 1},
		ECPrior:       LogNormal{Mu: 0, Sigma: 0.7},
		SlopePrior:    LogNormal{Mu: 0, Sigma: 0.4},
		GammaPrior:    Normal{Mu: 0, Sigma: 5},
		BaselinePrior: Normal{Mu: 0, Sigma: 5},
		SigmaPrior:    HalfNormal{Sigma: 5},
	}, nil
}
