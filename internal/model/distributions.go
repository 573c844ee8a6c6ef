package model

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/lgrosjean/baynext-ml/internal/config"
)

const (
	DistributionNormal     = "normal"
	DistributionLogNormal  = "log_normal"
	DistributionHalfNormal = "half_normal"
	DistributionUniform    = "uniform"
)

var ErrUnknownDistribution = fmt.Errorf("unknown distribution")

const logSqrt2Pi = 0.9189385332046727

// Distribution is a univariate distribution. LogProb returns -Inf outside
// the support.
type Distribution interface {
	Sample(rng *rand.Rand) float64
	LogProb(x float64) float64
	Mean() float64
}

type Normal struct {
	Mu    float64
	Sigma float64
}

func (d Normal) Sample(rng *rand.Rand) float64 {
	return d.Mu + d.Sigma*rng.NormFloat64()
}

func (d Normal) LogProb(x float64) float64 {
	z := (x - d.Mu) / d.Sigma
	return -0.5*z*z - math.Log(d.Sigma) - logSqrt2Pi
}

func (d Normal) Mean() float64 {
	return d.Mu
}

type LogNormal struct {
	Mu    float64
	Sigma float64
}

func (d LogNormal) Sample(rng *rand.Rand) float64 {
	return math.Exp(d.Mu + d.Sigma*rng.NormFloat64())
}

func (d LogNormal) LogProb(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	return Normal{Mu: d.Mu, Sigma: d.Sigma}.LogProb(math.Log(x)) - math.Log(x)
}

func (d LogNormal) Mean() float64 {
	return math.Exp(d.Mu + d.Sigma*d.Sigma/2)
}

type HalfNormal struct {
	Sigma float64
}

func (d HalfNormal) Sample(rng *rand.Rand) float64 {
	return math.Abs(d.Sigma * rng.NormFloat64())
}

func (d HalfNormal) LogProb(x float64) float64 {
	if x < 0 {
		return math.Inf(-1)
	}
	return math.Ln2 + Normal{Mu: 0, Sigma: d.Sigma}.LogProb(x)
}

func (d HalfNormal) Mean() float64 {
	return d.Sigma * math.Sqrt(2/math.Pi)
}

type Uniform struct {
	Low  float64
	High float64
}

func (d Uniform) Sample(rng *rand.Rand) float64 {
	return d.Low + rng.Float64()*(d.High-d.Low)
}

func (d Uniform) LogProb(x float64) float64 {
	if x < d.Low || x > d.High {
		return math.Inf(-1)
	}
	return -math.Log(d.High - d.Low)
}

func (d Uniform) Mean() float64 {
	return (d.Low + d.High) / 2
}

// NewDistribution builds a Distribution from its config form.
func NewDistribution(cfg config.DistributionConfig) (Distribution, error) {
	switch cfg.Distribution {
	case DistributionNormal:
		return Normal{Mu: cfg.Mu, Sigma: cfg.Sigma}, nil
	case DistributionLogNormal:
		return LogNormal{Mu: cfg.Mu, Sigma: cfg.Sigma}, nil
	case DistributionHalfNormal:
		return HalfNormal{Sigma: cfg.Sigma}, nil
	case DistributionUniform:
		return Uniform{Low: cfg.Low, High: cfg.High}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownDistribution, "%q", cfg.Distribution)
	}
}
