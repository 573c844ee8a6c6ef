package model

import (
	"math"
	"math/rand"

	"github.com/lgrosjean/baynext-ml/internal/data"
)

// Model binds a spec to a dataset. Media is rescaled per channel and geo to
// unit mean so the hill half-saturation parameter lives on a comparable
// scale across channels; controls are standardized per geo; kpi is modeled
// per capita.
type Model struct {
	Spec *ModelSpec
	Data *data.InputData

	dims         Dims
	scaledMedia  [][][]float64
	scaledCtrl   [][][]float64
	kpiPerCapita [][]float64
}

func NewModel(spec *ModelSpec, input *data.InputData) *Model {
	m := &Model{
		Spec: spec,
		Data: input,
		dims: Dims{
			Channels: input.NChannels(),
			Controls: len(input.ControlNames),
			Geos:     input.NGeos(),
		},
	}

	m.scaledMedia = make([][][]float64, m.dims.Channels)
	for c := range m.scaledMedia {
		m.scaledMedia[c] = make([][]float64, m.dims.Geos)
		for g := range m.scaledMedia[c] {
			m.scaledMedia[c][g] = scaleToUnitMean(input.Media[c][g])
		}
	}

	m.scaledCtrl = make([][][]float64, m.dims.Controls)
	for k := range m.scaledCtrl {
		m.scaledCtrl[k] = make([][]float64, m.dims.Geos)
		for g := range m.scaledCtrl[k] {
			m.scaledCtrl[k][g] = standardize(input.Controls[k][g])
		}
	}

	m.kpiPerCapita = make([][]float64, m.dims.Geos)
	for g := range m.kpiPerCapita {
		m.kpiPerCapita[g] = make([]float64, input.NTimes())
		for t := range m.kpiPerCapita[g] {
			m.kpiPerCapita[g][t] = input.Kpi[g][t] / input.Population[g]
		}
	}

	return m
}

func (m *Model) Dims() Dims {
	return m.dims
}

// ScaledMediaMax is the largest observed media value for one channel in
// unit-mean scale, across geos.
func (m *Model) ScaledMediaMax(channel int) float64 {
	max := 0.0
	for _, series := range m.scaledMedia[channel] {
		for _, v := range series {
			if v > max {
				max = v
			}
		}
	}
	return max
}

// MediaTransform applies the hill and adstock transforms to one channel in
// one geo, in the configured order. The result is the unit media effect
// before the coefficient.
func (m *Model) MediaTransform(p *Params, channel, geo int) []float64 {
	series := m.scaledMedia[channel][geo]
	weights := AdstockWeights(p.Alpha[channel], m.Spec.MaxLag)
	if m.Spec.HillBeforeAdstock {
		return Adstock(hillSeries(series, p.EC[channel], p.Slope[channel]), weights)
	}
	return hillSeries(Adstock(series, weights), p.EC[channel], p.Slope[channel])
}

// Betas derives per-channel media coefficients from the ROI parameters:
// roi * spend equals the incremental revenue implied by the unit effect.
func (m *Model) Betas(p *Params) []float64 {
	betas := make([]float64, m.dims.Channels)
	for c := 0; c < m.dims.Channels; c++ {
		denom := 0.0
		for g := 0; g < m.dims.Geos; g++ {
			effect := m.MediaTransform(p, c, g)
			for t := range effect {
				rev := 1.0
				if m.Data.RevenuePerKpi != nil {
					rev = m.Data.RevenuePerKpi[g][t]
				}
				denom += effect[t] * m.Data.Population[g] * rev
			}
		}
		if denom > 0 {
			betas[c] = p.Roi[c] * m.Data.TotalSpend(c) / denom
		}
	}
	return betas
}

// PredictKpi returns modeled per-capita kpi for one geo.
func (m *Model) PredictKpi(p *Params, betas []float64, geo int) []float64 {
	pred := make([]float64, m.Data.NTimes())
	for t := range pred {
		pred[t] = p.Baseline[geo]
		for k := 0; k < m.dims.Controls; k++ {
			pred[t] += p.Gamma[k] * m.scaledCtrl[k][geo][t]
		}
	}
	for c := 0; c < m.dims.Channels; c++ {
		effect := m.MediaTransform(p, c, geo)
		for t := range pred {
			pred[t] += betas[c] * effect[t]
		}
	}
	return pred
}

// IncrementalRevenue is the revenue attributed to each channel under p.
func (m *Model) IncrementalRevenue(p *Params) []float64 {
	betas := m.Betas(p)
	out := make([]float64, m.dims.Channels)
	for c := 0; c < m.dims.Channels; c++ {
		for g := 0; g < m.dims.Geos; g++ {
			effect := m.MediaTransform(p, c, g)
			for t := range effect {
				rev := 1.0
				if m.Data.RevenuePerKpi != nil {
					rev = m.Data.RevenuePerKpi[g][t]
				}
				out[c] += betas[c] * effect[t] * m.Data.Population[g] * rev
			}
		}
	}
	return out
}

// IncrementalKpi is the kpi units attributed to each channel under p.
func (m *Model) IncrementalKpi(p *Params) []float64 {
	betas := m.Betas(p)
	out := make([]float64, m.dims.Channels)
	for c := 0; c < m.dims.Channels; c++ {
		for g := 0; g < m.dims.Geos; g++ {
			effect := m.MediaTransform(p, c, g)
			for t := range effect {
				out[c] += betas[c] * effect[t] * m.Data.Population[g]
			}
		}
	}
	return out
}

func (m *Model) inSupport(p *Params) bool {
	for c := 0; c < m.dims.Channels; c++ {
		if p.Alpha[c] <= 0 || p.Alpha[c] >= 1 || p.EC[c] <= 0 || p.Slope[c] <= 0 {
			return false
		}
	}
	return p.Sigma > 0
}

func (m *Model) LogPrior(p *Params) float64 {
	total := 0.0
	for c := 0; c < m.dims.Channels; c++ {
		total += m.Spec.AlphaPrior.LogProb(p.Alpha[c])
		total += m.Spec.ECPrior.LogProb(p.EC[c])
		total += m.Spec.SlopePrior.LogProb(p.Slope[c])
		total += m.Spec.RoiPrior.LogProb(p.Roi[c])
	}
	for k := 0; k < m.dims.Controls; k++ {
		total += m.Spec.GammaPrior.LogProb(p.Gamma[k])
	}
	for g := 0; g < m.dims.Geos; g++ {
		total += m.Spec.BaselinePrior.LogProb(p.Baseline[g])
	}
	total += m.Spec.SigmaPrior.LogProb(p.Sigma)
	return total
}

func (m *Model) LogLikelihood(p *Params) float64 {
	betas := m.Betas(p)
	noise := Normal{Mu: 0, Sigma: p.Sigma}
	total := 0.0
	for g := 0; g < m.dims.Geos; g++ {
		pred := m.PredictKpi(p, betas, g)
		for t := range pred {
			total += noise.LogProb(m.kpiPerCapita[g][t] - pred[t])
		}
	}
	return total
}

// LogPosterior is the unnormalized posterior density at p. Points outside
// the support score -Inf.
func (m *Model) LogPosterior(p *Params) float64 {
	if !m.inSupport(p) {
		return math.Inf(-1)
	}
	prior := m.LogPrior(p)
	if math.IsInf(prior, -1) {
		return prior
	}
	return prior + m.LogLikelihood(p)
}

// SamplePriorParams draws one parameter set from the priors.
func (m *Model) SamplePriorParams(rng *rand.Rand) *Params {
	p := NewParams(m.dims)
	for c := 0; c < m.dims.Channels; c++ {
		p.Alpha[c] = m.Spec.AlphaPrior.Sample(rng)
		p.EC[c] = m.Spec.ECPrior.Sample(rng)
		p.Slope[c] = m.Spec.SlopePrior.Sample(rng)
		p.Roi[c] = m.Spec.RoiPrior.Sample(rng)
	}
	for k := 0; k < m.dims.Controls; k++ {
		p.Gamma[k] = m.Spec.GammaPrior.Sample(rng)
	}
	for g := 0; g < m.dims.Geos; g++ {
		p.Baseline[g] = m.Spec.BaselinePrior.Sample(rng)
	}
	p.Sigma = m.Spec.SigmaPrior.Sample(rng)
	return p
}

func scaleToUnitMean(series []float64) []float64 {
	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))
	out := make([]float64, len(series))
	if mean == 0 {
		return out
	}
	for i, v := range series {
		out[i] = v / mean
	}
	return out
}

func standardize(series []float64) []float64 {
	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))
	variance := 0.0
	for _, v := range series {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(series))
	sd := math.Sqrt(variance)
	out := make([]float64, len(series))
	for i, v := range series {
		if sd == 0 {
			out[i] = 0
			continue
		}
		out[i] = (v - mean) / sd
	}
	return out
}
