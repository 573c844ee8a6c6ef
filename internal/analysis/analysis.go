package analysis

import (
	"github.com/lgrosjean/baynext-ml/internal/model"
	"github.com/lgrosjean/baynext-ml/internal/sampler"
)

// maxEvalDraws bounds how many posterior draws the model is re-evaluated on
// for derived quantities; draws are thinned evenly beyond it.
const maxEvalDraws = 200

// DecayPoint is one lag of a channel's posterior adstock decay.
type DecayPoint struct {
	Channel   string             `json:"channel"`
	Lag       int                `json:"lag"`
	Mean      float64            `json:"mean"`
	Quantiles map[string]float64 `json:"quantiles"`
}

// CurvePoint is one grid point of a channel's posterior hill saturation
// curve. Media is in unit-mean scale.
type CurvePoint struct {
	Channel   string             `json:"channel"`
	Media     float64            `json:"media"`
	Mean      float64            `json:"mean"`
	Quantiles map[string]float64 `json:"quantiles"`
}

// ChannelSummary aggregates posterior ROI and contribution for one channel.
type ChannelSummary struct {
	Channel          string             `json:"channel"`
	Spend            float64            `json:"spend"`
	SpendShare       float64            `json:"spend_share"`
	RoiMean          float64            `json:"roi_mean"`
	RoiQuantiles     map[string]float64 `json:"roi_quantiles"`
	ContributionMean float64            `json:"contribution_mean"`
	EffectShare      float64            `json:"effect_share"`
}

// Baseline is the posterior share of kpi not attributed to media.
type Baseline struct {
	ShareMean      float64            `json:"share_mean"`
	ShareQuantiles map[string]float64 `json:"share_quantiles"`
}

// FitPoint pairs the observed kpi with its posterior expectation for one geo
// and period.
type FitPoint struct {
	Geo       string             `json:"geo"`
	Time      string             `json:"time"`
	Actual    float64            `json:"actual"`
	Expected  float64            `json:"expected"`
	Quantiles map[string]float64 `json:"quantiles"`
}

// AdstockDecay tabulates posterior decay weights per channel and lag.
func AdstockDecay(m *model.Model, chains *sampler.Chains, quantiles []float64) []DecayPoint {
	dims := m.Dims()
	points := make([]DecayPoint, 0, dims.Channels*m.Spec.MaxLag)
	for c, channel := range m.Data.Channels {
		alphas := flatten(chains.ParamDraws(dims.AlphaIndex(c)))
		weightDraws := make([][]float64, m.Spec.MaxLag)
		for lag := range weightDraws {
			weightDraws[lag] = make([]float64, len(alphas))
		}
		for i, alpha := range alphas {
			weights := model.AdstockWeights(alpha, m.Spec.MaxLag)
			for lag, w := range weights {
				weightDraws[lag][i] = w
			}
		}
		for lag := 0; lag < m.Spec.MaxLag; lag++ {
			points = append(points, DecayPoint{
				Channel:   channel,
				Lag:       lag,
				Mean:      meanOf(weightDraws[lag]),
				Quantiles: quantileMap(weightDraws[lag], quantiles),
			})
		}
	}
	return points
}

// HillCurves tabulates the posterior saturation response over a media grid
// from zero to the observed channel maximum.
func HillCurves(m *model.Model, chains *sampler.Chains, gridPoints int, quantiles []float64) []CurvePoint {
	dims := m.Dims()
	points := make([]CurvePoint, 0, dims.Channels*gridPoints)
	for c, channel := range m.Data.Channels {
		ecs := flatten(chains.ParamDraws(dims.ECIndex(c)))
		slopes := flatten(chains.ParamDraws(dims.SlopeIndex(c)))
		max := m.ScaledMediaMax(c)
		if max == 0 {
			max = 1
		}
		for i := 0; i < gridPoints; i++ {
			x := max * float64(i) / float64(gridPoints-1)
			values := make([]float64, len(ecs))
			for j := range ecs {
				values[j] = model.Hill(x, ecs[j], slopes[j])
			}
			points = append(points, CurvePoint{
				Channel:   channel,
				Media:     x,
				Mean:      meanOf(values),
				Quantiles: quantileMap(values, quantiles),
			})
		}
	}
	return points
}

// SummaryMetrics aggregates posterior ROI, spend share and effect share per
// channel.
func SummaryMetrics(m *model.Model, chains *sampler.Chains, quantiles []float64) []ChannelSummary {
	dims := m.Dims()

	totalSpend := 0.0
	spend := make([]float64, dims.Channels)
	for c := range spend {
		spend[c] = m.Data.TotalSpend(c)
		totalSpend += spend[c]
	}

	draws := thinnedDraws(chains)
	contributions := make([][]float64, dims.Channels)
	for c := range contributions {
		contributions[c] = make([]float64, len(draws))
	}
	for i, draw := range draws {
		incremental := m.IncrementalKpi(model.ParamsFromVector(dims, draw))
		for c := range incremental {
			contributions[c][i] = incremental[c]
		}
	}

	totalContribution := 0.0
	contributionMeans := make([]float64, dims.Channels)
	for c := range contributionMeans {
		contributionMeans[c] = meanOf(contributions[c])
		totalContribution += contributionMeans[c]
	}

	summaries := make([]ChannelSummary, dims.Channels)
	for c, channel := range m.Data.Channels {
		rois := flatten(chains.ParamDraws(dims.RoiIndex(c)))
		effectShare := 0.0
		if totalContribution != 0 {
			effectShare = contributionMeans[c] / totalContribution
		}
		spendShare := 0.0
		if totalSpend != 0 {
			spendShare = spend[c] / totalSpend
		}
		summaries[c] = ChannelSummary{
			Channel:          channel,
			Spend:            spend[c],
			SpendShare:       spendShare,
			RoiMean:          meanOf(rois),
			RoiQuantiles:     quantileMap(rois, quantiles),
			ContributionMean: contributionMeans[c],
			EffectShare:      effectShare,
		}
	}
	return summaries
}

// BaselineSummary computes the posterior share of total kpi carried by the
// geo baselines.
func BaselineSummary(m *model.Model, chains *sampler.Chains, quantiles []float64) Baseline {
	dims := m.Dims()
	totalKpi := 0.0
	for g := range m.Data.Geos {
		for t := range m.Data.Times {
			totalKpi += m.Data.Kpi[g][t]
		}
	}

	draws := thinnedDraws(chains)
	shares := make([]float64, len(draws))
	for i, draw := range draws {
		baselineKpi := 0.0
		for g := range m.Data.Geos {
			baselineKpi += draw[dims.BaselineIndex(g)] * m.Data.Population[g] * float64(m.Data.NTimes())
		}
		if totalKpi != 0 {
			shares[i] = baselineKpi / totalKpi
		}
	}

	return Baseline{
		ShareMean:      meanOf(shares),
		ShareQuantiles: quantileMap(shares, quantiles),
	}
}

// ModelFit tabulates the posterior expected kpi against the observed series
// per geo and period, in observation units.
func ModelFit(m *model.Model, chains *sampler.Chains, quantiles []float64) []FitPoint {
	dims := m.Dims()
	draws := thinnedDraws(chains)

	points := make([]FitPoint, 0, dims.Geos*m.Data.NTimes())
	for g, geo := range m.Data.Geos {
		predDraws := make([][]float64, m.Data.NTimes())
		for t := range predDraws {
			predDraws[t] = make([]float64, len(draws))
		}
		for i, draw := range draws {
			p := model.ParamsFromVector(dims, draw)
			pred := m.PredictKpi(p, m.Betas(p), g)
			for t := range pred {
				predDraws[t][i] = pred[t] * m.Data.Population[g]
			}
		}
		for t, period := range m.Data.Times {
			points = append(points, FitPoint{
				Geo:       geo,
				Time:      period,
				Actual:    m.Data.Kpi[g][t],
				Expected:  meanOf(predDraws[t]),
				Quantiles: quantileMap(predDraws[t], quantiles),
			})
		}
	}
	return points
}

func flatten(chains [][]float64) []float64 {
	out := make([]float64, 0)
	for _, chain := range chains {
		out = append(out, chain...)
	}
	return out
}

// thinnedDraws merges chains, thinning evenly down to maxEvalDraws.
func thinnedDraws(chains *sampler.Chains) [][]float64 {
	merged := make([][]float64, 0, chains.NChains()*chains.NKeep())
	for _, chain := range chains.Draws {
		merged = append(merged, chain...)
	}
	if len(merged) <= maxEvalDraws {
		return merged
	}
	stride := float64(len(merged)) / maxEvalDraws
	thinned := make([][]float64, 0, maxEvalDraws)
	for i := 0; i < maxEvalDraws; i++ {
		thinned = append(thinned, merged[int(float64(i)*stride)])
	}
	return thinned
}
