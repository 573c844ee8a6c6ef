package sampler

import "math"

// Diagnostic holds convergence statistics for one parameter over merged
// chains.
type Diagnostic struct {
	Name string  `json:"name"`
	RHat float64 `json:"r_hat"`
	ESS  float64 `json:"ess"`
}

// Diagnostics computes split-Rhat and effective sample size for every
// parameter.
func Diagnostics(chains *Chains) []Diagnostic {
	out := make([]Diagnostic, len(chains.ParamNames))
	for p, name := range chains.ParamNames {
		draws := chains.ParamDraws(p)
		out[p] = Diagnostic{
			Name: name,
			RHat: SplitRHat(draws),
			ESS:  EffectiveSampleSize(draws),
		}
	}
	return out
}

// SplitRHat is the potential scale reduction factor computed over chains
// split in half. Values near 1 indicate convergence.
func SplitRHat(chains [][]float64) float64 {
	split := splitChains(chains)
	m := len(split)
	if m < 2 {
		return math.NaN()
	}
	n := len(split[0])
	if n < 2 {
		return math.NaN()
	}

	means := make([]float64, m)
	variances := make([]float64, m)
	grand := 0.0
	for i, chain := range split {
		means[i] = mean(chain)
		variances[i] = variance(chain, means[i])
		grand += means[i]
	}
	grand /= float64(m)

	between := 0.0
	for _, mu := range means {
		between += (mu - grand) * (mu - grand)
	}
	between *= float64(n) / float64(m-1)

	within := mean(variances)
	if within == 0 {
		return math.NaN()
	}

	varEstimate := float64(n-1)/float64(n)*within + between/float64(n)
	return math.Sqrt(varEstimate / within)
}

// EffectiveSampleSize estimates ESS from per-chain autocorrelations,
// truncating the sum at the first non-positive lag estimate.
func EffectiveSampleSize(chains [][]float64) float64 {
	m := len(chains)
	if m == 0 || len(chains[0]) < 2 {
		return math.NaN()
	}
	n := len(chains[0])

	sum := 0.0
	for lag := 1; lag < n; lag++ {
		rho := 0.0
		for _, chain := range chains {
			rho += autocorrelation(chain, lag)
		}
		rho /= float64(m)
		if rho <= 0 {
			break
		}
		sum += rho
	}

	ess := float64(m*n) / (1 + 2*sum)
	if ess > float64(m*n) {
		ess = float64(m * n)
	}
	return ess
}

func splitChains(chains [][]float64) [][]float64 {
	split := make([][]float64, 0, 2*len(chains))
	for _, chain := range chains {
		half := len(chain) / 2
		if half == 0 {
			continue
		}
		split = append(split, chain[:half], chain[half:half*2])
	}
	return split
}

func mean(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}

func variance(xs []float64, mu float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += (x - mu) * (x - mu)
	}
	return total / float64(len(xs)-1)
}

func autocorrelation(chain []float64, lag int) float64 {
	mu := mean(chain)
	denom := 0.0
	for _, x := range chain {
		denom += (x - mu) * (x - mu)
	}
	if denom == 0 {
		return 0
	}
	num := 0.0
	for t := 0; t+lag < len(chain); t++ {
		num += (chain[t] - mu) * (chain[t+lag] - mu)
	}
	return num / denom
}
