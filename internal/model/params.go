package model

import "fmt"

// Params is one point in parameter space. Channel families are indexed in
// channel order; Roi carries the per-channel return on investment that the
// media coefficient is derived from.
type Params struct {
	Alpha    []float64
	EC       []float64
	Slope    []float64
	Roi      []float64
	Gamma    []float64
	Baseline []float64
	Sigma    float64
}

type Dims struct {
	Channels int
	Controls int
	Geos     int
}

func (d Dims) NParams() int {
	return 4*d.Channels + d.Controls + d.Geos + 1
}

// Index helpers into the flattened vector, matching ParamNames order.
func (d Dims) AlphaIndex(channel int) int {
	return channel
}

func (d Dims) ECIndex(channel int) int {
	return d.Channels + channel
}

func (d Dims) SlopeIndex(channel int) int {
	return 2*d.Channels + channel
}

func (d Dims) RoiIndex(channel int) int {
	return 3*d.Channels + channel
}

func (d Dims) GammaIndex(control int) int {
	return 4*d.Channels + control
}

func (d Dims) BaselineIndex(geo int) int {
	return 4*d.Channels + d.Controls + geo
}

func (d Dims) SigmaIndex() int {
	return 4*d.Channels + d.Controls + d.Geos
}

// ParamNames lists vector components in encoding order.
func (d Dims) ParamNames(channels, controls, geos []string) []string {
	names := make([]string, 0, d.NParams())
	for _, ch := range channels {
		names = append(names, fmt.Sprintf("alpha_%s", ch))
	}
	for _, ch := range channels {
		names = append(names, fmt.Sprintf("ec_%s", ch))
	}
	for _, ch := range channels {
		names = append(names, fmt.Sprintf("slope_%s", ch))
	}
	for _, ch := range channels {
		names = append(names, fmt.Sprintf("roi_%s", ch))
	}
	for _, ctrl := range controls {
		names = append(names, fmt.Sprintf("gamma_%s", ctrl))
	}
	for _, geo := range geos {
		names = append(names, fmt.Sprintf("baseline_%s", geo))
	}
	names = append(names, "sigma")
	return names
}

func NewParams(d Dims) *Params {
	return &Params{
		Alpha:    make([]float64, d.Channels),
		EC:       make([]float64, d.Channels),
		Slope:    make([]float64, d.Channels),
		Roi:      make([]float64, d.Channels),
		Gamma:    make([]float64, d.Controls),
		Baseline: make([]float64, d.Geos),
	}
}

// Vector flattens params in the ParamNames order.
func (p *Params) Vector() []float64 {
	v := make([]float64, 0, 4*len(p.Alpha)+len(p.Gamma)+len(p.Baseline)+1)
	v = append(v, p.Alpha...)
	v = append(v, p.EC...)
	v = append(v, p.Slope...)
	v = append(v, p.Roi...)
	v = append(v, p.Gamma...)
	v = append(v, p.Baseline...)
	v = append(v, p.Sigma)
	return v
}

func ParamsFromVector(d Dims, v []float64) *Params {
	p := NewParams(d)
	i := 0
	copy(p.Alpha, v[i:i+d.Channels])
	i += d.Channels
	copy(p.EC, v[i:i+d.Channels])
	i += d.Channels
	copy(p.Slope, v[i:i+d.Channels])
	i += d.Channels
	copy(p.Roi, v[i:i+d.Channels])
	i += d.Channels
	copy(p.Gamma, v[i:i+d.Controls])
	i += d.Controls
	copy(p.Baseline, v[i:i+d.Geos])
	i += d.Geos
	p.Sigma = v[i]
	return p
}
