package data

// InputData holds one modeling dataset in coordinate-major layout. All
// per-observation slices are indexed [geo][time]; media and controls carry a
// leading channel/control dimension.
type InputData struct {
	Times      []string
	Geos       []string
	Population []float64

	KpiType       string
	Kpi           [][]float64
	RevenuePerKpi [][]float64

	ControlNames []string
	Controls     [][][]float64

	Channels []string
	Media    [][][]float64
	Spend    [][][]float64
}

func (d *InputData) NGeos() int {
	return len(d.Geos)
}

func (d *InputData) NTimes() int {
	return len(d.Times)
}

func (d *InputData) NChannels() int {
	return len(d.Channels)
}

// TotalSpend sums spend over geos and times for one channel.
func (d *InputData) TotalSpend(channel int) float64 {
	total := 0.0
	for _, geoSpend := range d.Spend[channel] {
		for _, v := range geoSpend {
			total += v
		}
	}
	return total
}

// TotalRevenue sums revenue over all geos and times. For revenue kpi the
// kpi itself is revenue; otherwise kpi is scaled by revenue_per_kpi.
func (d *InputData) TotalRevenue() float64 {
	total := 0.0
	for g := range d.Geos {
		for t := range d.Times {
			total += d.Revenue(g, t)
		}
	}
	return total
}

func (d *InputData) Revenue(geo, time int) float64 {
	if d.RevenuePerKpi == nil {
		return d.Kpi[geo][time]
	}
	return d.Kpi[geo][time] * d.RevenuePerKpi[geo][time]
}
