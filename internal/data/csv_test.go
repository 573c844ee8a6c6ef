package data

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/lgrosjean/baynext-ml/internal/config"
)

func loadConfig() *config.LoadConfig {
	return &config.LoadConfig{
		Source:  config.SourceConfig{Type: "csv", Path: "geo_media.csv"},
		KpiType: config.KpiTypeNonRevenue,
		CoordToColumns: config.CoordToColumns{
			Time:          "time",
			Geo:           "geo",
			Kpi:           "conversions",
			Population:    "population",
			RevenuePerKpi: "revenue_per_conversion",
			Controls:      []string{"gqv"},
			Media:         []string{"tv_impressions"},
			MediaSpend:    []string{"tv_spend"},
		},
		MediaToChannel:      map[string]string{"tv_impressions": "tv"},
		MediaSpendToChannel: map[string]string{"tv_spend": "tv"},
	}
}

const geoCsv = `time,geo,conversions,population,revenue_per_conversion,gqv,tv_impressions,tv_spend
2024-01-01,east,100,1000,2.5,0.4,5000,120
2024-01-08,east,110,1000,2.5,0.5,5200,130
2024-01-01,west,80,800,2.0,0.3,4000,100
2024-01-08,west,90,800,2.0,0.2,4100,110
`

func TestParseCSV(t *testing.T) {
	input, err := parseCSV(loadConfig(), []byte(geoCsv))
	assert.NoError(t, err)

	assert.Equal(t, []string{"2024-01-01", "2024-01-08"}, input.Times)
	assert.Equal(t, []string{"east", "west"}, input.Geos)
	assert.Equal(t, []float64{1000, 800}, input.Population)
	assert.Equal(t, []string{"tv"}, input.Channels)
	assert.Equal(t, 110.0, input.Kpi[0][1])
	assert.Equal(t, 4100.0, input.Media[0][1][1])
	assert.Equal(t, 110.0, input.Spend[0][1][1])
	assert.Equal(t, 0.3, input.Controls[0][1][0])

	assert.InDelta(t, 120+130+100+110, input.TotalSpend(0), 1e-9)
	assert.InDelta(t, (100+110)*2.5+(80+90)*2.0, input.TotalRevenue(), 1e-9)
}

func TestParseCSVNationalModel(t *testing.T) {
	cfg := loadConfig()
	cfg.CoordToColumns.Geo = ""
	cfg.CoordToColumns.Population = ""

	csv := `time,conversions,revenue_per_conversion,gqv,tv_impressions,tv_spend
2024-01-01,100,2.5,0.4,5000,120
2024-01-08,110,2.5,0.5,5200,130
`
	input, err := parseCSV(cfg, []byte(csv))
	assert.NoError(t, err)
	assert.Equal(t, []string{NationalGeo}, input.Geos)
	assert.Equal(t, []float64{1}, input.Population)
	assert.Equal(t, 2, input.NTimes())
}

func TestParseCSVMissingColumn(t *testing.T) {
	cfg := loadConfig()
	cfg.CoordToColumns.Kpi = "clicks"

	_, err := parseCSV(cfg, []byte(geoCsv))
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "clicks")
}

func TestParseCSVNonNumericCell(t *testing.T) {
	csv := `time,geo,conversions,population,revenue_per_conversion,gqv,tv_impressions,tv_spend
2024-01-01,east,many,1000,2.5,0.4,5000,120
`
	_, err := parseCSV(loadConfig(), []byte(csv))
	assert.True(t, errors.Is(err, ErrNonNumericCell))
	assert.Contains(t, err.Error(), "conversions")
}

func TestParseCSVInconsistentTimes(t *testing.T) {
	csv := `time,geo,conversions,population,revenue_per_conversion,gqv,tv_impressions,tv_spend
2024-01-01,east,100,1000,2.5,0.4,5000,120
2024-01-08,east,110,1000,2.5,0.5,5200,130
2024-01-01,west,80,800,2.0,0.3,4000,100
`
	_, err := parseCSV(loadConfig(), []byte(csv))
	assert.True(t, errors.Is(err, ErrInconsistentTimes))
}

func TestParseCSVRequiresRevenuePerKpi(t *testing.T) {
	cfg := loadConfig()
	cfg.CoordToColumns.RevenuePerKpi = ""

	_, err := parseCSV(cfg, []byte(geoCsv))
	assert.Equal(t, ErrMissingRevenuePerKpi, err)
}
