package config

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

const validYaml = `
run_name: launch-q3
experiment: mmm
load:
  source:
    type: csv
    name: geo_media
    path: /data/geo_media.csv
  kpi_type: non_revenue
  coord_to_columns:
    time: time
    geo: geo
    kpi: conversions
    population: population
    revenue_per_kpi: revenue_per_conversion
    controls: [gqv]
    media: [tv_impressions, search_impressions]
    media_spend: [tv_spend, search_spend]
  media_to_channel:
    tv_impressions: tv
    search_impressions: search
  media_spend_to_channel:
    tv_spend: tv
    search_spend: search
train:
  sample_posterior:
    n_chains: 2
    n_keep: 50
`

func writeConfig(t *testing.T, contents string) (string, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	err := afero.WriteFile(fs, "baynext.yaml", []byte(contents), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return "baynext.yaml", fs
}

func TestLoadPipelineConfig(t *testing.T) {
	filename, fs := writeConfig(t, validYaml)

	cfg, err := LoadPipelineConfig(filename, fs)
	assert.NoError(t, err)
	assert.Equal(t, "launch-q3", cfg.RunName)
	assert.Equal(t, "mmm", cfg.Experiment)
	assert.Equal(t, []string{"tv", "search"}, cfg.Channels())

	// File values override defaults, untouched defaults survive.
	assert.Equal(t, 2, cfg.Train.SamplePosterior.NChains)
	assert.Equal(t, 50, cfg.Train.SamplePosterior.NKeep)
	assert.Equal(t, 500, cfg.Train.SamplePosterior.NAdapt)
	assert.Equal(t, 8, cfg.Train.Spec.MaxLag)
	assert.Equal(t, "log_normal", cfg.Train.Spec.Prior.RoiM.Distribution)
	assert.InDelta(t, 0.2, cfg.Train.Spec.Prior.RoiM.Mu, 1e-9)
	assert.InDelta(t, 0.9, cfg.Train.Spec.Prior.RoiM.Sigma, 1e-9)
	assert.True(t, cfg.Log.LogMetrics)
	assert.Equal(t, "baynext.log", cfg.Log.File)
}

func TestLoadPipelineConfigEnvOverride(t *testing.T) {
	t.Setenv("BAYNEXT_RUN_NAME", "from-env")
	t.Setenv("BAYNEXT_LOG_LEVEL", "debug")

	filename, fs := writeConfig(t, validYaml)
	cfg, err := LoadPipelineConfig(filename, fs)
	assert.NoError(t, err)
	assert.Equal(t, "from-env", cfg.RunName)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadPipelineConfigRejectsBadKpiType(t *testing.T) {
	filename, fs := writeConfig(t, `
load:
  kpi_type: profit
`)
	_, err := LoadPipelineConfig(filename, fs)
	assert.Error(t, err)
}

func TestValidateChannelMaps(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.Load.Source.Path = "/data/x.csv"
	cfg.Load.CoordToColumns.Time = "time"
	cfg.Load.CoordToColumns.Kpi = "kpi"
	cfg.Load.CoordToColumns.Media = []string{"tv_impressions"}
	cfg.Load.CoordToColumns.MediaSpend = []string{"tv_spend"}
	cfg.Load.MediaToChannel = map[string]string{"tv_impressions": "tv"}
	cfg.Load.MediaSpendToChannel = map[string]string{"tv_spend": "radio"}

	err := cfg.Validate()
	assert.True(t, errors.Is(err, ErrChannelMapMismatch))
}

func TestValidateSamplingSizes(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.Load.Source.Path = "/data/x.csv"
	cfg.Load.CoordToColumns.Time = "time"
	cfg.Load.CoordToColumns.Kpi = "kpi"
	cfg.Load.CoordToColumns.Media = []string{"m"}
	cfg.Load.CoordToColumns.MediaSpend = []string{"s"}
	cfg.Load.MediaToChannel = map[string]string{"m": "ch"}
	cfg.Load.MediaSpendToChannel = map[string]string{"s": "ch"}
	assert.NoError(t, cfg.Validate())

	cfg.Train.SamplePosterior.NKeep = 0
	assert.Equal(t, ErrInvalidSampling, cfg.Validate())
}
