package config

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	lconfig "github.com/lgrosjean/baynext-ml/pkg/config"
)

const (
	KpiTypeRevenue    = "revenue"
	KpiTypeNonRevenue = "non_revenue"
)

var ErrInvalidKpiType = fmt.Errorf("kpi_type must be %q or %q", KpiTypeRevenue, KpiTypeNonRevenue)
var ErrMissingDatasetPath = fmt.Errorf("load.source.path is required")
var ErrMissingTimeColumn = fmt.Errorf("load.coord_to_columns.time is required")
var ErrMissingKpiColumn = fmt.Errorf("load.coord_to_columns.kpi is required")
var ErrNoMediaChannels = fmt.Errorf("load.coord_to_columns.media must name at least one column")
var ErrChannelMapMismatch = fmt.Errorf("media_to_channel and media_spend_to_channel must resolve to the same channels")
var ErrInvalidSampling = fmt.Errorf("sampling sizes must be positive")
var ErrInvalidMaxLag = fmt.Errorf("train.spec.max_lag must be positive")
var ErrInvalidQuantiles = fmt.Errorf("analyze.quantiles must lie in (0, 1)")

// PipelineConfig drives one training run end to end. Values come from the
// YAML file, with BAYNEXT_* environment variables taking precedence over
// the top-level fields.
type PipelineConfig struct {
	RunName    string `json:"run_name" env:"BAYNEXT_RUN_NAME"`
	Message    string `json:"message" env:"BAYNEXT_MESSAGE"`
	Experiment string `json:"experiment" env:"BAYNEXT_EXPERIMENT"`

	Load    LoadConfig    `json:"load"`
	Train   TrainConfig   `json:"train"`
	Analyze AnalyzeConfig `json:"analyze"`
	Log     LogConfig     `json:"log"`
}

type LoadConfig struct {
	Source              SourceConfig      `json:"source"`
	KpiType             string            `json:"kpi_type"`
	CoordToColumns      CoordToColumns    `json:"coord_to_columns"`
	MediaToChannel      map[string]string `json:"media_to_channel"`
	MediaSpendToChannel map[string]string `json:"media_spend_to_channel"`
}

type SourceConfig struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Path string `json:"path" env:"BAYNEXT_DATASET_PATH"`
}

// CoordToColumns maps model coordinates to CSV column names. An empty Geo
// selects the national model (a single synthetic geo).
type CoordToColumns struct {
	Time          string   `json:"time"`
	Geo           string   `json:"geo,omitempty"`
	Kpi           string   `json:"kpi"`
	Population    string   `json:"population,omitempty"`
	RevenuePerKpi string   `json:"revenue_per_kpi,omitempty"`
	Controls      []string `json:"controls,omitempty"`
	Media         []string `json:"media"`
	MediaSpend    []string `json:"media_spend"`
}

type TrainConfig struct {
	Spec            SpecConfig            `json:"spec"`
	SamplePrior     PriorSampleConfig     `json:"sample_prior"`
	SamplePosterior PosteriorSampleConfig `json:"sample_posterior"`
}

type SpecConfig struct {
	Prior             PriorConfig `json:"prior"`
	MediaEffectsDist  string      `json:"media_effects_dist"`
	HillBeforeAdstock bool        `json:"hill_before_adstock"`
	MaxLag            int         `json:"max_lag"`
}

type PriorConfig struct {
	RoiM DistributionConfig `json:"roi_m"`
}

type DistributionConfig struct {
	Distribution string  `json:"distribution"`
	Mu           float64 `json:"mu"`
	Sigma        float64 `json:"sigma"`
	Low          float64 `json:"low"`
	High         float64 `json:"high"`
}

type PriorSampleConfig struct {
	NDraws int   `json:"n_draws"`
	Seed   int64 `json:"seed"`
}

type PosteriorSampleConfig struct {
	NChains      int   `json:"n_chains"`
	NAdapt       int   `json:"n_adapt"`
	NBurnin      int   `json:"n_burnin"`
	NKeep        int   `json:"n_keep"`
	MaxTreeDepth int   `json:"max_tree_depth"`
	Seed         int64 `json:"seed"`
}

type AnalyzeConfig struct {
	CurvePoints int       `json:"curve_points"`
	Quantiles   []float64 `json:"quantiles"`
}

type LogConfig struct {
	Level      string `json:"level" env:"BAYNEXT_LOG_LEVEL"`
	File       string `json:"file"`
	LogMetrics bool   `json:"log_metrics"`
	LogDataset bool   `json:"log_dataset"`
	LogModel   bool   `json:"log_model"`
}

// DefaultPipelineConfig carries the defaults the YAML file can override.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Experiment: "baynext",
		Load: LoadConfig{
			Source:  SourceConfig{Type: "csv"},
			KpiType: KpiTypeNonRevenue,
		},
		Train: TrainConfig{
			Spec: SpecConfig{
				Prior: PriorConfig{
					RoiM: DistributionConfig{
						Distribution: "log_normal",
						Mu:           0.2,
						Sigma:        0.9,
					},
				},
				MediaEffectsDist:  "log_normal",
				HillBeforeAdstock: false,
				MaxLag:            8,
			},
			SamplePrior: PriorSampleConfig{
				NDraws: 100,
			},
			SamplePosterior: PosteriorSampleConfig{
				NChains:      7,
				NAdapt:       500,
				NBurnin:      500,
				NKeep:        1000,
				MaxTreeDepth: 10,
			},
		},
		Analyze: AnalyzeConfig{
			CurvePoints: 100,
			Quantiles:   []float64{0.05, 0.95},
		},
		Log: LogConfig{
			Level:      "info",
			File:       "baynext.log",
			LogMetrics: true,
			LogDataset: true,
			LogModel:   true,
		},
	}
}

// LoadPipelineConfig reads the YAML file, validates the document against the
// embedded schema, decodes it over the defaults, then applies environment
// overrides.
func LoadPipelineConfig(filename string, filesystem afero.Fs) (*PipelineConfig, error) {
	raw, err := afero.ReadFile(filesystem, filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	cfg := DefaultPipelineConfig()
	if err := lconfig.LoadYamlFile(filename, filesystem, cfg); err != nil {
		return nil, err
	}
	if err := lconfig.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *PipelineConfig) Validate() error {
	if c.Load.KpiType != KpiTypeRevenue && c.Load.KpiType != KpiTypeNonRevenue {
		return ErrInvalidKpiType
	}
	if c.Load.Source.Path == "" {
		return ErrMissingDatasetPath
	}
	if c.Load.CoordToColumns.Time == "" {
		return ErrMissingTimeColumn
	}
	if c.Load.CoordToColumns.Kpi == "" {
		return ErrMissingKpiColumn
	}
	if len(c.Load.CoordToColumns.Media) == 0 {
		return ErrNoMediaChannels
	}
	if err := c.validateChannelMaps(); err != nil {
		return err
	}
	if c.Train.Spec.MaxLag < 1 {
		return ErrInvalidMaxLag
	}
	if c.Train.SamplePrior.NDraws < 1 {
		return ErrInvalidSampling
	}
	post := c.Train.SamplePosterior
	if post.NChains < 1 || post.NAdapt < 0 || post.NBurnin < 0 || post.NKeep < 1 {
		return ErrInvalidSampling
	}
	for _, q := range c.Analyze.Quantiles {
		if q <= 0 || q >= 1 {
			return ErrInvalidQuantiles
		}
	}
	return nil
}

func (c *PipelineConfig) validateChannelMaps() error {
	coords := c.Load.CoordToColumns
	if len(coords.Media) != len(coords.MediaSpend) {
		return ErrChannelMapMismatch
	}

	mediaChannels := make(map[string]bool)
	for _, col := range coords.Media {
		channel, ok := c.Load.MediaToChannel[col]
		if !ok {
			return errors.Wrapf(ErrChannelMapMismatch, "media column %s has no channel", col)
		}
		mediaChannels[channel] = true
	}
	for _, col := range coords.MediaSpend {
		channel, ok := c.Load.MediaSpendToChannel[col]
		if !ok {
			return errors.Wrapf(ErrChannelMapMismatch, "spend column %s has no channel", col)
		}
		if !mediaChannels[channel] {
			return errors.Wrapf(ErrChannelMapMismatch, "spend channel %s has no media column", channel)
		}
	}
	return nil
}

// Channels returns the channel names in media column order.
func (c *PipelineConfig) Channels() []string {
	channels := make([]string, 0, len(c.Load.CoordToColumns.Media))
	for _, col := range c.Load.CoordToColumns.Media {
		channels = append(channels, c.Load.MediaToChannel[col])
	}
	return channels
}
