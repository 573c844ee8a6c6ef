package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/lgrosjean/baynext-ml/internal/db"
	"github.com/lgrosjean/baynext-ml/internal/model"
	"github.com/lgrosjean/baynext-ml/internal/sampler"
	"github.com/lgrosjean/baynext-ml/internal/tracking"
)

// modelState is the trained model artifact: the structure plus posterior
// parameter means, enough to reconstruct response curves offline.
type modelState struct {
	Channels          []string           `json:"channels"`
	Controls          []string           `json:"controls"`
	Geos              []string           `json:"geos"`
	MaxLag            int                `json:"max_lag"`
	HillBeforeAdstock bool               `json:"hill_before_adstock"`
	MediaEffectsDist  string             `json:"media_effects_dist"`
	PosteriorMeans    map[string]float64 `json:"posterior_means"`
}

// export writes every analysis table, the model state and the summary
// metrics. Failures are aggregated so one bad artifact does not drop the
// rest of the run's output.
func (p *Pipeline) export(ctx context.Context, result *Result, prefix string, m *model.Model, chains *sampler.Chains, out *tables) error {
	logger := stepLogger(result.RunName, "export")

	var errs *multierror.Error

	put := func(name string, table interface{}) {
		encoded, err := json.MarshalIndent(table, "", "  ")
		if err != nil {
			errs = multierror.Append(errs, err)
			return
		}
		if err := p.store.Put(ctx, prefix+"/"+name, encoded); err != nil {
			logger.Errorf("failed to store %s: %s", name, err)
			errs = multierror.Append(errs, err)
			return
		}
		logger.Printf("stored %s", name)
	}

	put("tables/adstock_decay.json", out.Decay)
	put("tables/hill_curves.json", out.Curves)
	put("tables/summary_metrics.json", out.Summary)
	put("tables/baseline_summary.json", out.Baseline)
	put("tables/model_fit.json", out.Fit)
	put("tables/diagnostics.json", out.Diagnostics)

	if p.cfg.Log.LogModel {
		put("models/model.json", newModelState(m, chains))
	}

	if err := p.exportRegistryMetrics(ctx, result, out); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := p.exportTrackingMetrics(ctx, result, out); err != nil {
		errs = multierror.Append(errs, err)
	}

	return errs.ErrorOrNil()
}

func newModelState(m *model.Model, chains *sampler.Chains) *modelState {
	means := make(map[string]float64, len(chains.ParamNames))
	for i, name := range chains.ParamNames {
		total := 0.0
		count := 0
		for _, chain := range chains.Draws {
			for _, draw := range chain {
				total += draw[i]
				count++
			}
		}
		means[name] = total / float64(count)
	}
	return &modelState{
		Channels:          m.Data.Channels,
		Controls:          m.Data.ControlNames,
		Geos:              m.Data.Geos,
		MaxLag:            m.Spec.MaxLag,
		HillBeforeAdstock: m.Spec.HillBeforeAdstock,
		MediaEffectsDist:  m.Spec.MediaEffectsDist,
		PosteriorMeans:    means,
	}
}

func (p *Pipeline) exportRegistryMetrics(ctx context.Context, result *Result, out *tables) error {
	var errs *multierror.Error
	metrics := p.database.RunMetrics()

	for _, s := range out.Summary {
		for name, value := range map[string]float64{
			"roi_mean":     s.RoiMean,
			"spend_share":  s.SpendShare,
			"effect_share": s.EffectShare,
			"contribution": s.ContributionMean,
		} {
			if _, err := metrics.CreateMetric(ctx, &db.RunMetric{
				RunId:   result.RunId,
				Name:    name,
				Channel: s.Channel,
				Value:   value,
			}); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
	}
	if _, err := metrics.CreateMetric(ctx, &db.RunMetric{
		RunId: result.RunId,
		Name:  "baseline_share",
		Value: out.Baseline.ShareMean,
	}); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

func (p *Pipeline) exportTrackingMetrics(ctx context.Context, result *Result, out *tables) error {
	if !p.cfg.Log.LogMetrics {
		return nil
	}

	now := time.Now().UnixMilli()
	metrics := make([]tracking.Metric, 0, 4*len(out.Summary)+1)
	for _, s := range out.Summary {
		metrics = append(metrics,
			tracking.Metric{Key: "roi_" + s.Channel, Value: s.RoiMean, Timestamp: now},
			tracking.Metric{Key: "spend_share_" + s.Channel, Value: s.SpendShare, Timestamp: now},
			tracking.Metric{Key: "effect_share_" + s.Channel, Value: s.EffectShare, Timestamp: now},
			tracking.Metric{Key: "contribution_" + s.Channel, Value: s.ContributionMean, Timestamp: now},
		)
	}
	metrics = append(metrics, tracking.Metric{Key: "baseline_share", Value: out.Baseline.ShareMean, Timestamp: now})

	return p.tracking.LogBatch(ctx, result.RunId, metrics, nil, nil)
}
