package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/lgrosjean/baynext-ml/internal/analysis"
	"github.com/lgrosjean/baynext-ml/internal/artifacts"
	"github.com/lgrosjean/baynext-ml/internal/config"
	"github.com/lgrosjean/baynext-ml/internal/data"
	"github.com/lgrosjean/baynext-ml/internal/db"
	"github.com/lgrosjean/baynext-ml/internal/model"
	"github.com/lgrosjean/baynext-ml/internal/sampler"
	"github.com/lgrosjean/baynext-ml/internal/tracking"
	"github.com/lgrosjean/baynext-ml/pkg/dispatch"
)

// Pipeline runs one training end to end: load, train, analyze, export.
// Every stage reports to the tracking server; the run registry keeps the
// final status and summary metrics.
type Pipeline struct {
	cfg         *config.PipelineConfig
	tracking    tracking.Client
	database    db.Database
	store       artifacts.Store
	fs          afero.Fs
	dispatchCfg *dispatch.Config
}

func New(cfg *config.PipelineConfig, trackingClient tracking.Client, database db.Database, store artifacts.Store, fs afero.Fs, dispatchCfg *dispatch.Config) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		tracking:    trackingClient,
		database:    database,
		store:       store,
		fs:          fs,
		dispatchCfg: dispatchCfg,
	}
}

// Result carries the identifiers of a finished run.
type Result struct {
	ExperimentId string
	RunId        string
	RunName      string
}

func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runName := p.cfg.RunName
	if runName == "" {
		runName = fmt.Sprintf("run-%s", time.Now().UTC().Format("20060102-150405"))
	}

	experimentId, err := p.tracking.GetOrCreateExperiment(ctx, p.cfg.Experiment)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve experiment")
	}

	run, err := p.tracking.CreateRun(ctx, experimentId, runName, []tracking.RunTag{
		{Key: "message", Value: p.cfg.Message},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tracking run")
	}
	runId := run.Info.RunId

	if _, err := p.database.Runs().CreateRun(ctx, &db.Run{
		RunId:        runId,
		ExperimentId: experimentId,
		Name:         runName,
		Status:       db.RunStatusRunning,
		Message:      p.cfg.Message,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to register run")
	}

	result := &Result{ExperimentId: experimentId, RunId: runId, RunName: runName}
	if err := p.execute(ctx, result); err != nil {
		p.markFailed(ctx, result, err)
		return result, err
	}

	if err := p.tracking.UpdateRun(ctx, runId, tracking.RunStatusFinished, time.Now().UnixMilli()); err != nil {
		return result, errors.Wrap(err, "failed to finish tracking run")
	}
	if err := p.database.Runs().UpdateRunStatus(ctx, runId, db.RunStatusFinished, ""); err != nil {
		return result, errors.Wrap(err, "failed to finish registry run")
	}
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, result *Result) error {
	prefix := artifacts.RunPrefix(result.ExperimentId, result.RunId)

	if err := p.logConfigSnapshot(ctx, result, prefix); err != nil {
		return errors.Wrap(err, "failed to snapshot config")
	}
	if err := p.logParams(ctx, result.RunId); err != nil {
		return errors.Wrap(err, "failed to log params")
	}

	input, err := p.load(ctx, result, prefix)
	if err != nil {
		return errors.Wrap(err, "load stage failed")
	}

	m, chains, err := p.train(ctx, result, input)
	if err != nil {
		return errors.Wrap(err, "train stage failed")
	}

	tables, err := p.analyze(result, m, chains)
	if err != nil {
		return errors.Wrap(err, "analyze stage failed")
	}

	if err := p.export(ctx, result, prefix, m, chains, tables); err != nil {
		return errors.Wrap(err, "export stage failed")
	}
	return nil
}

func (p *Pipeline) markFailed(ctx context.Context, result *Result, cause error) {
	logger := stepLogger(result.RunName, "finish")
	if err := p.tracking.UpdateRun(ctx, result.RunId, tracking.RunStatusFailed, time.Now().UnixMilli()); err != nil {
		logger.Errorf("failed to mark tracking run failed: %s", err)
	}
	if err := p.database.Runs().UpdateRunStatus(ctx, result.RunId, db.RunStatusFailed, cause.Error()); err != nil {
		logger.Errorf("failed to mark registry run failed: %s", err)
	}
}

func (p *Pipeline) logConfigSnapshot(ctx context.Context, result *Result, prefix string) error {
	snapshot, err := yaml.Marshal(p.cfg)
	if err != nil {
		return err
	}
	return p.store.Put(ctx, prefix+"/config.yaml", snapshot)
}

func (p *Pipeline) logParams(ctx context.Context, runId string) error {
	train := p.cfg.Train
	params := []tracking.Param{
		{Key: "kpi_type", Value: p.cfg.Load.KpiType},
		{Key: "roi_distribution", Value: train.Spec.Prior.RoiM.Distribution},
		{Key: "roi_mu", Value: formatFloat(train.Spec.Prior.RoiM.Mu)},
		{Key: "roi_sigma", Value: formatFloat(train.Spec.Prior.RoiM.Sigma)},
		{Key: "media_effects_dist", Value: train.Spec.MediaEffectsDist},
		{Key: "hill_before_adstock", Value: strconv.FormatBool(train.Spec.HillBeforeAdstock)},
		{Key: "max_lag", Value: strconv.Itoa(train.Spec.MaxLag)},
		{Key: "n_draws", Value: strconv.Itoa(train.SamplePrior.NDraws)},
		{Key: "n_chains", Value: strconv.Itoa(train.SamplePosterior.NChains)},
		{Key: "n_adapt", Value: strconv.Itoa(train.SamplePosterior.NAdapt)},
		{Key: "n_burnin", Value: strconv.Itoa(train.SamplePosterior.NBurnin)},
		{Key: "n_keep", Value: strconv.Itoa(train.SamplePosterior.NKeep)},
		{Key: "max_tree_depth", Value: strconv.Itoa(train.SamplePosterior.MaxTreeDepth)},
	}
	return p.tracking.LogBatch(ctx, runId, nil, params, nil)
}

func (p *Pipeline) load(ctx context.Context, result *Result, prefix string) (*data.InputData, error) {
	logger := stepLogger(result.RunName, "load")
	logger.Printf("loading dataset %s from %s", p.cfg.Load.Source.Name, p.cfg.Load.Source.Path)

	input, err := data.LoadCSV(&p.cfg.Load, p.fs)
	if err != nil {
		return nil, err
	}
	logger.Printf("loaded %d geos, %d periods, %d channels", input.NGeos(), input.NTimes(), input.NChannels())

	if p.cfg.Log.LogDataset {
		raw, err := afero.ReadFile(p.fs, p.cfg.Load.Source.Path)
		if err != nil {
			return nil, err
		}
		if err := p.store.Put(ctx, prefix+"/dataset/"+datasetName(p.cfg), raw); err != nil {
			return nil, err
		}
	}
	return input, nil
}

func (p *Pipeline) train(ctx context.Context, result *Result, input *data.InputData) (*model.Model, *sampler.Chains, error) {
	logger := stepLogger(result.RunName, "train")

	spec, err := model.NewModelSpec(p.cfg.Train.Spec)
	if err != nil {
		return nil, nil, err
	}
	m := model.NewModel(spec, input)

	priorDraws := sampler.SamplePrior(m, p.cfg.Train.SamplePrior.NDraws, p.cfg.Train.SamplePrior.Seed)
	logger.Printf("sampled %d prior draws", len(priorDraws))

	var progress sampler.Progress
	var recorder *tracking.Recorder
	if p.cfg.Log.LogMetrics {
		recorder = tracking.NewRecorder(ctx, p.tracking, result.RunId, p.dispatchCfg)
		progress = recorder
	}

	logger.Printf("sampling posterior: %d chains, %d kept draws", p.cfg.Train.SamplePosterior.NChains, p.cfg.Train.SamplePosterior.NKeep)
	chains, err := sampler.SamplePosterior(ctx, m, p.cfg.Train.SamplePosterior, progress)

	if recorder != nil {
		if closeErr := recorder.Close(ctx); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	if err != nil {
		return nil, nil, err
	}
	return m, chains, nil
}

// tables bundles every analysis output exported as an artifact.
type tables struct {
	Decay       []analysis.DecayPoint
	Curves      []analysis.CurvePoint
	Summary     []analysis.ChannelSummary
	Baseline    analysis.Baseline
	Fit         []analysis.FitPoint
	Diagnostics []sampler.Diagnostic
}

func (p *Pipeline) analyze(result *Result, m *model.Model, chains *sampler.Chains) (*tables, error) {
	logger := stepLogger(result.RunName, "analyze")
	quantiles := p.cfg.Analyze.Quantiles

	out := &tables{
		Decay:       analysis.AdstockDecay(m, chains, quantiles),
		Curves:      analysis.HillCurves(m, chains, p.cfg.Analyze.CurvePoints, quantiles),
		Summary:     analysis.SummaryMetrics(m, chains, quantiles),
		Baseline:    analysis.BaselineSummary(m, chains, quantiles),
		Fit:         analysis.ModelFit(m, chains, quantiles),
		Diagnostics: sampler.Diagnostics(chains),
	}
	for _, s := range out.Summary {
		logger.Printf("channel %s: roi %.3f, effect share %.3f", s.Channel, s.RoiMean, s.EffectShare)
	}
	return out, nil
}

func datasetName(cfg *config.PipelineConfig) string {
	if cfg.Load.Source.Name != "" {
		return cfg.Load.Source.Name + ".csv"
	}
	return "dataset.csv"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
