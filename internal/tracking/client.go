package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lgrosjean/baynext-ml/pkg/clientbase"
	cbhttp "github.com/lgrosjean/baynext-ml/pkg/clientbase/http"
)

// MaxMetricsPerBatch is the tracking server's limit on metrics in one
// log-batch call.
const MaxMetricsPerBatch = 1000

var ErrBatchTooLarge = fmt.Errorf("log-batch accepts at most %d metrics", MaxMetricsPerBatch)

// Client is the tracking server surface the pipeline uses.
type Client interface {
	GetExperimentByName(ctx context.Context, name string) (*Experiment, error)
	CreateExperiment(ctx context.Context, name string) (string, error)
	GetOrCreateExperiment(ctx context.Context, name string) (string, error)
	CreateRun(ctx context.Context, experimentId, name string, tags []RunTag) (*Run, error)
	UpdateRun(ctx context.Context, runId, status string, endTime int64) error
	SearchRuns(ctx context.Context, experimentId string) ([]*Run, error)
	LogBatch(ctx context.Context, runId string, metrics []Metric, params []Param, tags []RunTag) error
}

// MLFlow talks MLflow REST 2.0. Mutating calls retry on transport errors.
type MLFlow struct {
	baseUrl     string
	connections *clientbase.Connections
}

var _ Client = &MLFlow{}

func NewMLFlow(cfg *Config, connections *clientbase.Connections) *MLFlow {
	return &MLFlow{
		baseUrl:     cfg.TrackingURI,
		connections: connections,
	}
}

var retryOptions = cbhttp.ComposeOptions(
	cbhttp.RetryAttempts(3),
	cbhttp.RetryFixedDelay(500*time.Millisecond),
	cbhttp.RetryIf(cbhttp.RetryIfBaseError),
)

func (m *MLFlow) GetExperimentByName(ctx context.Context, name string) (*Experiment, error) {
	url := fmt.Sprintf("%s/api/2.0/mlflow/experiments/get-by-name", m.baseUrl)
	req := cbhttp.NewRequest(ctx, "GET", url, cbhttp.QueryValue("experiment_name", name))
	resp, herr := m.connections.HttpClient.Do(req)
	if herr != nil {
		if herr.NotFound() {
			return nil, nil
		}
		return nil, herr
	}
	defer resp.Close()

	var response experimentResponse
	if err := decode(resp, &response); err != nil {
		return nil, err
	}
	return &response.Experiment, nil
}

func (m *MLFlow) CreateExperiment(ctx context.Context, name string) (string, error) {
	url := fmt.Sprintf("%s/api/2.0/mlflow/experiments/create", m.baseUrl)
	req := cbhttp.NewRequest(ctx, "POST", url,
		cbhttp.JSONBody(map[string]interface{}{"name": name}),
		retryOptions,
	)
	resp, herr := m.connections.HttpClient.Do(req)
	if herr != nil {
		return "", herr
	}
	defer resp.Close()

	var response createExperimentResponse
	if err := decode(resp, &response); err != nil {
		return "", err
	}
	return response.ExperimentId, nil
}

func (m *MLFlow) GetOrCreateExperiment(ctx context.Context, name string) (string, error) {
	experiment, err := m.GetExperimentByName(ctx, name)
	if err != nil {
		return "", err
	}
	if experiment != nil {
		return experiment.ExperimentId, nil
	}
	log.Printf("experiment %s not found, creating it", name)
	return m.CreateExperiment(ctx, name)
}

func (m *MLFlow) CreateRun(ctx context.Context, experimentId, name string, tags []RunTag) (*Run, error) {
	url := fmt.Sprintf("%s/api/2.0/mlflow/runs/create", m.baseUrl)
	req := cbhttp.NewRequest(ctx, "POST", url,
		cbhttp.JSONBody(map[string]interface{}{
			"experiment_id": experimentId,
			"run_name":      name,
			"start_time":    time.Now().UnixMilli(),
			"tags":          tags,
		}),
		retryOptions,
	)
	resp, herr := m.connections.HttpClient.Do(req)
	if herr != nil {
		return nil, herr
	}
	defer resp.Close()

	var response runResponse
	if err := decode(resp, &response); err != nil {
		return nil, err
	}
	return &response.Run, nil
}

func (m *MLFlow) UpdateRun(ctx context.Context, runId, status string, endTime int64) error {
	url := fmt.Sprintf("%s/api/2.0/mlflow/runs/update", m.baseUrl)
	body := map[string]interface{}{
		"run_id": runId,
		"status": status,
	}
	if endTime > 0 {
		body["end_time"] = endTime
	}
	req := cbhttp.NewRequest(ctx, "POST", url, cbhttp.JSONBody(body), retryOptions)
	if herr := m.connections.HttpClient.DoNoResponse(req); herr != nil {
		return herr
	}
	return nil
}

func (m *MLFlow) SearchRuns(ctx context.Context, experimentId string) ([]*Run, error) {
	url := fmt.Sprintf("%s/api/2.0/mlflow/runs/search", m.baseUrl)
	token := ""
	runs := make([]*Run, 0)
	for {
		req := cbhttp.NewRequest(ctx, "POST", url,
			cbhttp.JSONBody(map[string]interface{}{
				"experiment_ids": []string{experimentId},
				"page_token":     token,
			}),
		)
		resp, herr := m.connections.HttpClient.Do(req)
		if herr != nil {
			return nil, herr
		}

		var response runsSearchResponse
		err := decode(resp, &response)
		resp.Close()
		if err != nil {
			return nil, err
		}
		for i := range response.Runs {
			runs = append(runs, &response.Runs[i])
		}
		if response.NextPageToken == "" {
			return runs, nil
		}
		token = response.NextPageToken
	}
}

func (m *MLFlow) LogBatch(ctx context.Context, runId string, metrics []Metric, params []Param, tags []RunTag) error {
	if len(metrics) > MaxMetricsPerBatch {
		return ErrBatchTooLarge
	}
	url := fmt.Sprintf("%s/api/2.0/mlflow/runs/log-batch", m.baseUrl)
	req := cbhttp.NewRequest(ctx, "POST", url,
		cbhttp.JSONBody(map[string]interface{}{
			"run_id":  runId,
			"metrics": metrics,
			"params":  params,
			"tags":    tags,
		}),
		retryOptions,
	)
	if herr := m.connections.HttpClient.DoNoResponse(req); herr != nil {
		return herr
	}
	return nil
}

func decode(resp *cbhttp.Response, target interface{}) error {
	body, err := io.ReadAll(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, target)
}
