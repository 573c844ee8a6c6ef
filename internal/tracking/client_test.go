package tracking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lgrosjean/baynext-ml/pkg/clientbase"
	cbhttp "github.com/lgrosjean/baynext-ml/pkg/clientbase/http"
)

func newTestClient(t *testing.T, handler http.Handler) (*MLFlow, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient, err := cbhttp.NewInstance(&cbhttp.Config{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("failed to build http client: %v", err)
	}
	connections, err := clientbase.NewConnections(httpClient)
	if err != nil {
		t.Fatalf("failed to build connections: %v", err)
	}
	t.Cleanup(func() { _ = connections.Close() })

	return NewMLFlow(&Config{TrackingURI: server.URL}, connections), server
}

func TestGetExperimentByName(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/mlflow/experiments/get-by-name", r.URL.Path)
		assert.Equal(t, "mmm", r.URL.Query().Get("experiment_name"))
		_ = json.NewEncoder(w).Encode(experimentResponse{
			Experiment: Experiment{ExperimentId: "42", Name: "mmm", LifecycleStage: "active"},
		})
	}))

	experiment, err := client.GetExperimentByName(context.Background(), "mmm")
	assert.NoError(t, err)
	assert.Equal(t, "42", experiment.ExperimentId)
}

func TestGetExperimentByNameNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error_code":"RESOURCE_DOES_NOT_EXIST"}`, http.StatusNotFound)
	}))

	experiment, err := client.GetExperimentByName(context.Background(), "absent")
	assert.NoError(t, err)
	assert.Nil(t, experiment)
}

func TestGetOrCreateExperiment(t *testing.T) {
	created := false
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/2.0/mlflow/experiments/get-by-name":
			http.Error(w, "not found", http.StatusNotFound)
		case "/api/2.0/mlflow/experiments/create":
			created = true
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "fresh", body["name"])
			_ = json.NewEncoder(w).Encode(createExperimentResponse{ExperimentId: "7"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	id, err := client.GetOrCreateExperiment(context.Background(), "fresh")
	assert.NoError(t, err)
	assert.Equal(t, "7", id)
	assert.True(t, created)
}

func TestCreateAndUpdateRun(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/2.0/mlflow/runs/create":
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "42", body["experiment_id"])
			assert.Equal(t, "launch-q3", body["run_name"])
			_ = json.NewEncoder(w).Encode(runResponse{Run: Run{
				Info: RunInfo{RunId: "abc", ExperimentId: "42", Status: RunStatusRunning},
			}})
		case "/api/2.0/mlflow/runs/update":
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "abc", body["run_id"])
			assert.Equal(t, RunStatusFinished, body["status"])
			assert.NotZero(t, body["end_time"])
			_, _ = w.Write([]byte("{}"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	run, err := client.CreateRun(context.Background(), "42", "launch-q3", []RunTag{{Key: "source", Value: "pipeline"}})
	assert.NoError(t, err)
	assert.Equal(t, "abc", run.Info.RunId)

	err = client.UpdateRun(context.Background(), "abc", RunStatusFinished, time.Now().UnixMilli())
	assert.NoError(t, err)
}

func TestSearchRunsPagination(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/mlflow/runs/search", r.URL.Path)
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls++
		if calls == 1 {
			assert.Equal(t, "", body["page_token"])
			_ = json.NewEncoder(w).Encode(runsSearchResponse{
				Runs:          []Run{{Info: RunInfo{RunId: "r1"}}},
				NextPageToken: "page-2",
			})
			return
		}
		assert.Equal(t, "page-2", body["page_token"])
		_ = json.NewEncoder(w).Encode(runsSearchResponse{
			Runs: []Run{{Info: RunInfo{RunId: "r2"}}},
		})
	}))

	runs, err := client.SearchRuns(context.Background(), "42")
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "r1", runs[0].Info.RunId)
	assert.Equal(t, "r2", runs[1].Info.RunId)
}

func TestLogBatch(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/mlflow/runs/log-batch", r.URL.Path)
		var body struct {
			RunId   string   `json:"run_id"`
			Metrics []Metric `json:"metrics"`
			Params  []Param  `json:"params"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "abc", body.RunId)
		assert.Equal(t, 2, len(body.Metrics))
		assert.Equal(t, "n_chains", body.Params[0].Key)
		_, _ = w.Write([]byte("{}"))
	}))

	err := client.LogBatch(context.Background(), "abc",
		[]Metric{
			{Key: "roi_tv", Value: 1.4, Timestamp: 1, Step: 0},
			{Key: "roi_search", Value: 2.1, Timestamp: 1, Step: 0},
		},
		[]Param{{Key: "n_chains", Value: "7"}},
		nil,
	)
	assert.NoError(t, err)
}

func TestLogBatchTooLarge(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))

	metrics := make([]Metric, MaxMetricsPerBatch+1)
	err := client.LogBatch(context.Background(), "abc", metrics, nil, nil)
	assert.Equal(t, ErrBatchTooLarge, err)
}
