package tracking

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// ClientMock is an in-memory tracking server for tests.
type ClientMock struct {
	Lock        sync.Mutex
	Experiments map[string]string
	Runs        map[string]*Run
	Batches     [][]Metric
	FailBatches int

	nextId int
}

var _ Client = &ClientMock{}

func NewClientMock() *ClientMock {
	return &ClientMock{
		Experiments: make(map[string]string),
		Runs:        make(map[string]*Run),
	}
}

func (m *ClientMock) GetExperimentByName(_ context.Context, name string) (*Experiment, error) {
	m.Lock.Lock()
	defer m.Lock.Unlock()
	id, ok := m.Experiments[name]
	if !ok {
		return nil, nil
	}
	return &Experiment{ExperimentId: id, Name: name, LifecycleStage: "active"}, nil
}

func (m *ClientMock) CreateExperiment(_ context.Context, name string) (string, error) {
	m.Lock.Lock()
	defer m.Lock.Unlock()
	m.nextId++
	id := strconv.Itoa(m.nextId)
	m.Experiments[name] = id
	return id, nil
}

func (m *ClientMock) GetOrCreateExperiment(ctx context.Context, name string) (string, error) {
	experiment, err := m.GetExperimentByName(ctx, name)
	if err != nil {
		return "", err
	}
	if experiment != nil {
		return experiment.ExperimentId, nil
	}
	return m.CreateExperiment(ctx, name)
}

func (m *ClientMock) CreateRun(_ context.Context, experimentId, name string, tags []RunTag) (*Run, error) {
	m.Lock.Lock()
	defer m.Lock.Unlock()
	m.nextId++
	run := &Run{
		Info: RunInfo{
			RunId:        fmt.Sprintf("run-%d", m.nextId),
			ExperimentId: experimentId,
			RunName:      name,
			Status:       RunStatusRunning,
			StartTime:    time.Now().UnixMilli(),
		},
		Data: RunData{Tags: tags},
	}
	m.Runs[run.Info.RunId] = run
	return run, nil
}

func (m *ClientMock) UpdateRun(_ context.Context, runId, status string, endTime int64) error {
	m.Lock.Lock()
	defer m.Lock.Unlock()
	run, ok := m.Runs[runId]
	if !ok {
		return fmt.Errorf("run %s not found", runId)
	}
	run.Info.Status = status
	run.Info.EndTime = endTime
	return nil
}

func (m *ClientMock) SearchRuns(_ context.Context, experimentId string) ([]*Run, error) {
	m.Lock.Lock()
	defer m.Lock.Unlock()
	runs := make([]*Run, 0)
	for _, run := range m.Runs {
		if run.Info.ExperimentId == experimentId {
			runs = append(runs, run)
		}
	}
	return runs, nil
}

func (m *ClientMock) LogBatch(_ context.Context, runId string, metrics []Metric, params []Param, tags []RunTag) error {
	if len(metrics) > MaxMetricsPerBatch {
		return ErrBatchTooLarge
	}
	m.Lock.Lock()
	defer m.Lock.Unlock()
	if m.FailBatches > 0 {
		m.FailBatches--
		return fmt.Errorf("transient tracking failure")
	}
	run, ok := m.Runs[runId]
	if !ok {
		return fmt.Errorf("run %s not found", runId)
	}
	if len(metrics) > 0 {
		m.Batches = append(m.Batches, metrics)
		run.Data.Metrics = append(run.Data.Metrics, metrics...)
	}
	run.Data.Params = append(run.Data.Params, params...)
	run.Data.Tags = append(run.Data.Tags, tags...)
	return nil
}

// MetricCount returns the total metrics logged to one run.
func (m *ClientMock) MetricCount(runId string) int {
	m.Lock.Lock()
	defer m.Lock.Unlock()
	run, ok := m.Runs[runId]
	if !ok {
		return 0
	}
	return len(run.Data.Metrics)
}
