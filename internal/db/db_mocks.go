package db

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type RunsMock struct {
	Lock     sync.Mutex
	RunsById []*Run
	nextId   int64
}

var _ RunService = &RunsMock{}

func (m *RunsMock) CreateRun(_ context.Context, run *Run) (*Run, error) {
	m.Lock.Lock()
	defer m.Lock.Unlock()
	m.nextId++
	created := *run
	created.Id = m.nextId
	created.CreatedTs = time.Now()
	created.UpdatedTs = created.CreatedTs
	m.RunsById = append(m.RunsById, &created)
	return &created, nil
}

func (m *RunsMock) GetRun(_ context.Context, runId string) (*Run, error) {
	m.Lock.Lock()
	defer m.Lock.Unlock()
	for _, run := range m.RunsById {
		if run.RunId == runId {
			return run, nil
		}
	}
	return nil, nil
}

func (m *RunsMock) ListRuns(_ context.Context, experimentId string) ([]*Run, error) {
	m.Lock.Lock()
	defer m.Lock.Unlock()
	var matches []*Run
	for _, run := range m.RunsById {
		if run.ExperimentId == experimentId {
			matches = append(matches, run)
		}
	}
	return matches, nil
}

func (m *RunsMock) UpdateRunStatus(_ context.Context, runId string, status string, message string) error {
	m.Lock.Lock()
	defer m.Lock.Unlock()
	for _, run := range m.RunsById {
		if run.RunId == runId {
			run.Status = status
			run.Message = message
			run.UpdatedTs = time.Now()
			return nil
		}
	}
	return fmt.Errorf("run %s not found", runId)
}

type RunMetricsMock struct {
	Lock    sync.Mutex
	Metrics []*RunMetric
	nextId  int64
}

var _ RunMetricsService = &RunMetricsMock{}

func (m *RunMetricsMock) CreateMetric(_ context.Context, metric *RunMetric) (*RunMetric, error) {
	m.Lock.Lock()
	defer m.Lock.Unlock()
	m.nextId++
	created := *metric
	created.Id = m.nextId
	created.CreatedTs = time.Now()
	m.Metrics = append(m.Metrics, &created)
	return &created, nil
}

func (m *RunMetricsMock) ListMetrics(_ context.Context, runId string) ([]*RunMetric, error) {
	m.Lock.Lock()
	defer m.Lock.Unlock()
	var matches []*RunMetric
	for _, metric := range m.Metrics {
		if metric.RunId == runId {
			matches = append(matches, metric)
		}
	}
	return matches, nil
}

type DatabaseMock struct {
	RunsService    *RunsMock
	MetricsService *RunMetricsMock
}

var _ Database = &DatabaseMock{}

func NewDatabaseMock() *DatabaseMock {
	return &DatabaseMock{
		RunsService:    &RunsMock{},
		MetricsService: &RunMetricsMock{},
	}
}

func (m *DatabaseMock) Runs() RunService {
	return m.RunsService
}

func (m *DatabaseMock) RunMetrics() RunMetricsService {
	return m.MetricsService
}
