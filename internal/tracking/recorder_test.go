package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lgrosjean/baynext-ml/pkg/dispatch"
)

func recorderConfig(t *testing.T) *dispatch.Config {
	t.Helper()
	cfg, err := dispatch.NewConfig(10*time.Millisecond, 2, 10)
	if err != nil {
		t.Fatalf("failed to build dispatch config: %v", err)
	}
	return cfg
}

func TestRecorderFlushesMetrics(t *testing.T) {
	mock := NewClientMock()
	run, err := mock.CreateRun(context.Background(), "1", "test", nil)
	assert.NoError(t, err)

	recorder := NewRecorder(context.Background(), mock, run.Info.RunId, recorderConfig(t))
	for i := 0; i < 25; i++ {
		recorder.LogMetric("log_posterior", int64(i), float64(i))
	}

	assert.NoError(t, recorder.Close(context.Background()))
	assert.Equal(t, 25, mock.MetricCount(run.Info.RunId))
}

func TestRecorderSplitsLargeBuffers(t *testing.T) {
	mock := NewClientMock()
	run, err := mock.CreateRun(context.Background(), "1", "test", nil)
	assert.NoError(t, err)

	recorder := NewRecorder(context.Background(), mock, run.Info.RunId, recorderConfig(t))
	total := MaxMetricsPerBatch + 250
	for i := 0; i < total; i++ {
		recorder.LogMetric("chain_0/log_posterior", int64(i), float64(i))
	}

	assert.NoError(t, recorder.Close(context.Background()))
	assert.Equal(t, total, mock.MetricCount(run.Info.RunId))

	mock.Lock.Lock()
	defer mock.Lock.Unlock()
	for _, batch := range mock.Batches {
		assert.LessOrEqual(t, len(batch), MaxMetricsPerBatch)
	}
}

func TestRecorderRetriesFailedBatches(t *testing.T) {
	mock := NewClientMock()
	run, err := mock.CreateRun(context.Background(), "1", "test", nil)
	assert.NoError(t, err)
	mock.FailBatches = 1

	recorder := NewRecorder(context.Background(), mock, run.Info.RunId, recorderConfig(t))
	recorder.LogMetric("acceptance_rate", 0, 0.23)

	// Close drains the failed batch synchronously after the flusher stops.
	assert.NoError(t, recorder.Close(context.Background()))
	assert.Equal(t, 1, mock.MetricCount(run.Info.RunId))
}
