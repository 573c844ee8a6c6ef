package tracking

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lgrosjean/baynext-ml/pkg/dispatch"
)

// Recorder buffers metrics for one run and flushes them to the tracking
// server asynchronously in log-batch chunks. Failed batches are retried by
// the dispatch queue.
type Recorder struct {
	client Client
	runId  string

	lock      sync.Mutex
	buffer    []Metric
	batches   map[uint64][]Metric
	nextBatch uint64

	manager *dispatch.Manager[uint64]
}

func NewRecorder(ctx context.Context, client Client, runId string, cfg *dispatch.Config) *Recorder {
	r := &Recorder{
		client:  client,
		runId:   runId,
		batches: make(map[uint64][]Metric),
	}
	r.manager = dispatch.NewManager[uint64](ctx, cfg, r)
	r.manager.Start()
	return r
}

// LogMetric buffers one metric value.
func (r *Recorder) LogMetric(name string, step int64, value float64) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.buffer = append(r.buffer, Metric{
		Key:       name,
		Value:     value,
		Timestamp: time.Now().UnixMilli(),
		Step:      step,
	})
}

// Record satisfies the sampler progress interface.
func (r *Recorder) Record(name string, step int64, value float64) {
	r.LogMetric(name, step, value)
}

func (r *Recorder) Name() string {
	return "metrics"
}

func (r *Recorder) Reload(_ context.Context) {}

// Collect slices the buffer into batches within the log-batch limit and
// queues their ids.
func (r *Recorder) Collect(_ context.Context, queue *dispatch.Queue[uint64]) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for len(r.buffer) > 0 {
		size := len(r.buffer)
		if size > MaxMetricsPerBatch {
			size = MaxMetricsPerBatch
		}
		batch := make([]Metric, size)
		copy(batch, r.buffer[:size])
		r.buffer = r.buffer[size:]

		id := r.nextBatch
		r.nextBatch++
		r.batches[id] = batch
		queue.Add(id)
	}
}

func (r *Recorder) Process(ctx context.Context, items []dispatch.Item[uint64]) {
	for _, item := range items {
		r.lock.Lock()
		batch, ok := r.batches[item.ID]
		r.lock.Unlock()
		if !ok {
			item.Callback(nil)
			continue
		}

		err := r.client.LogBatch(ctx, r.runId, batch, nil, nil)
		if err != nil {
			log.Printf("failed to flush %d metrics for run %s: %s", len(batch), r.runId, err)
			item.Callback(err)
			continue
		}
		r.lock.Lock()
		delete(r.batches, item.ID)
		r.lock.Unlock()
		item.Callback(nil)
	}
}

// Close stops the async flusher and sends anything still buffered
// synchronously.
func (r *Recorder) Close(ctx context.Context) error {
	r.manager.Finish()

	r.lock.Lock()
	remaining := make([][]Metric, 0, len(r.batches)+1)
	for _, batch := range r.batches {
		remaining = append(remaining, batch)
	}
	for len(r.buffer) > 0 {
		size := len(r.buffer)
		if size > MaxMetricsPerBatch {
			size = MaxMetricsPerBatch
		}
		remaining = append(remaining, r.buffer[:size])
		r.buffer = r.buffer[size:]
	}
	r.batches = make(map[uint64][]Metric)
	r.lock.Unlock()

	for _, batch := range remaining {
		if err := r.client.LogBatch(ctx, r.runId, batch, nil, nil); err != nil {
			return err
		}
	}
	return nil
}
