package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testDispatcher struct {
	lock               sync.Mutex
	reloads            int
	collects           int
	processed          []Item[int64]
	collectSignalAfter int
	collectSignal      chan bool
	enqueue            []int64
}

func (t *testDispatcher) Name() string {
	return "test"
}

func (t *testDispatcher) Reload(_ context.Context) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.reloads++
}

func (t *testDispatcher) Collect(_ context.Context, queue *Queue[int64]) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.collects++
	for _, id := range t.enqueue {
		queue.Add(id)
	}
	if t.collectSignalAfter == t.collects {
		t.collectSignal <- true
	}
}

func (t *testDispatcher) Process(_ context.Context, items []Item[int64]) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.processed = append(t.processed, items...)
	for _, item := range items {
		item.Callback(nil)
	}
}

var _ Dispatcher[int64] = &testDispatcher{}

func TestManagerStartFinish(t *testing.T) {
	config, err := NewConfig(10*time.Millisecond, 1, 1)
	if err != nil {
		t.Fatalf("failed to create config: %v", err)
	}

	d := &testDispatcher{
		collectSignal:      make(chan bool),
		collectSignalAfter: 10,
	}
	manager := NewManager(context.Background(), config, d)
	manager.Start()
	<-d.collectSignal
	manager.Finish()

	assert.Equal(t, 1, d.reloads)
	assert.GreaterOrEqual(t, d.collects, 10)
}

func TestManagerProcessesQueuedItems(t *testing.T) {
	config, err := NewConfig(10*time.Millisecond, 2, 10)
	if err != nil {
		t.Fatalf("failed to create config: %v", err)
	}

	d := &testDispatcher{
		collectSignal:      make(chan bool),
		collectSignalAfter: 5,
		enqueue:            []int64{1, 2, 3},
	}
	manager := NewManager(context.Background(), config, d)
	manager.Start()
	<-d.collectSignal
	manager.Finish()

	seen := make(map[int64]bool)
	d.lock.Lock()
	defer d.lock.Unlock()
	for _, item := range d.processed {
		seen[item.ID] = true
	}
	assert.Equal(t, map[int64]bool{1: true, 2: true, 3: true}, seen)
}

func TestQueueDeduplicates(t *testing.T) {
	q := NewQueue[int64]()
	defer func() { q.shutdown <- true }()

	q.Add(7)
	q.Add(7)
	assert.Equal(t, 1, len(q.Pending))

	items := q.Pop(10)
	assert.Equal(t, 1, len(items))

	// Still running: re-adding is a no-op until the callback fires.
	q.Add(7)
	assert.Equal(t, 0, len(q.Pending))

	items[0].Callback(nil)
	q.Add(7)
	assert.Equal(t, 1, len(q.Pending))
}
