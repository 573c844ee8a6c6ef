package dispatch

import "context"

// Dispatcher produces work item keys (Collect) and consumes them (Process).
// Process failures are reported through the item callback and requeued with
// backoff by the queue.
type Dispatcher[T Key] interface {
	Name() string
	// Reload runs once before the manager starts, to recover state left over
	// from a previous process.
	Reload(ctx context.Context)
	// Collect pushes pending item keys onto the queue. Called periodically.
	Collect(ctx context.Context, queue *Queue[T])
	// Process handles a batch of popped items, invoking each callback with
	// the outcome.
	Process(ctx context.Context, items []Item[T])
}
