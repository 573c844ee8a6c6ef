package dispatch

import (
	"sync"
	"time"

	ltime "github.com/lgrosjean/baynext-ml/pkg/time"
)

type Key interface {
	int64 | uint64 | string
}

// Queue tracks item keys through pending -> running -> done|retry states.
// Keys are deduplicated: adding a key that is already tracked is a no-op.
type Queue[T Key] struct {
	Pending        map[T]struct{}
	running        map[T]struct{}
	toRetry        map[T]time.Time
	wakeup         chan bool
	shutdown       chan bool
	isShuttingDown bool
	lock           sync.Mutex
}

type ItemCallback func(error)

type Item[T Key] struct {
	ID       T
	Callback ItemCallback
}

func NewQueue[T Key]() *Queue[T] {
	q := &Queue[T]{
		Pending:  make(map[T]struct{}),
		running:  make(map[T]struct{}),
		toRetry:  make(map[T]time.Time),
		wakeup:   make(chan bool, 1),
		shutdown: make(chan bool, 1),
	}

	go q.runRetry()

	return q
}

func (q *Queue[T]) runRetry() {
	// Moves toRetry -> Pending
	for {
		select {
		case <-q.shutdown:
			q.isShuttingDown = true

			// Wake up the queue to see the shutdown
			q.wakeup <- true
			return
		default:
		}

		ltime.Sleep(1 * time.Second)

		q.lock.Lock()
		for id, retryTime := range q.toRetry {
			if time.Now().After(retryTime) {
				q.Pending[id] = struct{}{}
				delete(q.toRetry, id)

				select {
				case q.wakeup <- true:
				default:
				}
			}
		}
		q.lock.Unlock()
	}
}

func (q *Queue[T]) Add(id T) {
	// Moves nil -> Pending
	q.lock.Lock()
	defer q.lock.Unlock()
	if _, ok := q.Pending[id]; ok {
		return
	}
	if _, ok := q.running[id]; ok {
		return
	}
	if _, ok := q.toRetry[id]; ok {
		return
	}
	q.Pending[id] = struct{}{}

	select {
	case q.wakeup <- true:
	default:
	}
}

// Pop blocks until at least one item is pending, then returns up to max
// items moved into the running state. Returns an empty slice on shutdown.
func (q *Queue[T]) Pop(max int) []Item[T] {
	// Moves Pending -> running
	ret := make([]Item[T], 0)

	q.lock.Lock()

	for id := range q.Pending {
		ret = append(ret, Item[T]{
			ID:       id,
			Callback: q.getCallback(id),
		})

		if len(ret) == max {
			break
		}
	}

	// If we got no elements, park and try again later
	if len(ret) == 0 {
		q.lock.Unlock()
		<-q.wakeup
		if q.isShuttingDown {
			// Cascade the signal so every parked worker wakes up
			select {
			case q.wakeup <- true:
			default:
			}
			return ret
		}
		return q.Pop(max)
	}

	defer q.lock.Unlock()
	for _, item := range ret {
		delete(q.Pending, item.ID)
		q.running[item.ID] = struct{}{}
	}

	return ret
}

func (q *Queue[T]) getCallback(id T) ItemCallback {
	// Moves running -> nil|toRetry
	callback := func(err error) {
		q.lock.Lock()
		defer q.lock.Unlock()
		delete(q.running, id)
		if err != nil {
			q.toRetry[id] = time.Now().Add(ltime.JitteredDuration(5000 * time.Millisecond))
		}
	}

	return callback
}
