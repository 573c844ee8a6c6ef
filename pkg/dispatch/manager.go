package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	CollectFrequency time.Duration
	MaxWorkers       int
	BatchMaxItems    int
}

var ErrInvalidCollectFrequency = fmt.Errorf("invalid collect frequency")
var ErrInvalidMaxWorkers = fmt.Errorf("invalid max workers")
var ErrInvalidBatchMaxItems = fmt.Errorf("invalid batch max items")

func NewConfig(collectFrequency time.Duration, maxWorkers, batchMaxItems int) (*Config, error) {
	if collectFrequency < 1*time.Millisecond {
		return nil, ErrInvalidCollectFrequency
	}
	if maxWorkers < 1 {
		return nil, ErrInvalidMaxWorkers
	}
	if batchMaxItems < 1 {
		return nil, ErrInvalidBatchMaxItems
	}
	return &Config{
		CollectFrequency: collectFrequency,
		MaxWorkers:       maxWorkers,
		BatchMaxItems:    batchMaxItems,
	}, nil
}

// Manager drives a Dispatcher: a collect loop feeding the queue on a ticker
// and a pool of workers popping batches.
type Manager[T Key] struct {
	dispatcher Dispatcher[T]
	config     *Config
	context    context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	queue      *Queue[T]
	tracer     trace.Tracer
}

func NewManager[T Key](ctx context.Context, cfg *Config, dispatcher Dispatcher[T]) *Manager[T] {
	if dispatcher == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)

	tracer := otel.Tracer("dispatch_" + dispatcher.Name())

	func() {
		ctx, span := startSpan(ctx, tracer, dispatcher.Name()+".Reload")
		defer span.End()

		dispatcher.Reload(ctx)
	}()

	return &Manager[T]{
		dispatcher: dispatcher,
		config:     cfg,
		context:    ctx,
		cancel:     cancel,
		queue:      NewQueue[T](),
		tracer:     tracer,
	}
}

func startSpan(ctx context.Context, tracer trace.Tracer, spanName string) (context.Context, trace.Span) {
	return tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (m *Manager[T]) Queue() *Queue[T] {
	return m.queue
}

func (m *Manager[T]) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		collect := func() {
			ctx, span := startSpan(m.context, m.tracer, m.dispatcher.Name()+".Collect")
			defer span.End()

			m.dispatcher.Collect(ctx, m.queue)
		}
		collect()

		ticker := time.NewTicker(m.config.CollectFrequency)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				collect()
			case <-m.context.Done():
				log.Printf("dispatcher %s collect loop shutting down", m.dispatcher.Name())
				return
			}
		}
	}()

	m.wg.Add(m.config.MaxWorkers)
	for i := 0; i < m.config.MaxWorkers; i++ {
		go func() {
			defer m.wg.Done()

			for {
				select {
				case <-m.context.Done():
					log.Printf("dispatcher %s worker shutting down", m.dispatcher.Name())
					return
				default:
					items := m.queue.Pop(m.config.BatchMaxItems)
					func() {
						ctx, span := startSpan(m.context, m.tracer, m.dispatcher.Name()+".Process")
						defer span.End()

						m.dispatcher.Process(ctx, items)
					}()
				}
			}
		}()
	}
}

func (m *Manager[T]) Finish() {
	m.queue.shutdown <- true
	m.cancel()
	m.wg.Wait()
}
