package app

import (
	"context"
	"io"
	"sync"
)

// Instance owns the process lifecycle: a root context cancelled on shutdown
// and a set of closers drained before exit.
type Instance struct {
	closers  []io.Closer
	failed   bool
	stop     chan bool
	finished chan bool
	stopOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewInstance() *Instance {
	ctx, cancel := context.WithCancel(context.Background())
	return &Instance{
		stop:     make(chan bool),
		finished: make(chan bool),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (instance *Instance) Context() context.Context {
	return instance.ctx
}

func ContextFromInstance(instance *Instance) context.Context {
	return instance.ctx
}
