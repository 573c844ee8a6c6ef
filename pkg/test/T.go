package ltest

import (
	"fmt"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// T is the subset of testing.T that package helpers rely on, implementable
// by rapid property runs as well.
type T interface {
	Helper()
	Fatalf(format string, args ...interface{})
	Cleanup(func())
	assert.TestingT
}

func NewRapidT(t *rapid.T) *RapidT {
	return &RapidT{
		T: t,
	}
}

type RapidT struct {
	*rapid.T
	cleanups []func()
}

func (r *RapidT) Helper() {
}

func (r *RapidT) Fatalf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func (r *RapidT) Errorf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

func (r *RapidT) Cleanup(f func()) {
	r.cleanups = append(r.cleanups, f)
}

func (r *RapidT) RunCleanup() {
	for _, f := range r.cleanups {
		f()
	}
}

var _ T = &RapidT{}
