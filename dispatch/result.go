package dispatch

import (
	"context"

	It "github.com/maroda/ictus/types"
)

// Result is the tagged outcome of one dispatched computation.
// Status is StatusOK with Payload set, or StatusError with Message
// holding err.Error() verbatim. Partial payloads never escape.
type Result[T any] struct {
	Status  string
	Payload T
	Message string
	Err     error
}

func (r Result[T]) OK() bool { return r.Status == It.StatusOK }

func okResult[T any](payload T) Result[T] {
	return Result[T]{Status: It.StatusOK, Payload: payload}
}

func errResult[T any](err error) Result[T] {
	return Result[T]{Status: It.StatusError, Message: err.Error(), Err: err}
}

// Future is the caller's side of a dispatched computation.
type Future[T any] struct {
	ID   string
	Kind It.AnalysisKind

	ch   chan Result[T] // single slot, written exactly once
	done chan struct{}
	res  Result[T]
}

func newFuture[T any](id string, kind It.AnalysisKind) *Future[T] {
	return &Future[T]{
		ID:   id,
		Kind: kind,
		ch:   make(chan Result[T], 1),
		done: make(chan struct{}),
	}
}

// resolve must be called once.
func (f *Future[T]) resolve(r Result[T]) {
	f.res = r
	f.ch <- r
	close(f.done)
}

// C delivers the result once, for callers who select over several futures.
func (f *Future[T]) C() <-chan Result[T] { return f.ch }

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the result arrives or ctx ends. Giving up on ctx does
// not stop the computation.
func (f *Future[T]) Wait(ctx context.Context) (Result[T], error) {
	select {
	case <-f.done:
		return f.res, nil
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	}
}

// Poll reports the result without blocking.
func (f *Future[T]) Poll() (Result[T], bool) {
	select {
	case <-f.done:
		return f.res, true
	default:
		return Result[T]{}, false
	}
}
