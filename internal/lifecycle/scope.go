// Package lifecycle ties asynchronous work to the lifetime of a view so that
// results arriving after the view is torn down are dropped instead of applied.
package lifecycle

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Run when the scope closed before the work finished
var ErrClosed = errors.New("scope closed")

// Scope is a cancellation-aware handle for one view lifetime
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

func (s *Scope) Context() context.Context {
	return s.ctx
}

func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close cancels in-flight work. Safe to call more than once.
func (s *Scope) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

// Wait blocks until every goroutine started with Go has returned
func (s *Scope) Wait() {
	s.wg.Wait()
}

// Go runs fn in a goroutine with the scope context. apply is called with the
// result only if the scope is still open when fn returns.
func (s *Scope) Go(fn func(ctx context.Context) error, apply func(err error)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := fn(s.ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || apply == nil {
			return
		}
		apply(err)
	}()
}

// Run calls fn with the scope context and discards its result if the scope
// was closed in the meantime.
func Run[T any](s *Scope, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := fn(s.ctx)
	if s.Closed() {
		var zero T
		return zero, ErrClosed
	}
	return v, err
}
