package channel

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/ib-77/batchrail/pkg/flow"
)

// ErrTerminated is returned by Write once the channel was completed or faulted.
var ErrTerminated = errors.New("channel: write after termination")

// State of a channel. Everything except Open is terminal.
type State int

const (
	Open State = iota
	Completed
	Faulted
	Cancelled
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Completed:
		return "completed"
	case Faulted:
		return "faulted"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type Reader[T any] interface {
	// Read blocks until an item is available. It returns io.EOF after a normal
	// completion once the buffer is drained, or the terminal error after a fault.
	Read(ctx context.Context) (T, error)
}

type Writer[T any] interface {
	Write(ctx context.Context, item T) error
	Complete()
	CompleteWithError(err error)
}

// Channel is a bounded FIFO queue for one producer and one consumer.
// Terminal errors surface to the reader only after buffered items are drained.
type Channel[T any] struct {
	items   chan T
	closing chan struct{}
	done    chan struct{}
	once    sync.Once

	// writes holds termination back until in-flight writes have returned.
	writes sync.RWMutex

	mu    sync.RWMutex
	state State
	err   error
}

func New[T any](capacity int) (*Channel[T], error) {
	if capacity < 1 {
		return nil, flow.Invalid("channel capacity", "must be >= 1, got %d", capacity)
	}
	return &Channel[T]{
		items:   make(chan T, capacity),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Write blocks while the channel is full. A write that returns nil is visible
// to the reader even when it races a termination: the channel reports the end
// of the stream only after every in-flight write has returned.
func (c *Channel[T]) Write(ctx context.Context, item T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writes.RLock()
	defer c.writes.RUnlock()

	select {
	case <-c.closing:
		return ErrTerminated
	default:
	}

	select {
	case <-c.closing:
		return ErrTerminated
	case <-ctx.Done():
		return ctx.Err()
	case c.items <- item:
		return nil
	}
}

func (c *Channel[T]) Read(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	select {
	case v := <-c.items:
		return v, nil
	default:
	}

	select {
	case v := <-c.items:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-c.done:
		select {
		case v := <-c.items:
			return v, nil
		default:
		}
		return zero, c.terminalErr()
	}
}

// Complete marks the end of writes. Calls after the first termination are no-ops.
func (c *Channel[T]) Complete() {
	c.terminate(Completed, nil)
}

// CompleteWithError marks the channel faulted, or cancelled when err is a
// cancellation. A nil err behaves like Complete.
func (c *Channel[T]) CompleteWithError(err error) {
	switch {
	case err == nil:
		c.terminate(Completed, nil)
	case flow.IsCancellation(err):
		c.terminate(Cancelled, err)
	default:
		c.terminate(Faulted, err)
	}
}

func (c *Channel[T]) terminate(state State, err error) {
	c.once.Do(func() {
		close(c.closing)
		c.writes.Lock()
		defer c.writes.Unlock()

		c.mu.Lock()
		c.state = state
		c.err = err
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *Channel[T]) terminalErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return c.err
	}
	return io.EOF
}

func (c *Channel[T]) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Err returns the terminal error, nil while open or after a normal completion.
func (c *Channel[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Done is closed on termination, before the buffer is necessarily drained.
func (c *Channel[T]) Done() <-chan struct{} {
	return c.done
}

func (c *Channel[T]) Len() int {
	return len(c.items)
}

func (c *Channel[T]) Cap() int {
	return cap(c.items)
}

var (
	_ Reader[int] = (*Channel[int])(nil)
	_ Writer[int] = (*Channel[int])(nil)
)
