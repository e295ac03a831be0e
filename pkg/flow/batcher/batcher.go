package batcher

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/ib-77/batchrail/pkg/flow"
	"github.com/ib-77/batchrail/pkg/flow/channel"
)

// Batcher groups a stream into batches of at most Size items.
type Batcher[T any] struct {
	size int
}

func New[T any](size int) (*Batcher[T], error) {
	if size < 1 {
		return nil, flow.Invalid("batch size", "must be >= 1, got %d", size)
	}
	return &Batcher[T]{size: size}, nil
}

func (b *Batcher[T]) Size() int {
	return b.size
}

// Batches starts a new batching pass over src. Nothing is read until Next is called.
func (b *Batcher[T]) Batches(src channel.Reader[T]) *Sequence[T] {
	return &Sequence[T]{src: src, size: b.size}
}

// Sequence is one lazy batching pass. It is not safe for concurrent use.
type Sequence[T any] struct {
	src  channel.Reader[T]
	size int
	err  error
}

// Next returns the next batch, io.EOF once the source ended, or the error that
// interrupted the pass. An interrupted pass discards its in-progress group and
// keeps returning the same error.
func (s *Sequence[T]) Next(ctx context.Context) ([]T, error) {
	if s.err != nil {
		return nil, s.err
	}

	group := make([]T, 0, s.size)
	for len(group) < s.size {
		v, err := s.src.Read(ctx)
		if errors.Is(err, io.EOF) {
			s.err = io.EOF
			if len(group) > 0 {
				return group, nil
			}
			return nil, io.EOF
		}
		if err != nil {
			s.err = err
			return nil, err
		}
		group = append(group, v)
	}

	return group, nil
}

// All ranges over the remaining batches. A terminal error other than io.EOF is
// yielded once with a nil batch.
func (s *Sequence[T]) All(ctx context.Context) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		for {
			batch, err := s.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(batch, nil) {
				return
			}
		}
	}
}
