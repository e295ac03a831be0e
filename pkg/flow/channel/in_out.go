package channel

import (
	"context"
	"errors"
	"io"
)

type FeedHandlers[T any] struct {
	OnStartFail func(ctx context.Context, input []T)
	OnSuccess   func(ctx context.Context, input T)
	OnBreak     func(ctx context.Context, rest []T)
}

// Feed writes values to w in order and terminates it exactly once: Complete on
// success, CompleteWithError with the context error when ctx fires first.
func Feed[T any](ctx context.Context, w Writer[T], handlers FeedHandlers[T], values ...T) error {
	if err := ctx.Err(); err != nil {
		if handlers.OnStartFail != nil {
			handlers.OnStartFail(ctx, values)
		}
		w.CompleteWithError(err)
		return err
	}

	for i, v := range values {
		if err := w.Write(ctx, v); err != nil {
			if handlers.OnBreak != nil {
				handlers.OnBreak(ctx, values[i:])
			}
			w.CompleteWithError(err)
			return err
		}
		if handlers.OnSuccess != nil {
			handlers.OnSuccess(ctx, v)
		}
	}

	w.Complete()
	return nil
}

// FromSlice returns a channel fed with values by a background producer.
func FromSlice[T any](ctx context.Context, capacity int, values ...T) (*Channel[T], error) {
	ch, err := New[T](capacity)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = Feed[T](ctx, ch, FeedHandlers[T]{}, values...)
	}()

	return ch, nil
}

// Drain reads r until end-of-stream. A terminal error is returned together
// with every item read before it.
func Drain[T any](ctx context.Context, r Reader[T]) ([]T, error) {
	res := make([]T, 0)
	for {
		v, err := r.Read(ctx)
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, err
		}
		res = append(res, v)
	}
}

// FirstOrDefault returns the first item of r, or defaultV if r ends or fails first.
func FirstOrDefault[T any](ctx context.Context, r Reader[T], defaultV T) T {
	v, err := r.Read(ctx)
	if err != nil {
		return defaultV
	}
	return v
}
