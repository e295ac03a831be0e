package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/ib-77/batchrail/pkg/flow/stage"
)

// ItemError reports the item that failed a batch. Index is its position in the batch.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Map applies fn to every item.
func Map[TIn, TOut any](fn func(in TIn) TOut) stage.ProcessorFunc[TIn, TOut] {
	return func(_ context.Context, batch []TIn) ([]TOut, error) {
		res := make([]TOut, len(batch))
		for i, v := range batch {
			res[i] = fn(v)
		}
		return res, nil
	}
}

// Try applies fn to every item; the first error fails the whole batch.
func Try[TIn, TOut any](fn func(ctx context.Context, in TIn) (TOut, error)) stage.ProcessorFunc[TIn, TOut] {
	return func(ctx context.Context, batch []TIn) ([]TOut, error) {
		res := make([]TOut, 0, len(batch))
		for i, v := range batch {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out, err := fn(ctx, v)
			if err != nil {
				return nil, &ItemError{Index: i, Err: err}
			}
			res = append(res, out)
		}
		return res, nil
	}
}

// FlatMap expands every item into zero or more results, keeping batch order.
func FlatMap[TIn, TOut any](fn func(ctx context.Context, in TIn) ([]TOut, error)) stage.ProcessorFunc[TIn, TOut] {
	return func(ctx context.Context, batch []TIn) ([]TOut, error) {
		var res []TOut
		for i, v := range batch {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out, err := fn(ctx, v)
			if err != nil {
				return nil, &ItemError{Index: i, Err: err}
			}
			res = append(res, out...)
		}
		return res, nil
	}
}

func Filter[T any](keep func(in T) bool) stage.ProcessorFunc[T, T] {
	return func(_ context.Context, batch []T) ([]T, error) {
		res := make([]T, 0, len(batch))
		for _, v := range batch {
			if keep(v) {
				res = append(res, v)
			}
		}
		return res, nil
	}
}

// Validate passes the batch through unchanged when every item is valid.
func Validate[T any](validate func(ctx context.Context, in T) (valid bool, errMsg string)) stage.ProcessorFunc[T, T] {
	return func(ctx context.Context, batch []T) ([]T, error) {
		for i, v := range batch {
			if valid, msg := validate(ctx, v); !valid {
				return nil, &ItemError{Index: i, Err: errors.New(msg)}
			}
		}
		return batch, nil
	}
}

// Tee runs a side effect on the batch and forwards it unchanged unless it fails.
func Tee[T any](fn func(ctx context.Context, batch []T) error) stage.ProcessorFunc[T, T] {
	return func(ctx context.Context, batch []T) ([]T, error) {
		if err := fn(ctx, batch); err != nil {
			return nil, err
		}
		return batch, nil
	}
}
