package flow

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the terminal state carried by an Outcome.
type Status int

const (
	StatusCompleted Status = iota + 1
	StatusCancelled
	StatusFaulted
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

type Outcome[T any] struct {
	id        uuid.UUID
	createdAt time.Time
	value     T
	err       error
	status    Status
	hasValue  bool
}

func Completed[T any](v T) Outcome[T] {
	return Outcome[T]{
		id:        uuid.New(),
		createdAt: time.Now().UTC(),
		value:     v,
		status:    StatusCompleted,
		hasValue:  true,
	}
}

// Cancelled builds a cancellation outcome. A nil reason becomes context.Canceled.
func Cancelled[T any](reason error) Outcome[T] {
	if reason == nil {
		reason = context.Canceled
	}
	return Outcome[T]{
		id:        uuid.New(),
		createdAt: time.Now().UTC(),
		err:       reason,
		status:    StatusCancelled,
	}
}

// Faulted builds a failure outcome. A nil err becomes ErrUnknownFault.
func Faulted[T any](err error) Outcome[T] {
	if err == nil {
		err = ErrUnknownFault
	}
	return Outcome[T]{
		id:        uuid.New(),
		createdAt: time.Now().UTC(),
		err:       err,
		status:    StatusFaulted,
	}
}

// FromError classifies err: nil is Completed(v), a cancellation error is Cancelled,
// anything else is Faulted. The value is kept in every case.
func FromError[T any](v T, err error) Outcome[T] {
	switch {
	case err == nil:
		return Completed(v)
	case IsCancellation(err):
		return Cancelled[T](err).WithValue(v)
	default:
		return Faulted[T](err).WithValue(v)
	}
}

// Convert carries status, error and identity over to another value type.
func Convert[In, Out any](from Outcome[In]) Outcome[Out] {
	return Outcome[Out]{
		id:        from.id,
		createdAt: from.createdAt,
		err:       from.err,
		status:    from.status,
	}
}

// WithValue attaches a value to the outcome without changing its status.
func (o Outcome[T]) WithValue(v T) Outcome[T] {
	o.value = v
	o.hasValue = true
	return o
}

func (o Outcome[T]) Value() T {
	return o.value
}

func (o Outcome[T]) HasValue() bool {
	return o.hasValue
}

func (o Outcome[T]) Err() error {
	return o.err
}

func (o Outcome[T]) Status() Status {
	return o.status
}

func (o Outcome[T]) IsCompleted() bool {
	return o.status == StatusCompleted
}

func (o Outcome[T]) IsCancelled() bool {
	return o.status == StatusCancelled
}

func (o Outcome[T]) IsFaulted() bool {
	return o.status == StatusFaulted
}

// IsEmpty reports a zero Outcome that was never produced by a constructor.
func (o Outcome[T]) IsEmpty() bool {
	return o.status == 0
}

func (o Outcome[T]) CreatedAt() time.Time {
	return o.createdAt
}

func (o Outcome[T]) ID() uuid.UUID {
	return o.id
}

// Match reduces an outcome to R. Every variant needs a handler.
func Match[T, R any](o Outcome[T],
	onCompleted func(v T) R,
	onCancelled func(reason error) R,
	onFaulted func(err error) R) R {

	switch o.status {
	case StatusCompleted:
		return onCompleted(o.value)
	case StatusCancelled:
		return onCancelled(o.err)
	default:
		if o.err == nil {
			return onFaulted(ErrUnknownFault)
		}
		return onFaulted(o.err)
	}
}
