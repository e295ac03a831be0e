package flow

import (
	"context"
	"errors"
	"reflect"
)

func IsNil(i interface{}) bool {
	if i == nil || (reflect.ValueOf(i).Kind() == reflect.Ptr && reflect.ValueOf(i).IsNil()) {
		return true
	}
	return false
}

// GetErrors splits an errors.Join result back into its parts.
func GetErrors(err error) []error {
	if IsNil(err) {
		return []error{}
	}

	e, ok := err.(interface{ Unwrap() []error })
	if ok {
		return e.Unwrap()
	}

	return []error{err}
}

// IsCancellation reports whether err is a cooperative stop rather than a failure.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Reason returns why ctx ended: its cause when one was recorded, otherwise fallback.
// The result always satisfies IsCancellation.
func Reason(ctx context.Context, fallback error) error {
	if ctx.Err() != nil {
		cause := context.Cause(ctx)
		if IsCancellation(cause) {
			return cause
		}
		return ctx.Err()
	}
	if IsCancellation(fallback) {
		return fallback
	}
	return context.Canceled
}
