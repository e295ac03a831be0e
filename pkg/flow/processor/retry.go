package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/ib-77/batchrail/pkg/flow"
	"github.com/ib-77/batchrail/pkg/flow/stage"
)

// Policy configures Retry. Attempts counts the first call. The delay before
// attempt n+1 is Backoff doubled n-1 times, capped by MaxBackoff when set.
type Policy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

func (p Policy) validate() error {
	if p.Attempts < 1 {
		return flow.Invalid("retry attempts", "must be >= 1, got %d", p.Attempts)
	}
	if p.Backoff < 0 || p.MaxBackoff < 0 {
		return flow.Invalid("retry backoff", "must not be negative")
	}
	return nil
}

func (p Policy) delay(attempt int) time.Duration {
	d := p.Backoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Retry calls p again on failure. Cancellation is returned at once and never
// retried, and the wait between attempts ends early when ctx fires.
func Retry[TIn, TOut any](p stage.Processor[TIn, TOut], policy Policy) (stage.Processor[TIn, TOut], error) {
	if flow.IsNil(p) {
		return nil, flow.Invalid("processor", "must not be nil")
	}
	if err := policy.validate(); err != nil {
		return nil, err
	}

	return stage.ProcessorFunc[TIn, TOut](func(ctx context.Context, batch []TIn) ([]TOut, error) {
		for attempt := 1; ; attempt++ {
			res, err := p.ProcessBatch(ctx, batch)
			if err == nil {
				return res, nil
			}
			if ctx.Err() != nil || flow.IsCancellation(err) {
				return nil, err
			}
			if attempt >= policy.Attempts {
				if attempt == 1 {
					return nil, err
				}
				return nil, fmt.Errorf("after %d attempts: %w", attempt, err)
			}

			if err := sleep(ctx, policy.delay(attempt)); err != nil {
				return nil, err
			}
		}
	}), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
