package processor

import (
	"context"

	"github.com/ib-77/batchrail/pkg/flow/stage"
)

// Readiness is an availability signal a processor depends on, such as an
// embedded runtime backing a storage client.
type Readiness interface {
	EnsureReady(ctx context.Context) error
}

// RequireReady calls r.EnsureReady before every batch and fails the batch
// with its error instead of calling p.
func RequireReady[TIn, TOut any](r Readiness, p stage.Processor[TIn, TOut]) stage.Processor[TIn, TOut] {
	return stage.ProcessorFunc[TIn, TOut](func(ctx context.Context, batch []TIn) ([]TOut, error) {
		if err := r.EnsureReady(ctx); err != nil {
			return nil, err
		}
		return p.ProcessBatch(ctx, batch)
	})
}
