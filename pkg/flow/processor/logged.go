package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/ib-77/batchrail/pkg/flow/stage"
	"go.uber.org/zap"
)

// Logged wraps p with debug logging of every batch. An empty name falls back to
// the type of p. Failures are logged at debug only: the stage reports them.
func Logged[TIn, TOut any](p stage.Processor[TIn, TOut], logger *zap.Logger, name string) stage.Processor[TIn, TOut] {
	if logger == nil {
		return p
	}
	if name == "" {
		name = fmt.Sprintf("%T", p)
	}
	log := logger.With(zap.String("processor", name))

	return stage.ProcessorFunc[TIn, TOut](func(ctx context.Context, batch []TIn) ([]TOut, error) {
		started := time.Now()
		log.Debug("batch started", zap.Int("items", len(batch)))

		res, err := p.ProcessBatch(ctx, batch)
		if err != nil {
			log.Debug("batch failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
			return res, err
		}

		log.Debug("batch completed",
			zap.Int("items", len(batch)),
			zap.Int("results", len(res)),
			zap.Duration("elapsed", time.Since(started)),
		)
		return res, nil
	})
}
