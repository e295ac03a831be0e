package stage

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/ib-77/batchrail/pkg/flow"
	"github.com/ib-77/batchrail/pkg/flow/batcher"
	"github.com/ib-77/batchrail/pkg/flow/channel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrBusy is the failure of a Run started while the same stage is already running.
var ErrBusy = errors.New("stage: already running")

// Processor is the extension point of a stage. ProcessBatch is never called
// concurrently on the same stage and should return promptly once ctx is done.
type Processor[TIn, TOut any] interface {
	ProcessBatch(ctx context.Context, batch []TIn) ([]TOut, error)
}

type ProcessorFunc[TIn, TOut any] func(ctx context.Context, batch []TIn) ([]TOut, error)

func (f ProcessorFunc[TIn, TOut]) ProcessBatch(ctx context.Context, batch []TIn) ([]TOut, error) {
	return f(ctx, batch)
}

// Summary counts what one Run moved through the stage.
type Summary struct {
	Batches  int64
	ItemsIn  int64
	ItemsOut int64
	Elapsed  time.Duration
}

type Stage[TIn, TOut any] struct {
	name    string
	batcher *batcher.Batcher[TIn]
	proc    Processor[TIn, TOut]
	settings

	running atomic.Bool
}

func New[TIn, TOut any](name string, batchSize int, proc Processor[TIn, TOut], opts ...Option) (*Stage[TIn, TOut], error) {
	if name == "" {
		return nil, flow.Invalid("stage name", "must not be empty")
	}
	if flow.IsNil(proc) {
		return nil, flow.Invalid("processor", "must not be nil")
	}
	b, err := batcher.New[TIn](batchSize)
	if err != nil {
		return nil, err
	}

	return &Stage[TIn, TOut]{
		name:     name,
		batcher:  b,
		proc:     proc,
		settings: newSettings(opts),
	}, nil
}

func (s *Stage[TIn, TOut]) Name() string {
	return s.name
}

func (s *Stage[TIn, TOut]) BatchSize() int {
	return s.batcher.Size()
}

// Run consumes in until end-of-stream, cancellation or failure. out is
// terminated exactly once before Run returns: completed on end-of-stream,
// cancelled with the cancellation reason, or faulted with the failure.
// A stage runs once at a time; a Run that overlaps another faults with ErrBusy.
func (s *Stage[TIn, TOut]) Run(ctx context.Context, in channel.Reader[TIn], out channel.Writer[TOut]) flow.Outcome[Summary] {
	return s.run(ctx, in, out, s.progress)
}

// Operation adapts the stage to a worker operation over a fixed channel pair.
// Items are reported to the worker's progress as well as to the stage's own.
func (s *Stage[TIn, TOut]) Operation(in channel.Reader[TIn], out channel.Writer[TOut]) func(ctx context.Context, progress flow.Progress) error {
	return func(ctx context.Context, progress flow.Progress) error {
		return s.run(ctx, in, out, both{s.progress, progress}).Err()
	}
}

func (s *Stage[TIn, TOut]) run(ctx context.Context, in channel.Reader[TIn], out channel.Writer[TOut], progress flow.Progress) flow.Outcome[Summary] {
	if !s.running.CompareAndSwap(false, true) {
		err := &flow.StageError{Stage: s.name, Op: flow.OpRun, Err: ErrBusy}
		out.CompleteWithError(err)
		s.logger.Error("stage run rejected", zap.String("stage", s.name), zap.Error(err))
		return flow.Faulted[Summary](err)
	}
	defer s.running.Store(false)

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out.CompleteWithError(&flow.PanicError{Value: r})
			panic(r)
		}
	}()

	var sum Summary
	err := s.pump(ctx, in, out, progress, &sum)
	sum.Elapsed = time.Since(started)

	return s.finish(ctx, out, sum, err)
}

func (s *Stage[TIn, TOut]) pump(ctx context.Context, in channel.Reader[TIn], out channel.Writer[TOut], progress flow.Progress, sum *Summary) error {
	batches := s.batcher.Batches(in)
	for {
		batch, err := batches.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &flow.StageError{Stage: s.name, Op: flow.OpRead, Err: err}
		}

		n := sum.Batches + 1
		results, err := s.process(ctx, n, batch)
		if err != nil {
			return &flow.StageError{Stage: s.name, Op: flow.OpProcess, Batch: n, Err: err}
		}

		for _, r := range results {
			if err := out.Write(ctx, r); err != nil {
				return &flow.StageError{Stage: s.name, Op: flow.OpWrite, Batch: n, Err: err}
			}
			sum.ItemsOut++
		}

		sum.Batches = n
		sum.ItemsIn += int64(len(batch))
		s.recorder.ItemsForwarded(s.name, len(results))
		progress.Add(int64(len(batch)))
	}
}

func (s *Stage[TIn, TOut]) process(ctx context.Context, n int64, batch []TIn) (results []TOut, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "stage."+s.name+".batch", trace.WithAttributes(
		attribute.String("stage", s.name),
		attribute.Int64("batch", n),
		attribute.Int("size", len(batch)),
	))
	defer span.End()

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &flow.PanicError{Value: r}
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if ctx.Err() == nil && !flow.IsCancellation(err) {
				s.recorder.BatchFailed(s.name)
			}
			return
		}
		span.SetAttributes(attribute.Int("results", len(results)))
		s.recorder.BatchProcessed(s.name, len(batch), time.Since(started))
	}()

	return s.proc.ProcessBatch(ctx, batch)
}

func (s *Stage[TIn, TOut]) finish(ctx context.Context, out channel.Writer[TOut], sum Summary, err error) flow.Outcome[Summary] {
	fields := s.fields(ctx, sum)

	switch {
	case err == nil:
		out.Complete()
		s.logger.Debug("stage completed", fields...)
		return flow.Completed(sum)

	case ctx.Err() != nil || flow.IsCancellation(err):
		reason := flow.Reason(ctx, err)
		out.CompleteWithError(reason)
		s.logger.Info("stage cancelled", append(fields, zap.NamedError("reason", reason))...)
		return flow.Cancelled[Summary](reason).WithValue(sum)

	case flow.IsUpstreamFault(err):
		out.CompleteWithError(err)
		s.logger.Info("upstream faulted", append(fields, zap.Error(err))...)
		return flow.Faulted[Summary](err).WithValue(sum)

	default:
		out.CompleteWithError(err)
		s.logger.Error("stage failed", append(fields, zap.Error(err))...)
		return flow.Faulted[Summary](err).WithValue(sum)
	}
}

func (s *Stage[TIn, TOut]) fields(ctx context.Context, sum Summary) []zap.Field {
	fields := []zap.Field{
		zap.String("stage", s.name),
		zap.Int64("batches", sum.Batches),
		zap.Int64("processed", sum.ItemsIn),
		zap.Int64("forwarded", sum.ItemsOut),
		zap.Duration("elapsed", sum.Elapsed),
	}
	if info, ok := flow.RunInfoFrom(ctx); ok {
		fields = append(fields, zap.String("worker", info.Worker), zap.Stringer("run_id", info.RunID))
	}
	return fields
}

type both [2]flow.Progress

func (b both) Add(n int64) {
	b[0].Add(n)
	if b[1] != nil {
		b[1].Add(n)
	}
}
