package chain

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/ib-77/batchrail/pkg/flow"
	"github.com/ib-77/batchrail/pkg/flow/channel"
	"github.com/ib-77/batchrail/pkg/flow/stage"
	"github.com/ib-77/batchrail/pkg/flow/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrStarted is returned when an assembly is extended or run after Run.
	ErrStarted = errors.New("chain: already started")

	// ErrAborted is the cancellation cause of the workers upstream of a failed stage.
	ErrAborted = fmt.Errorf("chain aborted: %w", context.Canceled)
)

// Assembly owns the channels and workers of one linear chain of stages.
type Assembly struct {
	logger *zap.Logger
	settings

	mu      sync.Mutex
	started bool
	names   map[string]struct{}
	workers []*worker.Worker
}

func New(logger *zap.Logger, opts ...Option) (*Assembly, error) {
	if logger == nil {
		return nil, flow.Invalid("logger", "is required")
	}
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}

	return &Assembly{
		logger:   logger,
		settings: s,
		names:    make(map[string]struct{}),
	}, nil
}

// Link is the typed tail of a chain under construction.
type Link[T any] struct {
	a    *Assembly
	out  channel.Reader[T]
	used bool
}

// Start begins a chain at src. The caller feeds src and terminates it.
func Start[T any](a *Assembly, src channel.Reader[T]) *Link[T] {
	return &Link[T]{a: a, out: src}
}

// Output is what the tail of the chain produces. The caller must drain the
// output of the last link, otherwise the last stage blocks once it is full.
func (l *Link[T]) Output() channel.Reader[T] {
	return l.out
}

// Then hosts st in a new worker reading from l and returns the link to its
// output channel. Each link accepts exactly one downstream stage.
func Then[TIn, TOut any](l *Link[TIn], st *stage.Stage[TIn, TOut]) (*Link[TOut], error) {
	if l == nil || l.a == nil {
		return nil, flow.Invalid("link", "must come from Start or Then")
	}
	if st == nil {
		return nil, flow.Invalid("stage", "must not be nil")
	}
	if flow.IsNil(l.out) {
		return nil, flow.Invalid("source", "must not be nil")
	}

	a := l.a
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return nil, ErrStarted
	}
	if l.used {
		return nil, flow.Invalid("link", "already has a downstream stage")
	}
	if _, dup := a.names[st.Name()]; dup {
		return nil, flow.Invalid("stage name", "%q is used twice", st.Name())
	}

	out, err := channel.New[TOut](a.capacity)
	if err != nil {
		return nil, err
	}
	w, err := worker.New(st.Name(), st.Operation(l.out, out), a.logger,
		worker.WithStopGrace(a.stopGrace),
		worker.WithMetrics(a.recorder),
	)
	if err != nil {
		return nil, err
	}

	l.used = true
	a.names[st.Name()] = struct{}{}
	a.workers = append(a.workers, w)

	return &Link[TOut]{a: a, out: out}, nil
}

// Workers returns the workers in chain order.
func (a *Assembly) Workers() []*worker.Worker {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*worker.Worker(nil), a.workers...)
}

// Run starts every worker on its own goroutine. When a stage faults, the
// workers upstream of it are cancelled with ErrAborted; the ones downstream
// observe the fault through their input and fault their outputs in turn.
func (a *Assembly) Run(ctx context.Context) (*Run, error) {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return nil, ErrStarted
	}
	if len(a.workers) == 0 {
		a.mu.Unlock()
		return nil, flow.Invalid("chain", "has no stages")
	}
	a.started = true
	workers := append([]*worker.Worker(nil), a.workers...)
	a.mu.Unlock()

	ctx, span := a.tracer.Start(ctx, "chain.run", trace.WithAttributes(
		attribute.Int("stages", len(workers)),
	))

	run := &Run{
		logger:   a.logger,
		span:     span,
		started:  time.Now(),
		outcomes: make(map[string]flow.Outcome[worker.Report], len(workers)),
	}

	scopes := make([]context.Context, len(workers))
	aborts := make([]context.CancelCauseFunc, len(workers))
	for i := range workers {
		scopes[i], aborts[i] = context.WithCancelCause(ctx)
	}

	a.logger.Info("chain started", zap.Int("stages", len(workers)))
	for i, w := range workers {
		run.group.Go(func() error {
			defer aborts[i](nil)

			res := w.Start(scopes[i])
			run.record(w.Name(), res)
			if !res.IsFaulted() {
				return nil
			}

			cause := fmt.Errorf("%w: stage %s failed", ErrAborted, w.Name())
			for j := 0; j < i; j++ {
				aborts[j](cause)
			}
			return res.Err()
		})
	}

	return run, nil
}

// Stop stops every worker concurrently and returns once all of them ended or
// their grace periods elapsed.
func (a *Assembly) Stop() {
	var g errgroup.Group
	for _, w := range a.Workers() {
		g.Go(func() error {
			w.Stop()
			return nil
		})
	}
	_ = g.Wait()
}

func (a *Assembly) Dispose() {
	for _, w := range a.Workers() {
		w.Dispose()
	}
}

// Run is a started chain.
type Run struct {
	group   errgroup.Group
	logger  *zap.Logger
	span    trace.Span
	started time.Time

	mu       sync.Mutex
	outcomes map[string]flow.Outcome[worker.Report]

	once   sync.Once
	result Result
}

func (r *Run) record(name string, res flow.Outcome[worker.Report]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[name] = res
}

// Wait blocks until every worker returned. It is safe to call more than once.
func (r *Run) Wait() Result {
	r.once.Do(func() {
		err := r.group.Wait()

		r.mu.Lock()
		r.result = Result{Outcomes: maps.Clone(r.outcomes), Err: err}
		r.mu.Unlock()

		status := r.result.Status()
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, err.Error())
		}
		r.span.SetAttributes(attribute.String("status", status.String()))
		r.span.End()

		r.logger.Info("chain finished",
			zap.Stringer("status", status),
			zap.Duration("elapsed", time.Since(r.started)),
		)
	})
	return r.result
}

// Result is the final state of a chain run. Err is the first stage failure.
type Result struct {
	Outcomes map[string]flow.Outcome[worker.Report]
	Err      error
}

// Status is Faulted when any stage failed, Cancelled when none failed but
// one was cancelled, Completed otherwise.
func (r Result) Status() flow.Status {
	if r.Err != nil {
		return flow.StatusFaulted
	}
	for _, o := range r.Outcomes {
		if o.IsCancelled() {
			return flow.StatusCancelled
		}
	}
	return flow.StatusCompleted
}

func (r Result) Processed(name string) int64 {
	return r.Outcomes[name].Value().Processed
}
