package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ib-77/batchrail/pkg/flow"
	"go.uber.org/zap"
)

var (
	// ErrNotIdle is returned by Start on a worker that already ran or is running.
	ErrNotIdle = errors.New("worker: not idle")

	// ErrStopped is the cancellation cause set by Stop and Dispose.
	ErrStopped = fmt.Errorf("worker stopped: %w", context.Canceled)
)

// Operation is the unit of work a worker hosts. It must observe ctx and report
// processed items through progress.
type Operation func(ctx context.Context, progress flow.Progress) error

// Report is the value carried by every outcome of a run that actually started.
type Report struct {
	RunID     uuid.UUID
	Processed int64
	Duration  time.Duration
}

// Worker runs an Operation once under a cancellation scope linked to both the
// caller's context and its own internal source.
type Worker struct {
	name   string
	op     Operation
	logger *zap.Logger
	settings

	internal context.Context
	cancel   context.CancelCauseFunc
	disposed sync.Once

	mu    sync.Mutex
	state State
	done  chan struct{}

	processed atomic.Int64
}

func New(name string, op Operation, logger *zap.Logger, opts ...Option) (*Worker, error) {
	if name == "" {
		return nil, flow.Invalid("worker name", "must not be empty")
	}
	if op == nil {
		return nil, flow.Invalid("operation", "must not be nil")
	}
	if logger == nil {
		return nil, flow.Invalid("logger", "is required")
	}

	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}

	internal, cancel := context.WithCancelCause(context.Background())
	return &Worker{
		name:     name,
		op:       op,
		logger:   logger.With(zap.String("worker", name)),
		settings: s,
		internal: internal,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

func (w *Worker) Name() string {
	return w.name
}

func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Processed is safe to call at any time, including while the worker runs.
func (w *Worker) Processed() int64 {
	return w.processed.Load()
}

// Done is closed when the run started by Start returns. It stays open for a
// worker that never started.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Start runs the operation and blocks until it returns. A nil ctx means
// context.Background. Calling Start on a worker that is not Idle returns a
// Faulted outcome wrapping ErrNotIdle and leaves the state unchanged.
func (w *Worker) Start(ctx context.Context) flow.Outcome[Report] {
	if ctx == nil {
		ctx = context.Background()
	}

	w.mu.Lock()
	if w.state != Idle {
		state := w.state
		w.mu.Unlock()
		err := fmt.Errorf("%w: %s is %s", ErrNotIdle, w.name, state)
		w.logger.Error("worker start rejected", zap.Stringer("state", state), zap.Error(err))
		return flow.Faulted[Report](err)
	}
	w.state = Running
	w.mu.Unlock()
	defer close(w.done)

	runID := uuid.New()
	scope, release := w.link(ctx)
	defer release()
	scope = flow.WithRunInfo(scope, flow.RunInfo{Worker: w.name, RunID: runID})

	log := w.logger.With(zap.Stringer("run_id", runID))
	log.Info("worker started")
	w.recorder.WorkerStarted(w.name)

	started := time.Now()
	err := w.invoke(scope)
	report := Report{
		RunID:     runID,
		Processed: w.processed.Load(),
		Duration:  time.Since(started),
	}

	res := w.classify(scope, log, report, err)
	w.setState(res.Status())

	w.recorder.WorkerStopped(w.name, res.Status().String(), report.Duration)
	log.Info("worker stopped",
		zap.Stringer("status", res.Status()),
		zap.Int64("processed", report.Processed),
		zap.Duration("elapsed", report.Duration),
	)

	return res
}

// Stop fires the internal cancellation source and returns once the run ends
// or the stop grace period elapses, whichever comes first.
func (w *Worker) Stop() {
	w.cancel(ErrStopped)

	if w.State() != Running {
		return
	}

	timer := time.NewTimer(w.stopGrace)
	defer timer.Stop()

	select {
	case <-w.done:
	case <-timer.C:
		w.logger.Debug("worker still running after stop grace", zap.Duration("grace", w.stopGrace))
	}
}

// Dispose releases the internal cancellation source. A running operation
// observes it as a stop. Safe to call more than once.
func (w *Worker) Dispose() {
	w.disposed.Do(func() {
		w.cancel(ErrStopped)
	})
}

// link derives the run scope from parent. Either parent or the internal source
// fires it; release frees the scope without touching parent.
func (w *Worker) link(parent context.Context) (context.Context, func()) {
	scope, cancel := context.WithCancelCause(parent)
	if w.internal.Err() != nil {
		cancel(context.Cause(w.internal))
	}
	unlink := context.AfterFunc(w.internal, func() {
		cancel(context.Cause(w.internal))
	})

	return scope, func() {
		unlink()
		cancel(context.Canceled)
	}
}

// invoke runs the operation even when ctx is already done, so that it still
// terminates whatever it owns.
func (w *Worker) invoke(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &flow.PanicError{Value: r}
		}
	}()

	return w.op(ctx, progress{w})
}

func (w *Worker) classify(scope context.Context, log *zap.Logger, report Report, err error) flow.Outcome[Report] {
	switch {
	case err == nil:
		return flow.Completed(report)

	case scope.Err() != nil || flow.IsCancellation(err):
		reason := flow.Reason(scope, err)
		log.Info("worker cancelled", zap.NamedError("reason", reason))
		return flow.Cancelled[Report](reason).WithValue(report)

	case flow.IsUpstreamFault(err):
		log.Info("worker stopped by upstream fault", zap.Int64("processed", report.Processed), zap.Error(err))
		return flow.Faulted[Report](err).WithValue(report)

	default:
		log.Error("worker failed", zap.Int64("processed", report.Processed), zap.Error(err))
		return flow.Faulted[Report](err).WithValue(report)
	}
}

func (w *Worker) setState(s flow.Status) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch s {
	case flow.StatusCompleted:
		w.state = Completed
	case flow.StatusCancelled:
		w.state = Cancelled
	default:
		w.state = Faulted
	}
}

type progress struct {
	w *Worker
}

func (p progress) Add(n int64) {
	p.w.processed.Add(n)
	p.w.recorder.ItemsProcessed(p.w.name, n)
}
