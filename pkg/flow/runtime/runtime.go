package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ib-77/batchrail/pkg/flow"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrUnavailable wraps every initialization failure.
var ErrUnavailable = errors.New("runtime unavailable")

// Runtime is an explicit, process-wide readiness signal for a foreign runtime
// that processors call into. Initialization happens at most once until Shutdown.
type Runtime struct {
	name     string
	init     func(ctx context.Context) error
	shutdown func(ctx context.Context) error
	logger   *zap.Logger

	lock *semaphore.Weighted

	mu      sync.RWMutex
	ready   bool
	readyCh chan struct{}
}

// New creates a runtime that is not ready yet. shutdown may be nil; a nil
// logger discards events.
func New(name string, init, shutdown func(ctx context.Context) error, logger *zap.Logger) (*Runtime, error) {
	if name == "" {
		return nil, flow.Invalid("runtime name", "must not be empty")
	}
	if init == nil {
		return nil, flow.Invalid("runtime init", "must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runtime{
		name:     name,
		init:     init,
		shutdown: shutdown,
		logger:   logger.With(zap.String("runtime", name)),
		lock:     semaphore.NewWeighted(1),
		readyCh:  make(chan struct{}),
	}, nil
}

func (r *Runtime) Name() string {
	return r.name
}

func (r *Runtime) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}

// EnsureReady initializes the runtime unless it is ready already. Concurrent
// callers wait for the one running init; a failed init leaves the runtime not
// ready so a later call tries again.
func (r *Runtime) EnsureReady(ctx context.Context) error {
	if r.Ready() {
		return nil
	}

	if err := r.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.lock.Release(1)

	if r.Ready() {
		return nil
	}

	started := time.Now()
	if err := r.init(ctx); err != nil {
		r.logger.Warn("runtime init failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, r.name, err)
	}

	r.mu.Lock()
	r.ready = true
	close(r.readyCh)
	r.mu.Unlock()

	r.logger.Info("runtime ready", zap.Duration("elapsed", time.Since(started)))
	return nil
}

// Wait blocks until the runtime is ready or ctx is done. It does not
// initialize anything.
func (r *Runtime) Wait(ctx context.Context) error {
	r.mu.RLock()
	ch := r.readyCh
	r.mu.RUnlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown tears the runtime down and re-arms it for a later EnsureReady.
// It is a no-op when the runtime is not ready.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if err := r.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.lock.Release(1)

	if !r.Ready() {
		return nil
	}

	var err error
	if r.shutdown != nil {
		err = r.shutdown(ctx)
	}

	r.mu.Lock()
	r.ready = false
	r.readyCh = make(chan struct{})
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("runtime shutdown failed", zap.Error(err))
		return fmt.Errorf("runtime %s shutdown: %w", r.name, err)
	}
	r.logger.Info("runtime shut down")
	return nil
}
