// Package flow holds the vocabulary shared by every batchrail package: the
// tagged Outcome[T] with its Completed, Cancelled and Faulted variants, the
// error taxonomy (ConfigError, StageError, PanicError) and the Progress
// interface used to count processed items.
//
// Key constructs:
//   - Completed/Cancelled/Faulted/FromError: build outcomes
//   - Match: exhaustive reduction of an outcome
//   - IsCancellation/Reason: tell a cooperative stop apart from a failure
//   - Invalid: construction-time ConfigError matching ErrInvalidConfiguration
//
// Sub-packages build the pipeline: channel (bounded queues), batcher, stage,
// worker, processor (adapters), chain (assembly), runtime (readiness signal),
// metrics, logging and config.
package flow
