// Package batcher groups items read from a channel into ordered batches.
//
// Every batch holds exactly Size items except possibly the last one of a
// pass, which holds the non-empty remainder. A batch is never empty and items
// are never reordered. If the context fires or the source faults while a
// group is being filled, the group is discarded and the error is returned;
// callers decide whether that is a cancellation or a failure.
package batcher
