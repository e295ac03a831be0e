// Package channel implements the bounded queue that connects pipeline stages.
//
// A Channel has one producer and one consumer. Writes block while the buffer
// is full and fail with ErrTerminated once the channel is terminated. Reads
// block while it is empty; after termination the reader drains what is left
// and then receives io.EOF (Complete) or the terminal error (CompleteWithError).
// Termination is idempotent: the first call wins.
//
// Key constructs:
//   - New: create a channel with a capacity >= 1
//   - State: Open, Completed, Faulted or Cancelled
//   - Feed/FromSlice: produce from a slice and terminate
//   - Drain/FirstOrDefault: consume
package channel
