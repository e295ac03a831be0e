// Package stage runs one pipeline step: it batches items from an input
// channel, hands each batch to a Processor and forwards the results, in
// order, to an output channel.
//
// Run returns a flow.Outcome[Summary]:
//   - Completed when the input ended normally; the output is completed
//   - Cancelled when the context fired or the input was cancelled upstream;
//     the output is terminated with the cancellation reason, not faulted
//   - Faulted on any other failure; the failure is logged, wrapped in a
//     *flow.StageError and used to fault the output
//
// At most one ProcessBatch call is in flight per stage. Retries belong to the
// Processor (see package processor).
package stage
