// Package processor contains ready-made stage.Processor implementations and
// decorators.
//
// Highlights:
//   - Map/Try/FlatMap: per-item transforms; Try and FlatMap fail the batch with
//     an *ItemError on the first item error
//   - Filter/Validate/Tee: pass-through helpers
//   - Retry: bounded retries with exponential backoff, cancellation aware
//   - Logged: debug timing per batch
//   - RequireReady: gate every batch on a Readiness signal
package processor
