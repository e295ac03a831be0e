// Package chain assembles stages into a linear pipeline: every stage runs in
// its own worker and consecutive stages are connected by bounded channels
// the assembly allocates.
//
// Key operations:
//   - New: create an Assembly with channel capacity, stop grace and metrics
//   - Start/Then: build the chain, one typed Link per stage output
//   - Assembly.Run: start every worker under an errgroup; Run.Wait collects
//     the outcome of each stage
//   - Assembly.Stop/Dispose: cooperative shutdown and cleanup
//
// A failing stage faults its output, so every stage downstream of it fails
// too and a consumer of the last output sees the error. Stages upstream of it
// are cancelled with ErrAborted.
package chain
