// Package worker hosts a long-running Operation, typically a stage, and owns
// its lifecycle: a one-shot Start, a cooperative Stop with a bounded grace
// period, the processed-item counter and Dispose.
//
// Each run executes under a scope linked to the caller's context and to the
// worker's internal source, so either side can stop it. Start never conflates
// the two kinds of ending: a cancelled run is reported as Cancelled with its
// cause (ErrStopped after Stop), anything else that fails is logged once with
// the worker name and returned as Faulted.
//
//	w, err := worker.New("embed", st.Operation(in, out), logger)
//	if err != nil {
//		return err
//	}
//	defer w.Dispose()
//
//	res := w.Start(ctx)
package worker
