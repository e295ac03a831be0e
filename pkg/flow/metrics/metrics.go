// Package metrics records worker and stage events. Nop is the default;
// Prom exports them as Prometheus collectors.
package metrics

import "time"

// Recorder receives worker and stage events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	WorkerStarted(worker string)
	WorkerStopped(worker string, status string, elapsed time.Duration)
	ItemsProcessed(worker string, n int64)

	BatchProcessed(stage string, size int, elapsed time.Duration)
	BatchFailed(stage string)
	ItemsForwarded(stage string, n int)
}

type Nop struct{}

func (Nop) WorkerStarted(string) {}

func (Nop) WorkerStopped(string, string, time.Duration) {}

func (Nop) ItemsProcessed(string, int64) {}

func (Nop) BatchProcessed(string, int, time.Duration) {}

func (Nop) BatchFailed(string) {}

func (Nop) ItemsForwarded(string, int) {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}
