package worker

import (
	"time"

	"github.com/ib-77/batchrail/pkg/flow"
	"github.com/ib-77/batchrail/pkg/flow/metrics"
)

// DefaultStopGrace bounds how long Stop waits for the run to end.
const DefaultStopGrace = 100 * time.Millisecond

type settings struct {
	stopGrace time.Duration
	recorder  metrics.Recorder
}

type Option func(*settings)

func newSettings(opts []Option) (settings, error) {
	s := settings{
		stopGrace: DefaultStopGrace,
		recorder:  metrics.Nop{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.stopGrace < 0 {
		return s, flow.Invalid("stop grace", "must not be negative, got %s", s.stopGrace)
	}
	return s, nil
}

// WithStopGrace overrides DefaultStopGrace. Zero makes Stop return immediately.
func WithStopGrace(d time.Duration) Option {
	return func(s *settings) { s.stopGrace = d }
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *settings) { s.recorder = metrics.OrNop(r) }
}
