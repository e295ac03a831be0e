package chain

import (
	"time"

	"github.com/ib-77/batchrail/pkg/flow"
	"github.com/ib-77/batchrail/pkg/flow/metrics"
	"github.com/ib-77/batchrail/pkg/flow/worker"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultCapacity is the capacity of every channel Then allocates.
const DefaultCapacity = 16

type settings struct {
	capacity  int
	stopGrace time.Duration
	recorder  metrics.Recorder
	tracer    trace.Tracer
}

type Option func(*settings)

func newSettings(opts []Option) (settings, error) {
	s := settings{
		capacity:  DefaultCapacity,
		stopGrace: worker.DefaultStopGrace,
		recorder:  metrics.Nop{},
		tracer:    noop.NewTracerProvider().Tracer("batchrail/chain"),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.capacity < 1 {
		return s, flow.Invalid("channel capacity", "must be >= 1, got %d", s.capacity)
	}
	return s, nil
}

func WithCapacity(n int) Option {
	return func(s *settings) { s.capacity = n }
}

// WithStopGrace is passed to every worker of the assembly.
func WithStopGrace(d time.Duration) Option {
	return func(s *settings) { s.stopGrace = d }
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *settings) { s.recorder = metrics.OrNop(r) }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *settings) {
		if t != nil {
			s.tracer = t
		}
	}
}
