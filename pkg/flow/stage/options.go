package stage

import (
	"github.com/ib-77/batchrail/pkg/flow"
	"github.com/ib-77/batchrail/pkg/flow/metrics"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

type settings struct {
	logger   *zap.Logger
	recorder metrics.Recorder
	tracer   trace.Tracer
	progress flow.Progress
}

type Option func(*settings)

func newSettings(opts []Option) settings {
	s := settings{
		logger:   zap.NewNop(),
		recorder: metrics.Nop{},
		tracer:   noop.NewTracerProvider().Tracer("batchrail/stage"),
		progress: flow.NopProgress{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
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

// WithProgress reports the input item count of every fully forwarded batch.
func WithProgress(p flow.Progress) Option {
	return func(s *settings) {
		if p != nil {
			s.progress = p
		}
	}
}
