package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	workersRunning *prometheus.GaugeVec
	workerRuns     *prometheus.CounterVec
	workerDuration *prometheus.HistogramVec
	processed      *prometheus.CounterVec

	batches      *prometheus.CounterVec
	batchErrors  *prometheus.CounterVec
	batchSize    *prometheus.HistogramVec
	batchLatency *prometheus.HistogramVec
	forwarded    *prometheus.CounterVec
}

// NewProm creates the collectors under namespace and registers them with reg.
// A nil reg skips registration; use Collectors to register later.
func NewProm(namespace string, reg prometheus.Registerer) (*Prom, error) {
	p := &Prom{
		workersRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_running",
			Help:      "Workers currently running",
		}, []string{"worker"}),
		workerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_runs_total",
			Help:      "Finished worker runs by outcome",
		}, []string{"worker", "status"}),
		workerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "worker_run_seconds",
			Help:      "Worker run duration",
		}, []string{"worker"}),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_processed_total",
			Help:      "Items processed by worker",
		}, []string{"worker"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_batches_total",
			Help:      "Batches processed by stage",
		}, []string{"stage"}),
		batchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_batch_errors_total",
			Help:      "Failed batches by stage",
		}, []string{"stage"}),
		batchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_batch_size",
			Help:      "Input items per batch",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"stage"}),
		batchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_batch_seconds",
			Help:      "ProcessBatch latency",
		}, []string{"stage"}),
		forwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_forwarded_total",
			Help:      "Items written downstream by stage",
		}, []string{"stage"}),
	}

	if reg != nil {
		for _, c := range p.Collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return p, nil
}

func (p *Prom) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		p.workersRunning, p.workerRuns, p.workerDuration, p.processed,
		p.batches, p.batchErrors, p.batchSize, p.batchLatency, p.forwarded,
	}
}

func (p *Prom) WorkerStarted(worker string) {
	p.workersRunning.WithLabelValues(worker).Inc()
}

func (p *Prom) WorkerStopped(worker string, status string, elapsed time.Duration) {
	p.workersRunning.WithLabelValues(worker).Dec()
	p.workerRuns.WithLabelValues(worker, status).Inc()
	p.workerDuration.WithLabelValues(worker).Observe(elapsed.Seconds())
}

func (p *Prom) ItemsProcessed(worker string, n int64) {
	p.processed.WithLabelValues(worker).Add(float64(n))
}

func (p *Prom) BatchProcessed(stage string, size int, elapsed time.Duration) {
	p.batches.WithLabelValues(stage).Inc()
	p.batchSize.WithLabelValues(stage).Observe(float64(size))
	p.batchLatency.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (p *Prom) BatchFailed(stage string) {
	p.batchErrors.WithLabelValues(stage).Inc()
}

func (p *Prom) ItemsForwarded(stage string, n int) {
	p.forwarded.WithLabelValues(stage).Add(float64(n))
}

var _ Recorder = (*Prom)(nil)
