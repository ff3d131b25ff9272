package batch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "tripload"

// PrometheusStatsCollector exports batch statistics as Prometheus metrics
// and keeps an in-memory copy for GetStats.
type PrometheusStatsCollector struct {
	basic *BasicStatsCollector

	batches       *prometheus.CounterVec
	items         *prometheus.CounterVec
	errors        *prometheus.CounterVec
	batchDuration prometheus.Histogram
	batchSize     prometheus.Histogram
}

// NewPrometheusStatsCollector creates the collector and registers its metrics
// with reg. It fails if any metric is already registered.
func NewPrometheusStatsCollector(reg prometheus.Registerer) (*PrometheusStatsCollector, error) {
	p := &PrometheusStatsCollector{
		basic: NewBasicStatsCollector(),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "batches_total",
			Help:      "Batches by state (started, completed).",
		}, []string{"state"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "items_total",
			Help:      "Items by outcome (processed, error, rejected).",
		}, []string{"outcome"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "errors_total",
			Help:      "Source and processor errors.",
		}, []string{"origin"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "batch_duration_seconds",
			Help:      "Time spent running one batch through the processors.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "batch_size",
			Help:      "Number of items per dispatched batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}

	for _, c := range []prometheus.Collector{p.batches, p.items, p.errors, p.batchDuration, p.batchSize} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// RecordBatchStart implements the StatsCollector interface.
func (p *PrometheusStatsCollector) RecordBatchStart(batchSize int) {
	p.basic.RecordBatchStart(batchSize)
	p.batches.WithLabelValues("started").Inc()
	p.batchSize.Observe(float64(batchSize))
}

// RecordBatchComplete implements the StatsCollector interface.
func (p *PrometheusStatsCollector) RecordBatchComplete(batchSize int, duration time.Duration) {
	p.basic.RecordBatchComplete(batchSize, duration)
	p.batches.WithLabelValues("completed").Inc()
	p.batchDuration.Observe(duration.Seconds())
}

// RecordItemProcessed implements the StatsCollector interface.
func (p *PrometheusStatsCollector) RecordItemProcessed() {
	p.basic.RecordItemProcessed()
	p.items.WithLabelValues("processed").Inc()
}

// RecordItemError implements the StatsCollector interface.
func (p *PrometheusStatsCollector) RecordItemError() {
	p.basic.RecordItemError()
	p.items.WithLabelValues("error").Inc()
}

// RecordItemRejected implements the StatsCollector interface.
func (p *PrometheusStatsCollector) RecordItemRejected() {
	p.basic.RecordItemRejected()
	p.items.WithLabelValues("rejected").Inc()
}

// RecordSourceError implements the StatsCollector interface.
func (p *PrometheusStatsCollector) RecordSourceError() {
	p.basic.RecordSourceError()
	p.errors.WithLabelValues("source").Inc()
}

// RecordProcessorError implements the StatsCollector interface.
func (p *PrometheusStatsCollector) RecordProcessorError() {
	p.basic.RecordProcessorError()
	p.errors.WithLabelValues("processor").Inc()
}

// GetStats implements the StatsCollector interface.
func (p *PrometheusStatsCollector) GetStats() Stats {
	return p.basic.GetStats()
}
