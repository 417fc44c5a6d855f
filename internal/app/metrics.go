package app

import (
	"github.com/prexsyn/engine/internal/infrastructure/monitoring/prometheus"
)

// PipelineMetrics are the pipeline-shaped Prometheus series: generation
// throughput, drop reasons, ring-buffer occupancy, and consumer batch
// latency.
type PipelineMetrics struct {
	SynthesesGenerated   prometheus.Counter
	SynthesesDropped     prometheus.CounterVec
	BufferOccupancy      prometheus.Gauge
	BufferCapacity       prometheus.Gauge
	ConsumerBatchLatency prometheus.Histogram
}

var pipelineMetricsBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1}

// registerPipelineMetrics registers the pipeline-shaped series on
// collector and returns a handle the consumer loop updates.
func registerPipelineMetrics(collector prometheus.MetricsCollector) *PipelineMetrics {
	generated := collector.RegisterCounter("syntheses_generated_total", "Total syntheses committed to the ring buffer")
	dropped := collector.RegisterCounter("syntheses_dropped_total", "Total syntheses dropped before commit", "reason")
	occupancy := collector.RegisterGauge("buffer_occupancy", "Committed-but-unread ring buffer slots")
	capacity := collector.RegisterGauge("buffer_capacity", "Ring buffer capacity")
	batchLatency := collector.RegisterHistogram("consumer_batch_duration_seconds", "Consumer Read() call duration", pipelineMetricsBuckets)

	return &PipelineMetrics{
		SynthesesGenerated:   generated.WithLabelValues(),
		SynthesesDropped:     dropped,
		BufferOccupancy:      occupancy.WithLabelValues(),
		BufferCapacity:       capacity.WithLabelValues(),
		ConsumerBatchLatency: batchLatency.WithLabelValues(),
	}
}
