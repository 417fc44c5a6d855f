package prometheus

import (
	"time"
)

// DefaultGRPCDurationBuckets bucket boundaries for gRPC latency
// histograms registered through NewGRPCMetrics.
var DefaultGRPCDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

// GRPCMetrics holds the request-count and latency vectors
// internal/interfaces/grpc's unary/stream metrics interceptors record
// into on every call, keyed by service, method, and status code.
type GRPCMetrics struct {
	UnaryRequestsTotal    CounterVec
	UnaryRequestDuration  HistogramVec
	StreamRequestsTotal   CounterVec
	StreamRequestDuration HistogramVec
}

// NewGRPCMetrics registers the gRPC transport-layer metrics on collector.
func NewGRPCMetrics(collector MetricsCollector) *GRPCMetrics {
	return &GRPCMetrics{
		UnaryRequestsTotal:    collector.RegisterCounter("grpc_unary_requests_total", "Total unary gRPC requests", "service", "method", "code"),
		UnaryRequestDuration:  collector.RegisterHistogram("grpc_unary_request_duration_seconds", "Unary gRPC request duration", DefaultGRPCDurationBuckets, "service", "method"),
		StreamRequestsTotal:   collector.RegisterCounter("grpc_stream_requests_total", "Total streaming gRPC requests", "service", "method", "code"),
		StreamRequestDuration: collector.RegisterHistogram("grpc_stream_request_duration_seconds", "Streaming gRPC request duration", DefaultGRPCDurationBuckets, "service", "method"),
	}
}

// RecordUnaryRequest records one completed unary RPC.
func (m *GRPCMetrics) RecordUnaryRequest(service, method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.UnaryRequestsTotal.WithLabelValues(service, method, code).Inc()
	m.UnaryRequestDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordStreamRequest records one completed streaming RPC.
func (m *GRPCMetrics) RecordStreamRequest(service, method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.StreamRequestsTotal.WithLabelValues(service, method, code).Inc()
	m.StreamRequestDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}
