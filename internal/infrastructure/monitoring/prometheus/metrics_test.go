package prometheus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultGRPCDurationBuckets(t *testing.T) {
	assert.NotEmpty(t, DefaultGRPCDurationBuckets)
}

func TestNewGRPCMetrics_AllFieldsRegistered(t *testing.T) {
	c := newTestCollector(t)
	m := NewGRPCMetrics(c)

	assert.NotNil(t, m.UnaryRequestsTotal)
	assert.NotNil(t, m.UnaryRequestDuration)
	assert.NotNil(t, m.StreamRequestsTotal)
	assert.NotNil(t, m.StreamRequestDuration)
}

func TestGRPCMetrics_RecordUnaryRequest(t *testing.T) {
	c := newTestCollector(t)
	m := NewGRPCMetrics(c)

	m.RecordUnaryRequest("pipeline.admin", "Stats", "OK", 50*time.Millisecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_grpc_unary_requests_total{code="OK",method="Stats",service="pipeline.admin"} 1`)
	assert.Contains(t, output, `test_unit_grpc_unary_request_duration_seconds_count{method="Stats",service="pipeline.admin"} 1`)
}

func TestGRPCMetrics_RecordStreamRequest(t *testing.T) {
	c := newTestCollector(t)
	m := NewGRPCMetrics(c)

	m.RecordStreamRequest("pipeline.admin", "Watch", "OK", 100*time.Millisecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_grpc_stream_requests_total{code="OK",method="Watch",service="pipeline.admin"} 1`)
	assert.Contains(t, output, `test_unit_grpc_stream_request_duration_seconds_count{method="Watch",service="pipeline.admin"} 1`)
}

func TestGRPCMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *GRPCMetrics
	assert.NotPanics(t, func() {
		m.RecordUnaryRequest("svc", "method", "OK", time.Millisecond)
		m.RecordStreamRequest("svc", "method", "OK", time.Millisecond)
	})
}

func TestGRPCMetrics_ConcurrentRecording(t *testing.T) {
	c := newTestCollector(t)
	m := NewGRPCMetrics(c)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				m.RecordUnaryRequest("svc", "method", "OK", time.Millisecond)
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
