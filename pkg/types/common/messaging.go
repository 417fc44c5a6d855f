// Package common holds the wire-level message types shared by the
// messaging infrastructure (Kafka producer/consumer/topic manager). They
// are transport-agnostic: nothing here depends on segmentio/kafka-go.
package common

import (
	"context"
	"time"
)

// Message is a single inbound message as delivered to a subscriber,
// translated from the broker's native representation.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string]string
}

// ProducerMessage is a single outbound message. Partition is left at its
// zero value to let the producer's balancer choose, or set explicitly to
// pin a message to a partition (e.g. keeping one run's telemetry events
// in order).
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
	Partition int
}

// MessageHandler processes one consumed Message. A returned error causes
// the consumer's retry loop to re-attempt delivery, eventually routing to
// the dead-letter topic once retries are exhausted.
type MessageHandler func(ctx context.Context, msg *Message) error

// BatchItemError records the per-message failure from a batch publish.
// Index is -1 when the batch failed as a whole rather than per-message.
type BatchItemError struct {
	Index int
	Topic string
	Error error
}

// BatchPublishResult summarizes the outcome of PublishBatch.
type BatchPublishResult struct {
	Succeeded int
	Failed    int
	Errors    []BatchItemError
}

// TopicConfig describes a topic a TopicManager should ensure exists.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string // "delete" | "compact"
	MaxMessageBytes   int
	Configs           map[string]string
}
