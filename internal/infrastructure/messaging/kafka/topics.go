package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/prexsyn/engine/internal/infrastructure/monitoring/logging"
	"github.com/prexsyn/engine/pkg/errors"
	"github.com/prexsyn/engine/pkg/types/common"
)

// Topic Constants
const (
	// TopicBuildingBlockIngested carries new or updated building-block
	// records (SMILES + metadata) destined for a ChemicalSpace rebuild,
	// the alternate path to loading a BuildingBlockList from an SDF file.
	TopicBuildingBlockIngested = "building_block.ingested"

	// TopicReactionIngested carries new or updated reaction SMARTS
	// records, the alternate path to loading a ReactionList from a text
	// file.
	TopicReactionIngested = "reaction.ingested"

	// TopicChemSpaceCacheRebuilt announces that a ChemicalSpace's on-disk
	// cache (building blocks, reactions, indices) has finished rebuilding.
	TopicChemSpaceCacheRebuilt = "chemspace.cache_rebuilt"

	// TopicPipelineStarted/Stopped/BatchCommitted are the DataPipeline's
	// lifecycle and telemetry event stream, independent of the run
	// ledger's Postgres rows — consumers that only need live state (a
	// dashboard, an alerting rule) subscribe here instead of polling the
	// database.
	TopicPipelineStarted        = "pipeline.started"
	TopicPipelineStopped        = "pipeline.stopped"
	TopicPipelineBatchCommitted = "pipeline.batch_committed"

	TopicDeadLetterDefault     = "dead_letter.default"
	TopicDeadLetterChemSpace   = "dead_letter.chemspace"
	TopicDeadLetterPipeline    = "dead_letter.pipeline"
)

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Payload structs

// BuildingBlockIngestedPayload describes one ingested building block.
type BuildingBlockIngestedPayload struct {
	BlockID    string    `json:"block_id"`
	SMILES     string    `json:"smiles"`
	Secondary  bool      `json:"secondary"`
	Source     string    `json:"source"`
	IngestedAt time.Time `json:"ingested_at"`
}

// ReactionIngestedPayload describes one ingested reaction template.
type ReactionIngestedPayload struct {
	ReactionID string    `json:"reaction_id"`
	SMARTS     string    `json:"smarts"`
	NumSlots   int       `json:"num_slots"`
	Source     string    `json:"source"`
	IngestedAt time.Time `json:"ingested_at"`
}

// ChemSpaceCacheRebuiltPayload reports the outcome of a cache rebuild.
type ChemSpaceCacheRebuiltPayload struct {
	CacheDir            string    `json:"cache_dir"`
	PrimaryBlockCount   int       `json:"primary_block_count"`
	SecondaryBlockCount int       `json:"secondary_block_count"`
	ReactionCount       int       `json:"reaction_count"`
	RebuiltAt           time.Time `json:"rebuilt_at"`
}

// PipelineStartedPayload marks the beginning of a DataPipeline run.
type PipelineStartedPayload struct {
	RunID      string    `json:"run_id"`
	NumWorkers int       `json:"num_workers"`
	BaseSeed   int64     `json:"base_seed"`
	StartedAt  time.Time `json:"started_at"`
}

// PipelineStoppedPayload marks the end of a DataPipeline run.
type PipelineStoppedPayload struct {
	RunID           string    `json:"run_id"`
	BatchesCommitted int64    `json:"batches_committed"`
	TerminalReason  string    `json:"terminal_reason"` // "stopped" | "crashed"
	StoppedAt       time.Time `json:"stopped_at"`
}

// PipelineBatchCommittedPayload reports one drained batch of syntheses.
type PipelineBatchCommittedPayload struct {
	RunID       string    `json:"run_id"`
	BatchSize   int       `json:"batch_size"`
	Occupancy   int       `json:"occupancy"`
	CommittedAt time.Time `json:"committed_at"`
}

// Helper functions for EventEnvelope

func NewEventEnvelope(eventType string, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerializationError, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	return json.Unmarshal(e.Payload, target)
}

func (e *EventEnvelope) ToMessage(topic string) (*common.ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSerializationError, "failed to marshal envelope")
	}
	headers := map[string]string{
		"event_type":     e.EventType,
		"source_service": e.Source,
		"schema_version": e.SchemaVersion,
	}
	if e.TraceID != "" {
		headers["trace_id"] = e.TraceID
	}
	return &common.ProducerMessage{
		Topic:     topic,
		Value:     val,
		Headers:   headers,
		Timestamp: e.Timestamp,
	}, nil
}

func MessageToEventEnvelope(msg *common.Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.CodeInvalidParam, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.CodeSerializationError, "failed to unmarshal envelope")
	}
	return &env, nil
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	DeleteTopics(topics ...string) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager manages Kafka topics.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.CodeInvalidParam, "brokers required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to dial kafka")
	}
	return &TopicManager{
		conn:   conn,
		logger: logger,
	}, nil
}

func (m *TopicManager) CreateTopic(ctx context.Context, cfg common.TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.CodeInvalidParam, "topic name required")
	}
	if cfg.NumPartitions <= 0 {
		return errors.New(errors.CodeInvalidParam, "NumPartitions must be > 0")
	}
	if cfg.ReplicationFactor <= 0 {
		return errors.New(errors.CodeInvalidParam, "ReplicationFactor must be > 0")
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
		ConfigEntries:     make([]kafka.ConfigEntry, 0),
	}

	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "retention.ms", ConfigValue: fmt.Sprintf("%d", cfg.RetentionMs)})
	}
	if cfg.CleanupPolicy != "" {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "cleanup.policy", ConfigValue: cfg.CleanupPolicy})
	}
	if cfg.MaxMessageBytes > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: "max.message.bytes", ConfigValue: fmt.Sprintf("%d", cfg.MaxMessageBytes)})
	}
	for k, v := range cfg.Configs {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{ConfigName: k, ConfigValue: v})
	}

	err := m.conn.CreateTopics(kCfg)
	if err != nil {
		if err.Error() == "topic already exists" {
			return nil
		}
		exists, _ := m.TopicExists(ctx, cfg.Name)
		if exists {
			return nil
		}
		return err
	}
	m.logger.Info("Topic created", logging.String("topic", cfg.Name))
	return nil
}

func (m *TopicManager) DeleteTopic(ctx context.Context, name string) error {
	err := m.conn.DeleteTopics(name)
	if err != nil {
		return nil
	}
	m.logger.Warn("Topic deleted", logging.String("topic", name))
	return nil
}

func (m *TopicManager) TopicExists(ctx context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

func (m *TopicManager) ListTopics(ctx context.Context) ([]string, error) {
	partitions, err := m.conn.ReadPartitions()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var topics []string
	for _, p := range partitions {
		if !seen[p.Topic] {
			seen[p.Topic] = true
			topics = append(topics, p.Topic)
		}
	}
	return topics, nil
}

func (m *TopicManager) EnsureTopics(ctx context.Context, topics []common.TopicConfig) error {
	for _, topic := range topics {
		if err := m.CreateTopic(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

func (m *TopicManager) EnsureDefaultTopics(ctx context.Context) error {
	return m.EnsureTopics(ctx, DefaultTopics())
}

func (m *TopicManager) Close() error {
	return m.conn.Close()
}

func DefaultTopics() []common.TopicConfig {
	return []common.TopicConfig{
		{Name: TopicBuildingBlockIngested, NumPartitions: 6, ReplicationFactor: 3, RetentionMs: 7 * 24 * 3600 * 1000},
		{Name: TopicReactionIngested, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 7 * 24 * 3600 * 1000},
		{Name: TopicChemSpaceCacheRebuilt, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 30 * 24 * 3600 * 1000},
		{Name: TopicPipelineStarted, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 30 * 24 * 3600 * 1000},
		{Name: TopicPipelineStopped, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 30 * 24 * 3600 * 1000},
		{Name: TopicPipelineBatchCommitted, NumPartitions: 6, ReplicationFactor: 3, RetentionMs: 24 * 3600 * 1000},
		{Name: TopicDeadLetterDefault, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 30 * 24 * 3600 * 1000},
		{Name: TopicDeadLetterChemSpace, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 30 * 24 * 3600 * 1000},
		{Name: TopicDeadLetterPipeline, NumPartitions: 3, ReplicationFactor: 3, RetentionMs: 30 * 24 * 3600 * 1000},
	}
}
