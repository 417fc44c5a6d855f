// Package config defines all configuration structures for the prexsyn engine.
// No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds the admin gRPC server's tunables: the control-plane
// transport run alongside the worker's DataPipeline, not a tensor-consumer
// API.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GRPCConfig holds the parameters internal/interfaces/grpc.NewServer binds
// its listener and reflection service from. It is deliberately narrower
// than ServerConfig (no ShutdownTimeout — that is an Option, not a
// construction-time parameter) since the gRPC transport layer is reusable
// infrastructure, independent of whatever services end up registered on it.
type GRPCConfig struct {
	Host  string `mapstructure:"host"`
	Port  int    `mapstructure:"port"`
	Debug bool   `mapstructure:"debug"`
}

// PipelineConfig holds the DataPipeline's tunables: worker count, the
// base seed each worker's generator offsets from, the generator's two
// reset cutoffs, and the backing DataBuffer's capacity.
type PipelineConfig struct {
	NumWorkers            int   `mapstructure:"num_workers"`
	BaseSeed              int64 `mapstructure:"base_seed"`
	NumReactionsCutoff    int   `mapstructure:"num_reactions_cutoff"`
	NumProductAtomsCutoff int   `mapstructure:"num_product_atoms_cutoff"`
	BufferCapacity        int   `mapstructure:"buffer_capacity"`
}

// ChemSpaceConfig locates the inputs and cache directory a ChemicalSpace
// is built from.
type ChemSpaceConfig struct {
	CacheDir             string `mapstructure:"cache_dir"`
	BuildingBlockSDF     string `mapstructure:"building_block_sdf"`
	ReactionSMARTSPath   string `mapstructure:"reaction_smarts_path"`
	PreprocessingWorkers int    `mapstructure:"preprocessing_workers"`
	IndexWorkers         int    `mapstructure:"index_workers"`
}

// RedisConfig holds Redis connection parameters, used for the cache
// rebuild lock and the cross-process live throughput cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka producer/consumer parameters for the
// building-block/reaction ingestion path and the pipeline lifecycle and
// telemetry event stream.
type KafkaConfig struct {
	Brokers           []string `mapstructure:"brokers"`
	GroupID           string   `mapstructure:"group_id"`
	AutoOffsetReset   string   `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	TimeoutMS         int      `mapstructure:"timeout_ms"`
	ProducerRetries   int      `mapstructure:"producer_retries"`
	BatchSize         int      `mapstructure:"batch_size"`
	AutoCreateTopics  bool     `mapstructure:"auto_create_topics"`
	ReplicationFactor int      `mapstructure:"replication_factor"`
	NumPartitions     int      `mapstructure:"num_partitions"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters for
// the ChemicalSpace cache directory's remote persistence target.
type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// RunLedgerConfig holds the Postgres connection parameters for the run
// ledger: one row per DataPipeline Start/Stop cycle.
type RunLedgerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string `mapstructure:"format"` // "json" | "text"
	Output           string `mapstructure:"output"`
	EnableCaller     bool   `mapstructure:"enable_caller"`
	EnableStacktrace bool   `mapstructure:"enable_stacktrace"`
	SamplingRate     int    `mapstructure:"sampling_rate"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the engine. Every
// infrastructure component and application service reads its settings
// from the relevant sub-struct.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	ChemSpace ChemSpaceConfig `mapstructure:"chemspace"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	RunLedger RunLedgerConfig `mapstructure:"run_ledger"`
	Log       LogConfig       `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}

	// GRPC
	if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
		return fmt.Errorf("config: grpc.port %d is out of range [1, 65535]", c.GRPC.Port)
	}

	// Pipeline
	if c.Pipeline.NumWorkers < 1 {
		return fmt.Errorf("config: pipeline.num_workers must be ≥ 1, got %d", c.Pipeline.NumWorkers)
	}
	if c.Pipeline.BufferCapacity < 1 {
		return fmt.Errorf("config: pipeline.buffer_capacity must be ≥ 1, got %d", c.Pipeline.BufferCapacity)
	}
	if c.Pipeline.NumReactionsCutoff < 1 {
		return fmt.Errorf("config: pipeline.num_reactions_cutoff must be ≥ 1, got %d", c.Pipeline.NumReactionsCutoff)
	}
	if c.Pipeline.NumProductAtomsCutoff < 1 {
		return fmt.Errorf("config: pipeline.num_product_atoms_cutoff must be ≥ 1, got %d", c.Pipeline.NumProductAtomsCutoff)
	}

	// ChemSpace
	if c.ChemSpace.CacheDir == "" {
		return fmt.Errorf("config: chemspace.cache_dir is required")
	}

	// Redis
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}

	// MinIO
	if c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio.endpoint is required")
	}
	if c.MinIO.Bucket == "" {
		return fmt.Errorf("config: minio.bucket is required")
	}

	// RunLedger
	if c.RunLedger.Host == "" {
		return fmt.Errorf("config: run_ledger.host is required")
	}
	if c.RunLedger.Port < 1 || c.RunLedger.Port > 65535 {
		return fmt.Errorf("config: run_ledger.port %d is out of range [1, 65535]", c.RunLedger.Port)
	}
	if c.RunLedger.User == "" {
		return fmt.Errorf("config: run_ledger.user is required")
	}
	if c.RunLedger.DBName == "" {
		return fmt.Errorf("config: run_ledger.db_name is required")
	}
	if c.RunLedger.MaxConns < 1 {
		return fmt.Errorf("config: run_ledger.max_conns must be ≥ 1, got %d", c.RunLedger.MaxConns)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|text", c.Log.Format)
	}

	return nil
}
