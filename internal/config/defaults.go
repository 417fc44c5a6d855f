// Package config provides configuration loading, defaults, and validation for
// the prexsyn engine.
package config

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultGRPCPort   = 9090

	DefaultRunLedgerHost     = "localhost"
	DefaultRunLedgerPort     = 5432
	DefaultRunLedgerDBName   = "prexsyn"
	DefaultRunLedgerMaxConns = 10

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "prexsyn-group"

	DefaultMinIOEndpoint = "localhost:9000"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultPipelineNumWorkers            = 4
	DefaultPipelineNumReactionsCutoff    = 5
	DefaultPipelineNumProductAtomsCutoff = 50
	DefaultPipelineBufferCapacity        = 1024
)

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// It must be called after unmarshalling raw config data and before Validate()
// so that optional-but-defaulted fields are never seen as missing.
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}

	// ── GRPC ──────────────────────────────────────────────────────────────────
	if cfg.GRPC.Port == 0 {
		cfg.GRPC.Port = DefaultGRPCPort
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	if cfg.Pipeline.NumWorkers == 0 {
		cfg.Pipeline.NumWorkers = DefaultPipelineNumWorkers
	}
	if cfg.Pipeline.NumReactionsCutoff == 0 {
		cfg.Pipeline.NumReactionsCutoff = DefaultPipelineNumReactionsCutoff
	}
	if cfg.Pipeline.NumProductAtomsCutoff == 0 {
		cfg.Pipeline.NumProductAtomsCutoff = DefaultPipelineNumProductAtomsCutoff
	}
	if cfg.Pipeline.BufferCapacity == 0 {
		cfg.Pipeline.BufferCapacity = DefaultPipelineBufferCapacity
	}

	// ── RunLedger ─────────────────────────────────────────────────────────────
	if cfg.RunLedger.Host == "" {
		cfg.RunLedger.Host = DefaultRunLedgerHost
	}
	if cfg.RunLedger.Port == 0 {
		cfg.RunLedger.Port = DefaultRunLedgerPort
	}
	if cfg.RunLedger.DBName == "" {
		cfg.RunLedger.DBName = DefaultRunLedgerDBName
	}
	if cfg.RunLedger.MaxConns == 0 {
		cfg.RunLedger.MaxConns = DefaultRunLedgerMaxConns
	}
	if cfg.RunLedger.SSLMode == "" {
		cfg.RunLedger.SSLMode = "disable"
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	// DB is an int; 0 is a valid explicit value so we cannot distinguish "not
	// set" from "set to 0".  We leave it as-is (0 is also the default).

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

