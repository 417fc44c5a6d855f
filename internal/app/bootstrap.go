// Package app wires the infrastructure connections and domain components
// the "prexsyn serve" worker process needs into a single App: the run
// ledger, the distributed lock/cache, the event-stream producer, the
// cache object store, metrics, the admin gRPC transport, and the
// DataPipeline itself. It is the one place
// that translates config.Config's sub-structs into each infrastructure
// package's own connection-config shape.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/internal/chembackend"
	"github.com/prexsyn/engine/internal/chemspace"
	"github.com/prexsyn/engine/internal/config"
	"github.com/prexsyn/engine/internal/featurizer"
	"github.com/prexsyn/engine/internal/generator"
	"github.com/prexsyn/engine/internal/infrastructure/database/postgres"
	"github.com/prexsyn/engine/internal/infrastructure/database/postgres/repositories"
	redisdb "github.com/prexsyn/engine/internal/infrastructure/database/redis"
	"github.com/prexsyn/engine/internal/infrastructure/messaging/kafka"
	"github.com/prexsyn/engine/internal/infrastructure/monitoring/logging"
	"github.com/prexsyn/engine/internal/infrastructure/monitoring/prometheus"
	miniostorage "github.com/prexsyn/engine/internal/infrastructure/storage/minio"
	grpctransport "github.com/prexsyn/engine/internal/interfaces/grpc"
	"github.com/prexsyn/engine/internal/pipeline"
	"github.com/prexsyn/engine/pkg/errors"
)

// App bundles every connection and component "prexsyn serve" needs for
// one worker process lifetime.
type App struct {
	Config *config.Config
	Logger logging.Logger

	PGPool  *pgxpool.Pool
	RunRepo repositories.RunRepository

	Redis *redisdb.Client
	Locks redisdb.LockFactory
	Cache redisdb.Cache

	Kafka *kafka.Producer

	MinIO *miniostorage.MinIOClient

	Metrics         prometheus.MetricsCollector
	GRPCMetrics     *prometheus.GRPCMetrics
	PipelineMetrics *PipelineMetrics

	// swapMu guards Backend/Space/Pipeline against concurrent access from
	// RunIngestWatcher's rebuild-and-swap path while Run's own goroutines
	// are reading them.
	swapMu   sync.Mutex
	Backend  chem.Backend
	Space    *chemspace.ChemicalSpace
	Pipeline *pipeline.Pipeline

	GRPCServer *grpctransport.Server
}

// Bootstrap connects every infrastructure dependency cfg names and
// assembles a DataPipeline ready to Start. It fails closed: a worker
// process has no degraded mode for a missing run ledger, lock provider,
// or event stream, so any connection error aborts startup.
func Bootstrap(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	pgPool, err := postgres.NewConnectionPool(cfg.RunLedger, logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "connect run ledger database")
	}
	a.PGPool = pgPool

	if cfg.RunLedger.MigrationPath != "" {
		if err := postgres.RunMigrations(runLedgerDSN(cfg.RunLedger), cfg.RunLedger.MigrationPath); err != nil {
			postgres.Close(pgPool)
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "run ledger migrations")
		}
	}
	a.RunRepo = repositories.NewPostgresRunRepo(pgPool, logger)

	redisClient, err := redisdb.NewClient(toRedisConfig(cfg.Redis), logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "connect redis")
	}
	a.Redis = redisClient
	a.Locks = redisdb.NewLockFactory(redisClient, logger)
	a.Cache = redisdb.NewRedisCache(redisClient, logger,
		redisdb.WithPrefix(cfg.Redis.KeyPrefix),
		redisdb.WithDefaultTTL(cfg.Redis.DefaultTTL))

	producer, err := kafka.NewProducer(toProducerConfig(cfg.Kafka), logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "connect kafka producer")
	}
	a.Kafka = producer

	minioClient, err := miniostorage.NewMinIOClient(toMinIOConfig(cfg.MinIO), logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "connect minio")
	}
	a.MinIO = minioClient

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "prexsyn",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create metrics collector")
	}
	a.Metrics = collector
	a.GRPCMetrics = prometheus.NewGRPCMetrics(collector)
	a.PipelineMetrics = registerPipelineMetrics(collector)

	a.Backend = chembackend.New()
	pickler, ok := a.Backend.(chem.Pickler)
	if !ok {
		return nil, errors.New(errors.CodeNotImplemented, "configured backend does not implement pickling required to load a cache")
	}

	space, err := LoadChemicalSpace(ctx, cfg.ChemSpace.CacheDir, a.Backend, pickler)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIOError, "load chemical space cache")
	}
	a.Space = space

	featurizers := featurizer.NewSet(
		featurizer.NewTokenSequenceFeaturizer(featurizer.DefaultTokenSequenceOption(), uint64(cfg.Pipeline.BaseSeed)),
		featurizer.NewProductFingerprintFeaturizer(featurizer.FingerprintOption{
			Name: "product_fingerprint",
			Kind: "morgan",
			Bits: 2048,
		}, a.Backend, uint64(cfg.Pipeline.BaseSeed)),
	)

	pl, err := pipeline.New(pipeline.Config{
		NumWorkers: cfg.Pipeline.NumWorkers,
		Capacity:   cfg.Pipeline.BufferCapacity,
		Space:      space,
		Backend:    a.Backend,
		GeneratorOption: generator.Option{
			NumReactionsCutoff:    cfg.Pipeline.NumReactionsCutoff,
			NumProductAtomsCutoff: cfg.Pipeline.NumProductAtomsCutoff,
		},
		Featurizers: featurizers,
		BaseSeed:    uint64(cfg.Pipeline.BaseSeed),
	}, logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "construct pipeline")
	}
	a.Pipeline = pl

	grpcServer, err := grpctransport.NewServer(&cfg.GRPC,
		grpctransport.WithLogger(logger),
		grpctransport.WithMetrics(a.GRPCMetrics))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create grpc server")
	}
	a.GRPCServer = grpcServer

	return a, nil
}

// Close releases every connection Bootstrap opened, in roughly reverse
// acquisition order. It is safe to call on a partially-built App.
func (a *App) Close() {
	if a.Kafka != nil {
		if err := a.Kafka.Close(); err != nil && a.Logger != nil {
			a.Logger.Warn("kafka producer close failed", logging.Err(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil && a.Logger != nil {
			a.Logger.Warn("redis client close failed", logging.Err(err))
		}
	}
	if a.PGPool != nil {
		postgres.Close(a.PGPool)
	}
}

func runLedgerDSN(cfg config.RunLedgerConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode)
}

func toRedisConfig(cfg config.RedisConfig) *redisdb.RedisConfig {
	return &redisdb.RedisConfig{
		Mode:         "standalone",
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

func toProducerConfig(cfg config.KafkaConfig) kafka.ProducerConfig {
	return kafka.ProducerConfig{
		Brokers:    cfg.Brokers,
		MaxRetries: cfg.ProducerRetries,
		BatchSize:  cfg.BatchSize,
	}
}

func toMinIOConfig(cfg config.MinIOConfig) *miniostorage.MinIOConfig {
	return &miniostorage.MinIOConfig{
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKey,
		SecretAccessKey: cfg.SecretKey,
		UseSSL:          cfg.UseSSL,
		DefaultBucket:   cfg.Bucket,
		PresignExpiry:   cfg.PresignExpiry,
	}
}
