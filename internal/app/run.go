package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/prexsyn/engine/internal/buffer"
	"github.com/prexsyn/engine/internal/infrastructure/messaging/kafka"
	"github.com/prexsyn/engine/internal/infrastructure/monitoring/logging"
	"github.com/prexsyn/engine/pkg/errors"
)

// consumerBatchSize is how many committed syntheses Run's background
// consumer drains per Read call. It exists only to keep the pipeline
// flowing and its metrics/ledger up to date when "prexsyn serve" has no
// other consumer attached; a real tensor-consuming client would call
// Pipeline.Read itself instead.
const consumerBatchSize = 32

// Run starts the pipeline and the admin gRPC transport, records the run
// in the Postgres ledger, publishes lifecycle events to Kafka, and
// blocks until ctx is cancelled. On return every component has been
// stopped; callers still must call Close to release infra connections.
func (a *App) Run(ctx context.Context) error {
	log := a.Logger

	runID, err := a.RunRepo.StartRun(ctx, a.Config.Pipeline.NumWorkers, a.Config.Pipeline.BaseSeed)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "start run ledger row")
	}
	startedAt := time.Now()

	a.publishLifecycleEvent(ctx, kafka.TopicPipelineStarted, kafka.PipelineStartedPayload{
		RunID:      runID.String(),
		NumWorkers: a.Config.Pipeline.NumWorkers,
		BaseSeed:   a.Config.Pipeline.BaseSeed,
		StartedAt:  startedAt,
	})

	if err := a.Pipeline.Start(); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "start pipeline")
	}
	log.Info("pipeline started",
		logging.Int("num_workers", a.Config.Pipeline.NumWorkers),
		logging.String("run_id", runID.String()))

	grpcErrCh := make(chan error, 1)
	go func() {
		grpcErrCh <- a.GRPCServer.Start()
	}()

	consumerDone := make(chan struct{})
	go a.runConsumer(ctx, runID, consumerDone)

	terminalReason := "stopped"
	select {
	case <-ctx.Done():
	case err := <-grpcErrCh:
		if err != nil {
			log.Error("grpc server exited unexpectedly", logging.Err(err))
			terminalReason = "crashed"
		}
	}

	a.Pipeline.Stop()
	<-consumerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.GRPCServer.Stop(shutdownCtx); err != nil {
		log.Warn("grpc server stop error", logging.Err(err))
	}

	if err := a.RunRepo.StopRun(context.Background(), runID, terminalReason); err != nil {
		log.Warn("failed to close run ledger row", logging.Err(err))
	}
	a.publishLifecycleEvent(context.Background(), kafka.TopicPipelineStopped, kafka.PipelineStoppedPayload{
		RunID:          runID.String(),
		TerminalReason: terminalReason,
		StoppedAt:      time.Now(),
	})

	return nil
}

// runConsumer drains the pipeline's ring buffer in fixed-size batches
// for as long as ctx is live, recording each drained batch on the run
// ledger, the pipeline-shaped Prometheus series, and the Kafka
// telemetry stream. It is the worker process's only built-in consumer;
// a real tensor-consuming client bypasses it and calls Pipeline.Read
// directly.
func (a *App) runConsumer(ctx context.Context, runID uuid.UUID, done chan<- struct{}) {
	defer close(done)
	log := a.Logger

	for {
		if ctx.Err() != nil {
			return
		}

		start := time.Now()
		err := a.Pipeline.Read(ctx, consumerBatchSize, func(_ []buffer.ReadEntry) {
			a.PipelineMetrics.SynthesesGenerated.Add(float64(consumerBatchSize))
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Debug("consumer read failed", logging.Err(err))
			continue
		}
		a.PipelineMetrics.ConsumerBatchLatency.Observe(time.Since(start).Seconds())
		a.PipelineMetrics.BufferOccupancy.Set(float64(a.Pipeline.Occupancy()))
		a.PipelineMetrics.BufferCapacity.Set(float64(a.Config.Pipeline.BufferCapacity))

		if err := a.RunRepo.RecordBatch(ctx, runID); err != nil {
			log.Debug("failed to record batch on run ledger", logging.Err(err))
		}
		a.publishLifecycleEvent(ctx, kafka.TopicPipelineBatchCommitted, kafka.PipelineBatchCommittedPayload{
			RunID:       runID.String(),
			BatchSize:   consumerBatchSize,
			Occupancy:   a.Pipeline.Occupancy(),
			CommittedAt: time.Now(),
		})
	}
}

// publishLifecycleEvent wraps payload in a kafka.EventEnvelope and
// publishes it to topic, logging (not failing the caller) on error:
// the event stream is a telemetry convenience, not the run ledger's
// system of record.
func (a *App) publishLifecycleEvent(ctx context.Context, topic string, payload interface{}) {
	env, err := kafka.NewEventEnvelope(topic, "prexsyn-worker", payload)
	if err != nil {
		a.Logger.Warn("failed to build lifecycle event envelope", logging.Err(err))
		return
	}
	msg, err := env.ToMessage(topic)
	if err != nil {
		a.Logger.Warn("failed to encode lifecycle event", logging.Err(err))
		return
	}
	if err := a.Kafka.Publish(ctx, msg); err != nil {
		a.Logger.Warn("failed to publish lifecycle event",
			logging.String("topic", topic), logging.Err(err))
	}
}
