package app

import (
	"context"
	"os"
	"time"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/internal/chembackend"
	"github.com/prexsyn/engine/internal/chemspace"
	"github.com/prexsyn/engine/internal/container"
	"github.com/prexsyn/engine/internal/featurizer"
	"github.com/prexsyn/engine/internal/generator"
	"github.com/prexsyn/engine/internal/infrastructure/messaging/kafka"
	"github.com/prexsyn/engine/internal/infrastructure/monitoring/logging"
	"github.com/prexsyn/engine/internal/pipeline"
	"github.com/prexsyn/engine/pkg/errors"
	"github.com/prexsyn/engine/pkg/types/common"
)

// ingestDebounce is how long RunIngestWatcher waits after the most
// recent building_block.ingested/reaction.ingested message before
// triggering a rebuild, so a burst of ingestion events collapses into
// one rebuild instead of one per message.
const ingestDebounce = 2 * time.Second

// RunIngestWatcher subscribes to the building-block/reaction ingestion
// topics and, on each quiet period after new records arrive, rebuilds
// the ChemicalSpace from the configured SDF/SMARTS source paths and
// atomically swaps it under the running pipeline: the old Pipeline is
// stopped, a new one is constructed over the rebuilt space, and
// a.Pipeline/a.Space are replaced under a.swapMu. It blocks until ctx
// is cancelled.
//
// This is the consumer side of the alternate ingestion path: some
// external curation process publishes an ingestion event whenever it
// has written fresh content to cfg.ChemSpace.BuildingBlockSDF or
// .ReactionSMARTSPath; this watcher is the trigger that picks the new
// content up. Pipeline.Stop is a one-shot sync.Once, so a rebuild
// always constructs a fresh Pipeline rather than restarting the old one.
func (a *App) RunIngestWatcher(ctx context.Context) error {
	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:         a.Config.Kafka.Brokers,
		GroupID:         "prexsyn-ingest-watcher",
		Topics:          []string{kafka.TopicBuildingBlockIngested, kafka.TopicReactionIngested},
		AutoOffsetReset: "latest",
	}, a.Logger)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "create ingestion consumer")
	}
	defer consumer.Close()

	trigger := make(chan struct{}, 1)
	notify := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	handler := func(_ context.Context, msg *common.Message) error {
		a.Logger.Debug("ingestion event received", logging.String("topic", msg.Topic))
		notify()
		return nil
	}
	if err := consumer.Subscribe(kafka.TopicBuildingBlockIngested, handler); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "subscribe building_block.ingested")
	}
	if err := consumer.Subscribe(kafka.TopicReactionIngested, handler); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "subscribe reaction.ingested")
	}

	consumerErrCh := make(chan error, 1)
	go func() { consumerErrCh <- consumer.Start(ctx) }()

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case err := <-consumerErrCh:
			if err != nil && ctx.Err() == nil {
				return errors.Wrap(err, errors.CodeInternal, "ingestion consumer stopped")
			}
			return nil
		case <-trigger:
			if timer == nil {
				timer = time.NewTimer(ingestDebounce)
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(ingestDebounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			if err := a.rebuildAndSwapSpace(ctx); err != nil {
				a.Logger.Error("chemical space rebuild from ingested content failed", logging.Err(err))
			}
		}
	}
}

// rebuildAndSwapSpace re-reads cfg.ChemSpace's SDF/SMARTS source files,
// rebuilds a fresh ChemicalSpace and a fresh Pipeline over it, stops the
// currently running Pipeline, and swaps both pointers in. Callers run
// this from RunIngestWatcher only; Run's own pipeline lifecycle is
// otherwise untouched.
func (a *App) rebuildAndSwapSpace(ctx context.Context) error {
	cfg := a.Config

	blocksFile, err := os.Open(cfg.ChemSpace.BuildingBlockSDF)
	if err != nil {
		return errors.Wrap(err, errors.CodeIOError, "open building block SDF file")
	}
	defer blocksFile.Close()

	reactionsFile, err := os.Open(cfg.ChemSpace.ReactionSMARTSPath)
	if err != nil {
		return errors.Wrap(err, errors.CodeIOError, "open reaction SMARTS file")
	}
	defer reactionsFile.Close()

	var backend chem.Backend = chembackend.New()

	sdfSource, ok := backend.(chemspace.SDFSource)
	if !ok {
		return errors.New(errors.CodeNotImplemented, "configured backend does not implement SDF reading")
	}

	builder := chemspace.NewBuilder(backend, a.Logger)
	if _, err := builder.BuildingBlocksFromSDF(ctx, sdfSource, blocksFile, nil, container.BuildingBlockPreprocessingOption{}); err != nil {
		return err
	}
	if _, err := builder.ReactionsFromTXT(ctx, reactionsFile); err != nil {
		return err
	}
	if _, err := builder.SecondaryBuildingBlocksFromSingleReaction(ctx, cfg.ChemSpace.PreprocessingWorkers); err != nil {
		return err
	}
	if _, err := builder.BuildPrimaryIndex(ctx, cfg.ChemSpace.IndexWorkers); err != nil {
		return err
	}
	if _, err := builder.BuildSecondaryIndex(ctx, cfg.ChemSpace.IndexWorkers); err != nil {
		return err
	}
	space, err := builder.Build()
	if err != nil {
		return err
	}

	featurizers := featurizer.NewSet(
		featurizer.NewTokenSequenceFeaturizer(featurizer.DefaultTokenSequenceOption(), uint64(cfg.Pipeline.BaseSeed)),
		featurizer.NewProductFingerprintFeaturizer(featurizer.FingerprintOption{
			Name: "product_fingerprint",
			Kind: "morgan",
			Bits: 2048,
		}, backend, uint64(cfg.Pipeline.BaseSeed)),
	)

	newPipeline, err := pipeline.New(pipeline.Config{
		NumWorkers: cfg.Pipeline.NumWorkers,
		Capacity:   cfg.Pipeline.BufferCapacity,
		Space:      space,
		Backend:    backend,
		GeneratorOption: generator.Option{
			NumReactionsCutoff:    cfg.Pipeline.NumReactionsCutoff,
			NumProductAtomsCutoff: cfg.Pipeline.NumProductAtomsCutoff,
		},
		Featurizers: featurizers,
		BaseSeed:    uint64(cfg.Pipeline.BaseSeed),
	}, a.Logger)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidParam, "construct pipeline over rebuilt chemical space")
	}
	if err := newPipeline.Start(); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "start pipeline over rebuilt chemical space")
	}

	a.swapMu.Lock()
	oldPipeline := a.Pipeline
	a.Backend = backend
	a.Space = space
	a.Pipeline = newPipeline
	a.swapMu.Unlock()

	oldPipeline.Stop()

	a.Logger.Info("chemical space rebuilt and swapped in from ingested content",
		logging.String("building_block_sdf", cfg.ChemSpace.BuildingBlockSDF),
		logging.String("reaction_smarts_path", cfg.ChemSpace.ReactionSMARTSPath))

	env, envErr := kafka.NewEventEnvelope(kafka.TopicChemSpaceCacheRebuilt, "prexsyn-ingest-watcher", kafka.ChemSpaceCacheRebuiltPayload{
		CacheDir:  cfg.ChemSpace.CacheDir,
		RebuiltAt: time.Now(),
	})
	if envErr != nil {
		a.Logger.Warn("failed to build chemspace rebuild event envelope", logging.Err(envErr))
		return nil
	}
	msg, msgErr := env.ToMessage(kafka.TopicChemSpaceCacheRebuilt)
	if msgErr != nil {
		a.Logger.Warn("failed to encode chemspace rebuild event", logging.Err(msgErr))
		return nil
	}
	if pubErr := a.Kafka.Publish(ctx, msg); pubErr != nil {
		a.Logger.Warn("failed to publish chemspace rebuild event", logging.Err(pubErr))
	}

	return nil
}
