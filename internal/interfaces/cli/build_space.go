package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/internal/chembackend"
	"github.com/prexsyn/engine/internal/chemspace"
	"github.com/prexsyn/engine/internal/container"
	redisdb "github.com/prexsyn/engine/internal/infrastructure/database/redis"
	"github.com/prexsyn/engine/internal/infrastructure/monitoring/logging"
	miniostorage "github.com/prexsyn/engine/internal/infrastructure/storage/minio"
	"github.com/prexsyn/engine/pkg/errors"
)

// cacheFileNames are the five files a ChemicalSpace cache directory holds,
// written/read in the fixed order chemspace.Save/AllFromCache expect.
var cacheFileNames = struct {
	PrimaryBuildingBlocks   string
	SecondaryBuildingBlocks string
	Reactions               string
	PrimaryIndex            string
	SecondaryIndex          string
}{
	PrimaryBuildingBlocks:   "primary_building_blocks.bin",
	SecondaryBuildingBlocks: "secondary_building_blocks.bin",
	Reactions:               "reactions.bin",
	PrimaryIndex:            "primary_index.bin",
	SecondaryIndex:          "secondary_index.bin",
}

// NewBuildSpaceCmd returns "prexsyn build-space": build a ChemicalSpace
// from a building-block SDF file and a reaction SMARTS file, then persist
// it to a cache directory using the five-file layout.
func NewBuildSpaceCmd() *cobra.Command {
	var (
		blocksPath          string
		reactionsPath       string
		cacheDir            string
		workers             int
		largestFragmentOnly bool
		removeHydrogens     bool
		noSecondaryBlocks   bool
		lockRebuild         bool
		pushRemote          string
	)

	cmd := &cobra.Command{
		Use:   "build-space",
		Short: "Build and cache a ChemicalSpace from building blocks and reaction SMARTS",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if lockRebuild {
				unlock, err := acquireRebuildLock(ctx, cliCtx, cacheDir)
				if err != nil {
					return err
				}
				defer unlock(ctx)
			}

			var backend chem.Backend = chembackend.New()

			blocksFile, err := os.Open(blocksPath)
			if err != nil {
				return errors.Wrap(err, errors.CodeIOError, "open building block SDF file")
			}
			defer blocksFile.Close()

			reactionsFile, err := os.Open(reactionsPath)
			if err != nil {
				return errors.Wrap(err, errors.CodeIOError, "open reaction SMARTS file")
			}
			defer reactionsFile.Close()

			sdfSource, ok := backend.(chemspace.SDFSource)
			if !ok {
				return errors.New(errors.CodeNotImplemented, "configured backend does not implement SDF reading")
			}

			option := container.BuildingBlockPreprocessingOption{
				LargestFragmentOnly: largestFragmentOnly,
				RemoveHydrogens:     removeHydrogens,
			}

			var pre container.Preprocessor
			if largestFragmentOnly || removeHydrogens {
				p, ok := backend.(container.Preprocessor)
				if !ok {
					return errors.New(errors.CodeNotImplemented, "configured backend does not implement building-block preprocessing")
				}
				pre = p
			}

			builder := chemspace.NewBuilder(backend, cliCtx.Logger)
			if _, err := builder.BuildingBlocksFromSDF(ctx, sdfSource, blocksFile, pre, option); err != nil {
				return err
			}
			if _, err := builder.ReactionsFromTXT(ctx, reactionsFile); err != nil {
				return err
			}
			if noSecondaryBlocks {
				builder.NoSecondaryBuildingBlocks()
			} else if _, err := builder.SecondaryBuildingBlocksFromSingleReaction(ctx, workers); err != nil {
				return err
			}
			if _, err := builder.BuildPrimaryIndex(ctx, workers); err != nil {
				return err
			}
			if _, err := builder.BuildSecondaryIndex(ctx, workers); err != nil {
				return err
			}

			space, err := builder.Build()
			if err != nil {
				return err
			}

			pickler, ok := backend.(chem.Pickler)
			if !ok {
				return errors.New(errors.CodeNotImplemented, "configured backend does not implement pickling required for cache persistence")
			}
			if err := saveChemicalSpace(ctx, cacheDir, space, pickler); err != nil {
				return err
			}

			if pushRemote != "" {
				if err := pushChemicalSpaceToMinIO(ctx, cliCtx, cacheDir, pushRemote); err != nil {
					return err
				}
				PrintSuccess(cmd, "chemical space cached to "+cacheDir+" and pushed to minio as "+pushRemote)
				return nil
			}

			PrintSuccess(cmd, "chemical space cached to "+cacheDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&blocksPath, "blocks", "", "path to the building-block SDF file (required)")
	cmd.Flags().StringVar(&reactionsPath, "reactions", "", "path to the reaction SMARTS file, one reaction per line (required)")
	cmd.Flags().StringVar(&cacheDir, "cache", "", "output cache directory (required)")
	cmd.Flags().IntVar(&workers, "workers", 4, "worker goroutines for index construction")
	cmd.Flags().BoolVar(&largestFragmentOnly, "largest-fragment-only", false, "keep only each building block's largest fragment")
	cmd.Flags().BoolVar(&removeHydrogens, "remove-hydrogens", false, "strip explicit hydrogens from each building block")
	cmd.Flags().BoolVar(&noSecondaryBlocks, "no-secondary-blocks", false, "skip deriving secondary building blocks from single-reactant reactions")
	cmd.Flags().BoolVar(&lockRebuild, "lock", false, "hold a Redis distributed lock on this cache directory for the duration of the build, so two processes sharing it never race")
	cmd.Flags().StringVar(&pushRemote, "push-remote", "", "after a successful local build, also upload the cache files to MinIO under chemspace/<name>/ (name given here)")
	_ = cmd.MarkFlagRequired("blocks")
	_ = cmd.MarkFlagRequired("reactions")
	_ = cmd.MarkFlagRequired("cache")

	return cmd
}

// acquireRebuildLock blocks until it holds a Redis mutex scoped to
// cacheDir, so a concurrent "build-space --lock" targeting the same
// directory from another process waits its turn instead of racing on
// the five cache files. The returned func releases the lock; callers
// must defer it even on a later error path.
func acquireRebuildLock(ctx context.Context, cliCtx *CLIContext, cacheDir string) (func(context.Context), error) {
	client, err := redisdb.NewClient(&redisdb.RedisConfig{
		Mode:         "standalone",
		Addr:         cliCtx.Config.Redis.Addr,
		Password:     cliCtx.Config.Redis.Password,
		DB:           cliCtx.Config.Redis.DB,
		PoolSize:     cliCtx.Config.Redis.PoolSize,
		MinIdleConns: cliCtx.Config.Redis.MinIdleConns,
		DialTimeout:  cliCtx.Config.Redis.DialTimeout,
		ReadTimeout:  cliCtx.Config.Redis.ReadTimeout,
		WriteTimeout: cliCtx.Config.Redis.WriteTimeout,
	}, cliCtx.Logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "connect redis for rebuild lock")
	}

	mutex := redisdb.NewLockFactory(client, cliCtx.Logger).NewMutex("chemspace-build:" + filepath.Clean(cacheDir))
	if err := mutex.Lock(ctx); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, errors.CodeConflict, "acquire chemical space rebuild lock")
	}
	cliCtx.Logger.Info("acquired chemical space rebuild lock", logging.String("cache_dir", cacheDir))

	return func(releaseCtx context.Context) {
		if err := mutex.Unlock(releaseCtx); err != nil {
			cliCtx.Logger.Warn("failed to release chemical space rebuild lock", logging.Err(err))
		}
		_ = client.Close()
	}, nil
}

// pushChemicalSpaceToMinIO uploads the five cache files already written
// to cacheDir as objects under "chemspace/<name>/", the alternate
// object-storage-backed persistence target for deployments where the
// cache directory must be shared across machines.
func pushChemicalSpaceToMinIO(ctx context.Context, cliCtx *CLIContext, cacheDir, name string) error {
	client, err := miniostorage.NewMinIOClient(&miniostorage.MinIOConfig{
		Endpoint:        cliCtx.Config.MinIO.Endpoint,
		AccessKeyID:     cliCtx.Config.MinIO.AccessKey,
		SecretAccessKey: cliCtx.Config.MinIO.SecretKey,
		UseSSL:          cliCtx.Config.MinIO.UseSSL,
		DefaultBucket:   cliCtx.Config.MinIO.Bucket,
		PresignExpiry:   cliCtx.Config.MinIO.PresignExpiry,
	}, cliCtx.Logger)
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "connect minio")
	}

	repo := miniostorage.NewMinIORepository(client, cliCtx.Logger)
	for _, filename := range []string{
		cacheFileNames.PrimaryBuildingBlocks,
		cacheFileNames.SecondaryBuildingBlocks,
		cacheFileNames.Reactions,
		cacheFileNames.PrimaryIndex,
		cacheFileNames.SecondaryIndex,
	} {
		data, err := os.ReadFile(filepath.Join(cacheDir, filename))
		if err != nil {
			return errors.Wrap(err, errors.CodeIOError, "read cache file "+filename+" for upload")
		}
		_, err = repo.Upload(ctx, &miniostorage.UploadRequest{
			Bucket:      cliCtx.Config.MinIO.Bucket,
			ObjectKey:   miniostorage.BuildChemSpaceObjectKey(name, filename),
			Data:        data,
			ContentType: "application/octet-stream",
		})
		if err != nil {
			return errors.Wrap(err, errors.CodeStorageError, "upload cache file "+filename)
		}
	}
	return nil
}

// saveChemicalSpace creates cacheDir if needed and writes the five cache
// files chemspace.ChemicalSpace.Save expects, in order.
func saveChemicalSpace(ctx context.Context, cacheDir string, space *chemspace.ChemicalSpace, pickler chem.Pickler) error {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return errors.Wrap(err, errors.CodeIOError, "create cache directory")
	}

	open := func(name string) (*os.File, error) {
		f, err := os.Create(filepath.Join(cacheDir, name))
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeIOError, "create cache file "+name)
		}
		return f, nil
	}

	primary, err := open(cacheFileNames.PrimaryBuildingBlocks)
	if err != nil {
		return err
	}
	defer primary.Close()
	secondary, err := open(cacheFileNames.SecondaryBuildingBlocks)
	if err != nil {
		return err
	}
	defer secondary.Close()
	reactions, err := open(cacheFileNames.Reactions)
	if err != nil {
		return err
	}
	defer reactions.Close()
	primaryIdx, err := open(cacheFileNames.PrimaryIndex)
	if err != nil {
		return err
	}
	defer primaryIdx.Close()
	secondaryIdx, err := open(cacheFileNames.SecondaryIndex)
	if err != nil {
		return err
	}
	defer secondaryIdx.Close()

	return space.Save(ctx, chemspace.CacheWriters{
		PrimaryBuildingBlocks:   primary,
		SecondaryBuildingBlocks: secondary,
		Reactions:               reactions,
		PrimaryIndex:            primaryIdx,
		SecondaryIndex:          secondaryIdx,
	}, pickler)
}

// loadChemicalSpace opens the five cache files in cacheDir and builds a
// ChemicalSpace from them, the read-side counterpart of saveChemicalSpace.
func loadChemicalSpace(ctx context.Context, cacheDir string, backend chem.Backend, pickler chem.Pickler) (*chemspace.ChemicalSpace, error) {
	open := func(name string) (*os.File, error) {
		f, err := os.Open(filepath.Join(cacheDir, name))
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeIOError, "open cache file "+name)
		}
		return f, nil
	}

	primary, err := open(cacheFileNames.PrimaryBuildingBlocks)
	if err != nil {
		return nil, err
	}
	defer primary.Close()
	secondary, err := open(cacheFileNames.SecondaryBuildingBlocks)
	if err != nil {
		return nil, err
	}
	defer secondary.Close()
	reactions, err := open(cacheFileNames.Reactions)
	if err != nil {
		return nil, err
	}
	defer reactions.Close()
	primaryIdx, err := open(cacheFileNames.PrimaryIndex)
	if err != nil {
		return nil, err
	}
	defer primaryIdx.Close()
	secondaryIdx, err := open(cacheFileNames.SecondaryIndex)
	if err != nil {
		return nil, err
	}
	defer secondaryIdx.Close()

	builder, err := chemspace.NewBuilder(backend, nil).AllFromCache(ctx, chemspace.CacheFiles{
		PrimaryBuildingBlocks:   primary,
		SecondaryBuildingBlocks: secondary,
		Reactions:               reactions,
		PrimaryIndex:            primaryIdx,
		SecondaryIndex:          secondaryIdx,
	}, pickler)
	if err != nil {
		return nil, err
	}
	return builder.Build()
}
