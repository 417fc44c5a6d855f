package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/internal/chemspace"
	"github.com/prexsyn/engine/pkg/errors"
)

// cacheFileNames are the five files a ChemicalSpace cache directory
// holds, read in the fixed order chemspace.AllFromCache expects.
// This mirrors internal/interfaces/cli's build-space/generate cache
// layout so the worker process starts from the same caches those
// commands produce.
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

// LoadChemicalSpace opens the five-file cache directory and builds a
// ChemicalSpace from it.
func LoadChemicalSpace(ctx context.Context, cacheDir string, backend chem.Backend, pickler chem.Pickler) (*chemspace.ChemicalSpace, error) {
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
