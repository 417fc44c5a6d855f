package pipeline_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prexsyn/engine/internal/buffer"
	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/internal/chemspace"
	"github.com/prexsyn/engine/internal/container"
	"github.com/prexsyn/engine/internal/featurizer"
	"github.com/prexsyn/engine/internal/generator"
	"github.com/prexsyn/engine/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// growBackend is a minimal fake chem.Backend: molecules are plain strings,
// the single reaction has one reactant slot and appends "x" to the
// payload, so heavy-atom count (string length) grows by one per step.
type growBackend struct{}

func (growBackend) ParseSMILES(ctx context.Context, smiles string) (chem.Molecule, error) {
	return chem.NewMolecule(smiles), nil
}

func (growBackend) ParseReactionSMARTS(ctx context.Context, smarts string) (chem.Reaction, error) {
	return chem.NewReaction(smarts, []chem.Molecule{chem.NewMolecule("*")}), nil
}

func (growBackend) Sanitize(ctx context.Context, m chem.Molecule) (chem.Molecule, bool, error) {
	return m, true, nil
}

func (growBackend) SubstructureMatch(ctx context.Context, m, pattern chem.Molecule) (bool, error) {
	return true, nil
}

func (growBackend) ApplyReaction(ctx context.Context, r chem.Reaction, reactants []chem.Molecule) ([][]chem.Molecule, error) {
	return [][]chem.Molecule{{chem.NewMolecule(fmt.Sprint(reactants[0].Payload) + "x")}}, nil
}

func (growBackend) NumHeavyAtoms(m chem.Molecule) int { return len(fmt.Sprint(m.Payload)) }

func (growBackend) Fingerprint(ctx context.Context, m chem.Molecule, kind string, bits int) ([]byte, error) {
	return nil, nil
}

func (growBackend) PharmacophoreFeatures(ctx context.Context, m chem.Molecule, kind string) ([]float64, error) {
	return nil, nil
}

type testPickler struct{}

func (testPickler) PickleMolecule(ctx context.Context, m chem.Molecule) ([]byte, error) {
	orig, _ := m.Annotation(chem.AnnotationOriginalIndex)
	return []byte(fmt.Sprintf("%v|%d", m.Payload, orig)), nil
}

func (testPickler) UnpickleMolecule(ctx context.Context, data []byte) (chem.Molecule, error) {
	parts := strings.SplitN(string(data), "|", 2)
	return chem.NewMolecule(parts[0]).WithAnnotation(chem.AnnotationOriginalIndex, atoiOrZero(parts[1])), nil
}

func (testPickler) PickleReaction(ctx context.Context, r chem.Reaction) ([]byte, error) {
	idx, _ := r.Index()
	return []byte(fmt.Sprintf("%v|%d", r.Payload, idx)), nil
}

func (testPickler) UnpickleReaction(ctx context.Context, data []byte) (chem.Reaction, error) {
	parts := strings.SplitN(string(data), "|", 2)
	return chem.NewReaction(parts[0], []chem.Molecule{chem.NewMolecule("*")}).WithIndex(atoiOrZero(parts[1])), nil
}

func atoiOrZero(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func buildGrowSpace(t *testing.T) *chemspace.ChemicalSpace {
	t.Helper()
	ctx := context.Background()
	backend := growBackend{}

	raw := []chem.Molecule{chem.NewMolecule("a")}
	list, err := container.NewBuildingBlockList(ctx, nil, raw, container.BuildingBlockPreprocessingOption{}, nil)
	require.NoError(t, err)

	var cacheBuf strings.Builder
	require.NoError(t, list.Save(ctx, &cacheBuf, testPickler{}))

	b := chemspace.NewBuilder(backend, nil)
	b, err = b.BuildingBlocksFromCache(ctx, strings.NewReader(cacheBuf.String()), testPickler{})
	require.NoError(t, err)
	b, err = b.ReactionsFromTXT(ctx, strings.NewReader("rxn\n"))
	require.NoError(t, err)
	b, err = b.SecondaryBuildingBlocksFromSingleReaction(ctx, 1)
	require.NoError(t, err)
	b, err = b.BuildPrimaryIndex(ctx, 1)
	require.NoError(t, err)
	b, err = b.BuildSecondaryIndex(ctx, 1)
	require.NoError(t, err)

	cs, err := b.Build()
	require.NoError(t, err)
	return cs
}

// countFeaturizer writes a single scalar recording how many reactions the
// synthesis it was given has applied so far.
type countFeaturizer struct{}

func (countFeaturizer) Apply(ctx context.Context, syn *chem.Synthesis, b featurizer.Builder) error {
	return b.AddScalarInt64("num_reactions", int64(syn.CountReactions()))
}

func testConfig(t *testing.T, workers, capacity int) pipeline.Config {
	return pipeline.Config{
		NumWorkers:      workers,
		Capacity:        capacity,
		Space:           buildGrowSpace(t),
		Backend:         growBackend{},
		GeneratorOption: generator.DefaultOption(),
		Featurizers:     featurizer.NewSet(countFeaturizer{}),
		BaseSeed:        1,
	}
}

func TestPipeline_StartReadStop_ProducesCommittedEntries(t *testing.T) {
	p, err := pipeline.New(testConfig(t, 2, 4), nil)
	require.NoError(t, err)
	require.NoError(t, p.Start())
	defer p.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var entries []buffer.ReadEntry
	require.NoError(t, p.Read(ctx, 3, func(e []buffer.ReadEntry) {
		entries = append(entries, e...)
	}))

	require.Len(t, entries, 1)
	assert.Equal(t, "num_reactions", entries[0].Name)
	assert.Len(t, entries[0].Span1.([]int64), 3)
}

func TestPipeline_ConsecutiveReads_SingleWorker(t *testing.T) {
	p, err := pipeline.New(testConfig(t, 1, 16), nil)
	require.NoError(t, err)
	require.NoError(t, p.Start())
	defer p.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var first []int64
	require.NoError(t, p.Read(ctx, 5, func(e []buffer.ReadEntry) {
		first = append([]int64(nil), e[0].Span1.([]int64)...)
	}))
	// Only the batch size of each of two consecutive reads is asserted;
	// the values and their order are not checked.
	assert.Len(t, first, 5)

	var second []int64
	require.NoError(t, p.Read(ctx, 5, func(e []buffer.ReadEntry) {
		second = append([]int64(nil), e[0].Span1.([]int64)...)
	}))
	assert.Len(t, second, 5)
}

func TestPipeline_Start_RejectsSecondCall(t *testing.T) {
	p, err := pipeline.New(testConfig(t, 1, 4), nil)
	require.NoError(t, err)
	require.NoError(t, p.Start())
	defer p.Stop()
	assert.Error(t, p.Start())
}

func TestPipeline_Stop_IsIdempotentAndUnblocksBlockedProducers(t *testing.T) {
	p, err := pipeline.New(testConfig(t, 4, 1), nil)
	require.NoError(t, err)
	require.NoError(t, p.Start())

	// Give the workers a moment to fill the single-slot buffer and
	// block on empty_sem without ever being drained by a reader.
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		p.Stop()
		p.Stop() // must not panic or deadlock when called twice
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return; blocked producers were not unblocked")
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := pipeline.New(pipeline.Config{}, nil)
	assert.Error(t, err)
}
