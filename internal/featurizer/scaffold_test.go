package featurizer_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/internal/featurizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// taggingFingerprintBackend fingerprints by writing the molecule payload's
// first byte as a single set bit, so the test can tell which molecule the
// featurizer actually fingerprinted.
type taggingFingerprintBackend struct {
	concatBackend
}

func (taggingFingerprintBackend) Fingerprint(ctx context.Context, m chem.Molecule, kind string, bits int) ([]byte, error) {
	payload := fmt.Sprint(m.Payload)
	if payload == "" {
		return []byte{0}, nil
	}
	return []byte{1 << uint(payload[0]%8)}, nil
}

type fixedScaffoldSource struct {
	scaffold chem.Molecule
	ok       bool
	err      error
}

func (s fixedScaffoldSource) MurckoScaffold(ctx context.Context, m chem.Molecule) (chem.Molecule, bool, error) {
	return s.scaffold, s.ok, s.err
}

func TestMurckoScaffoldFeaturizer_UsesScaffoldWhenPresent(t *testing.T) {
	backend := taggingFingerprintBackend{}
	source := fixedScaffoldSource{scaffold: chem.NewMolecule("s"), ok: true}
	f := featurizer.NewMurckoScaffoldFeaturizer(featurizer.ScaffoldOption{Name: "scaf", Bits: 8}, backend, source, 1)

	s := chem.NewSynthesis()
	s.PushMolecule(chem.NewMolecule("product"))

	b := newRecordingBuilder()
	require.NoError(t, f.Apply(context.Background(), s, b))

	wantPacked, _ := backend.Fingerprint(context.Background(), chem.NewMolecule("s"), "", 8)
	want := make([]bool, 8)
	for i := range want {
		want[i] = wantPacked[0]&(1<<uint(i)) != 0
	}
	assert.Equal(t, want, b.vectorsBool["scaf.fingerprint"])
}

func TestMurckoScaffoldFeaturizer_FallsBackToProductWhenNoScaffold(t *testing.T) {
	backend := taggingFingerprintBackend{}
	source := fixedScaffoldSource{ok: false}
	f := featurizer.NewMurckoScaffoldFeaturizer(featurizer.ScaffoldOption{Name: "scaf", Bits: 8}, backend, source, 1)

	s := chem.NewSynthesis()
	s.PushMolecule(chem.NewMolecule("product"))

	b := newRecordingBuilder()
	require.NoError(t, f.Apply(context.Background(), s, b))

	wantPacked, _ := backend.Fingerprint(context.Background(), chem.NewMolecule("product"), "", 8)
	want := make([]bool, 8)
	for i := range want {
		want[i] = wantPacked[0]&(1<<uint(i)) != 0
	}
	assert.Equal(t, want, b.vectorsBool["scaf.fingerprint"])
}
