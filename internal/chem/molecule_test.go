package chem_test

import (
	"testing"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/stretchr/testify/assert"
)

func TestMolecule_WithAnnotation_DoesNotMutateReceiver(t *testing.T) {
	m := chem.NewMolecule("payload-a")
	stamped := m.WithAnnotation(chem.AnnotationBuildingBlockIndex, 7)

	_, ok := m.Annotation(chem.AnnotationBuildingBlockIndex)
	assert.False(t, ok, "original molecule must remain unannotated")

	v, ok := stamped.Annotation(chem.AnnotationBuildingBlockIndex)
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestMolecule_WithAnnotation_PreservesExistingKeys(t *testing.T) {
	m := chem.NewMolecule("payload-b").
		WithAnnotation(chem.AnnotationOriginalIndex, 3).
		WithAnnotation(chem.AnnotationBuildingBlockIndex, 1)

	orig, ok := m.Annotation(chem.AnnotationOriginalIndex)
	assert.True(t, ok)
	assert.Equal(t, 3, orig)

	bb, ok := m.Annotation(chem.AnnotationBuildingBlockIndex)
	assert.True(t, ok)
	assert.Equal(t, 1, bb)
}

func TestMolecule_Equal_ComparesPayloadIdentity(t *testing.T) {
	payload := "shared-payload"
	a := chem.NewMolecule(payload)
	b := chem.NewMolecule(payload).WithAnnotation(chem.AnnotationOriginalIndex, 99)

	assert.True(t, a.Equal(b), "annotation differences must not affect identity")
	assert.False(t, a.Equal(chem.NewMolecule("other-payload")))
}

func TestMolSet_Contains(t *testing.T) {
	payload := "x"
	ms := chem.MolSet{chem.NewMolecule(payload)}

	assert.True(t, ms.Contains(chem.NewMolecule(payload)))
	assert.False(t, ms.Contains(chem.NewMolecule("y")))
}

func TestMolSet_Clone_IsIndependentSlice(t *testing.T) {
	ms := chem.MolSet{chem.NewMolecule("a"), chem.NewMolecule("b")}
	clone := ms.Clone()

	clone[0] = chem.NewMolecule("replaced")

	assert.True(t, ms[0].Equal(chem.NewMolecule("a")), "clone must not alias the backing array")
	assert.Equal(t, 2, len(clone))
}

func TestReaction_NumReactantSlotsAndPattern(t *testing.T) {
	p0 := chem.NewMolecule("pattern-0")
	p1 := chem.NewMolecule("pattern-1")
	r := chem.NewReaction("reaction-payload", []chem.Molecule{p0, p1})

	assert.Equal(t, 2, r.NumReactantSlots())
	assert.True(t, r.ReactantPattern(0).Equal(p0))
	assert.True(t, r.ReactantPattern(1).Equal(p1))
}

func TestReaction_WithIndex(t *testing.T) {
	r := chem.NewReaction("payload", []chem.Molecule{chem.NewMolecule("p")})

	_, ok := r.Index()
	assert.False(t, ok, "freshly constructed reaction has no stamped index")

	stamped := r.WithIndex(4)
	idx, ok := stamped.Index()
	assert.True(t, ok)
	assert.Equal(t, 4, idx)

	_, ok = r.Index()
	assert.False(t, ok, "WithIndex must not mutate the receiver")
}
