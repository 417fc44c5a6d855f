// Package chem defines the ChemistryBackend capability boundary and the
// immutable Molecule/Reaction value handles that flow through the rest of
// the engine. No concrete cheminformatics toolkit is implemented here; any
// backend satisfying the Backend interface can drive the core.
package chem

import "context"

// Backend is the abstract cheminformatics capability the core depends on.
// A correct implementation wraps a real toolkit (RDKit, Indigo, OpenBabel,
// ...); the core never imports one directly.
type Backend interface {
	// ParseSMILES parses a SMILES string into a sanitized Molecule.
	ParseSMILES(ctx context.Context, smiles string) (Molecule, error)

	// ParseReactionSMARTS parses a reaction SMARTS string into a Reaction
	// template with its reactant slot patterns initialized.
	ParseReactionSMARTS(ctx context.Context, smarts string) (Reaction, error)

	// Sanitize re-validates and normalizes a Molecule. It reports ok=false
	// (no error) when sanitization fails for chemical reasons rather than
	// a backend malfunction.
	Sanitize(ctx context.Context, m Molecule) (out Molecule, ok bool, err error)

	// SubstructureMatch reports whether m contains the given reactant
	// pattern (itself a Molecule-shaped SMARTS fragment owned by a Reaction).
	SubstructureMatch(ctx context.Context, m Molecule, pattern Molecule) (bool, error)

	// ApplyReaction runs r against exactly r.NumReactantSlots() reactants in
	// positional order, returning every product group the backend yields.
	// Product group ordering and count across calls is backend-defined; the
	// core treats the result as a set.
	ApplyReaction(ctx context.Context, r Reaction, reactants []Molecule) ([][]Molecule, error)

	// NumHeavyAtoms returns the heavy (non-hydrogen) atom count of m.
	NumHeavyAtoms(m Molecule) int

	// Fingerprint computes a named fingerprint vector for m. Consumed only
	// by featurizers (C8); the core evaluator never calls it.
	Fingerprint(ctx context.Context, m Molecule, kind string, bits int) ([]byte, error)

	// PharmacophoreFeatures computes a named pharmacophore feature vector
	// for m. Consumed only by featurizers.
	PharmacophoreFeatures(ctx context.Context, m Molecule, kind string) ([]float64, error)
}

// Pickler is the serialization capability a Backend offers for its opaque
// Molecule/Reaction payloads: a backend-provided pickle per molecule,
// carrying every property the backend cares about. The core never inspects
// pickle bytes;
// it only round-trips them through cache files and PostfixNotation/Synthesis
// pickles. A Backend that never needs persistence need not implement it, but
// every cache-backed ChemicalSpace construction path requires one.
type Pickler interface {
	// PickleMolecule serializes m, including its annotation dict, such that
	// UnpickleMolecule reconstructs original_index/building_block_index
	// without the caller re-stamping them.
	PickleMolecule(ctx context.Context, m Molecule) ([]byte, error)
	UnpickleMolecule(ctx context.Context, data []byte) (Molecule, error)

	// PickleReaction serializes r, including its reaction_index annotation
	// and initialized reactant-slot matchers.
	PickleReaction(ctx context.Context, r Reaction) ([]byte, error)
	UnpickleReaction(ctx context.Context, data []byte) (Reaction, error)
}
