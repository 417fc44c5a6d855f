// Package chembackend provides the pluggable-extension seam for
// chem.Backend. The core engine (internal/chem, internal/chemspace,
// internal/generator, internal/pipeline) never imports a concrete
// cheminformatics toolkit — that boundary is deliberate; real RDKit/Indigo/
// OpenBabel wiring is out of scope. Unimplemented is the
// placeholder every entrypoint (cmd/prexsyn, internal/interfaces/cli) wires
// in by default so the rest of the binary — config, logging, infra
// connections, admin gRPC, CLI flag handling — builds and runs end to end;
// swap it for a real Backend before running an actual generation workload.
package chembackend

import (
	"context"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/pkg/errors"
)

// Unimplemented satisfies chem.Backend and chem.Pickler by reporting
// CodeNotImplemented on every call. It lets the engine's ambient stack
// (config loading, CLI parsing, pipeline wiring, admin gRPC transport) be
// exercised without a real toolkit present.
type Unimplemented struct{}

// New returns an Unimplemented backend.
func New() Unimplemented { return Unimplemented{} }

func notImplemented(op string) error {
	return errors.New(errors.CodeNotImplemented, "chembackend: "+op+" requires a real cheminformatics toolkit backend; none is configured")
}

func (Unimplemented) ParseSMILES(_ context.Context, _ string) (chem.Molecule, error) {
	return chem.Molecule{}, notImplemented("ParseSMILES")
}

func (Unimplemented) ParseReactionSMARTS(_ context.Context, _ string) (chem.Reaction, error) {
	return chem.Reaction{}, notImplemented("ParseReactionSMARTS")
}

func (Unimplemented) Sanitize(_ context.Context, m chem.Molecule) (chem.Molecule, bool, error) {
	return m, false, notImplemented("Sanitize")
}

func (Unimplemented) SubstructureMatch(_ context.Context, _ chem.Molecule, _ chem.Molecule) (bool, error) {
	return false, notImplemented("SubstructureMatch")
}

func (Unimplemented) ApplyReaction(_ context.Context, _ chem.Reaction, _ []chem.Molecule) ([][]chem.Molecule, error) {
	return nil, notImplemented("ApplyReaction")
}

func (Unimplemented) NumHeavyAtoms(_ chem.Molecule) int {
	return 0
}

func (Unimplemented) Fingerprint(_ context.Context, _ chem.Molecule, _ string, _ int) ([]byte, error) {
	return nil, notImplemented("Fingerprint")
}

func (Unimplemented) PharmacophoreFeatures(_ context.Context, _ chem.Molecule, _ string) ([]float64, error) {
	return nil, notImplemented("PharmacophoreFeatures")
}

func (Unimplemented) PickleMolecule(_ context.Context, _ chem.Molecule) ([]byte, error) {
	return nil, notImplemented("PickleMolecule")
}

func (Unimplemented) UnpickleMolecule(_ context.Context, _ []byte) (chem.Molecule, error) {
	return chem.Molecule{}, notImplemented("UnpickleMolecule")
}

func (Unimplemented) PickleReaction(_ context.Context, _ chem.Reaction) ([]byte, error) {
	return nil, notImplemented("PickleReaction")
}

func (Unimplemented) UnpickleReaction(_ context.Context, _ []byte) (chem.Reaction, error) {
	return chem.Reaction{}, notImplemented("UnpickleReaction")
}
