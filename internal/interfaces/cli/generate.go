package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prexsyn/engine/internal/chem"
	"github.com/prexsyn/engine/internal/chembackend"
	"github.com/prexsyn/engine/internal/generator"
	"github.com/prexsyn/engine/pkg/errors"
)

// generateResult is the text/JSON/table-printable output of one "prexsyn
// generate" run: a batch of previewed synthesis programs.
type generateResult struct {
	Programs []string `json:"programs"`
}

func (r generateResult) TableHeaders() []string { return []string{"#", "Program"} }

func (r generateResult) TableRows() [][]string {
	rows := make([][]string, len(r.Programs))
	for i, p := range r.Programs {
		rows[i] = []string{fmt.Sprintf("%d", i+1), p}
	}
	return rows
}

// NewGenerateCmd returns "prexsyn generate": random-walk a cached
// ChemicalSpace with a standalone generator.Generator and print a sample
// of generated synthesis programs to stdout, for quickly inspecting a
// cache without standing up the full worker pipeline and its
// tensor-consumer API.
func NewGenerateCmd() *cobra.Command {
	var (
		cacheDir    string
		count       int
		seed        int64
		reactionCut int
		atomCut     int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a preview batch of synthesis programs from a cached ChemicalSpace",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var backend chem.Backend = chembackend.New()
			pickler, ok := backend.(chem.Pickler)
			if !ok {
				return errors.New(errors.CodeNotImplemented, "configured backend does not implement pickling required to load a cache")
			}

			space, err := loadChemicalSpace(ctx, cacheDir, backend, pickler)
			if err != nil {
				return err
			}

			gen := generator.New(space, backend, generator.Option{
				NumReactionsCutoff:    reactionCut,
				NumProductAtomsCutoff: atomCut,
			}, uint64(seed))

			result := generateResult{Programs: make([]string, 0, count)}
			for i := 0; i < count; i++ {
				syn, err := gen.Next(ctx)
				if err != nil {
					return err
				}
				result.Programs = append(result.Programs, renderPostfix(syn))
			}

			return PrintResult(cmd, result)
		},
	}

	cmd.Flags().StringVar(&cacheDir, "cache", "", "ChemicalSpace cache directory to generate from (required)")
	cmd.Flags().IntVar(&count, "count", 10, "number of synthesis programs to generate")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed")
	cmd.Flags().IntVar(&reactionCut, "max-reactions", generator.DefaultOption().NumReactionsCutoff, "reset cutoff: max reactions per synthesis")
	cmd.Flags().IntVar(&atomCut, "max-atoms", generator.DefaultOption().NumProductAtomsCutoff, "reset cutoff: max product heavy atoms")
	_ = cmd.MarkFlagRequired("cache")

	return cmd
}

// renderPostfix renders a Synthesis's postfix notation as a compact,
// backend-agnostic trace: building blocks print their building_block_index
// (or "?" if unstamped), reactions print their reaction_index (or "?").
func renderPostfix(syn *chem.Synthesis) string {
	pf := syn.PostfixNotation()
	var sb strings.Builder
	for i := 0; i < pf.Len(); i++ {
		if i > 0 {
			sb.WriteString(" ")
		}
		tok := pf.At(i)
		switch tok.Kind {
		case chem.TokenMolecule:
			if idx, ok := tok.Molecule.Annotation(chem.AnnotationBuildingBlockIndex); ok {
				fmt.Fprintf(&sb, "BB[%d]", idx)
			} else {
				sb.WriteString("BB[?]")
			}
		case chem.TokenReaction:
			if idx, ok := tok.Reaction.Index(); ok {
				fmt.Fprintf(&sb, "RXN[%d]", idx)
			} else {
				sb.WriteString("RXN[?]")
			}
		}
	}
	return sb.String()
}
