// Package dep resolves per-sentence dependency heads into Pointing edges.
package dep

import (
	"fmt"

	"github.com/annoweave/annoweave/core/errors"
	"github.com/annoweave/annoweave/core/graph"
)

// Relation type for dependency edges.
const TypeDep = "dep"

// Label name for the dependency relation annotation.
const LabelDeprel = "deprel"

// HeadRoot marks the sentence root (no incoming edge).
const HeadRoot = 0

// HeadNone marks a token without a head relation (e.g. a non-numeric HEAD
// column).
const HeadNone = -1

// Dependency is one token's head reference within its sentence.
type Dependency struct {
	// Head is the 1-based index of the governing token, HeadRoot for the
	// sentence root, or HeadNone when no relation applies.
	Head int
	// Deprel is the relation name attached to the edge.
	Deprel string
}

// ResolveSentence emits one Pointing edge per dependent token, from its
// head's node to the token itself. Head indices resolve within the sentence
// only; an index outside [0, len(tokens)] is a fatal format error.
func ResolveSentence(u *graph.Update, d *graph.Document, tokens []graph.NodeID, deps []Dependency, layer string) error {
	if len(tokens) != len(deps) {
		return errors.NewImport("dep", d.Path,
			fmt.Sprintf("sentence has %d tokens but %d head entries", len(tokens), len(deps)))
	}
	for i, dp := range deps {
		if dp.Head == HeadNone || dp.Head == HeadRoot {
			continue
		}
		if dp.Head < 0 || dp.Head > len(tokens) {
			return errors.NewImport("dep", d.Path,
				fmt.Sprintf("head index %d of token %d is outside the sentence (length %d)", dp.Head, i+1, len(tokens)))
		}
		head := tokens[dp.Head-1]
		graph.AddPointingRelation(u, head, tokens[i], TypeDep, layer, layer, LabelDeprel, dp.Deprel)
	}
	return nil
}
