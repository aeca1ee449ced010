package tree

import (
	"strings"
	"testing"

	"github.com/annoweave/annoweave/core/graph"
)

func buildGraph(t *testing.T, src string, opts Options) *graph.Update {
	t.Helper()
	u := graph.NewUpdate()
	d := graph.NewDocument("corpus/doc1")
	if err := BuildDocument(u, d, src, opts); err != nil {
		t.Fatalf("BuildDocument: %v", err)
	}
	return u
}

func TestBuildDocument(t *testing.T) {
	u := buildGraph(t, "(S (NP (DT The) (NN dog)) (VP (VBZ barks)))", Options{})

	var structs, tokens []string
	for _, ev := range u.Events() {
		switch {
		case ev.Kind == graph.EventAddNode && strings.Contains(ev.Node, "#sStruct"):
			structs = append(structs, ev.Node)
		case ev.Kind == graph.EventAddNode && strings.Contains(ev.Node, "#t"):
			tokens = append(tokens, ev.Node)
		}
	}
	// 3 pre-terminals (DT, NN, VBZ) plus 3 phrases (NP, VP, S).
	if len(structs) != 6 {
		t.Errorf("structure nodes = %d, want 6", len(structs))
	}
	if len(tokens) != 3 {
		t.Fatalf("tokens = %d, want 3", len(tokens))
	}

	dominanceParents := make(map[string][]string)
	dominanceChildren := make(map[string][]string)
	coverage := make(map[string][]string)
	for _, ev := range u.Events() {
		if ev.Kind != graph.EventAddEdge {
			continue
		}
		switch ev.Component {
		case graph.ComponentDominance:
			dominanceParents[ev.Target] = append(dominanceParents[ev.Target], ev.Source)
			dominanceChildren[ev.Source] = append(dominanceChildren[ev.Source], ev.Target)
		case graph.ComponentCoverage:
			coverage[ev.Source] = append(coverage[ev.Source], ev.Target)
		}
	}

	// Dominance forms a tree: no node has two parents, exactly one
	// structure node has none.
	roots := 0
	for _, id := range structs {
		switch len(dominanceParents[id]) {
		case 0:
			roots++
		case 1:
		default:
			t.Errorf("node %s has %d dominance parents", id, len(dominanceParents[id]))
		}
	}
	if roots != 1 {
		t.Errorf("dominance roots = %d, want 1", roots)
	}

	// Pre-terminals dominate exactly one token each.
	preterminals := 0
	for _, id := range structs {
		children := dominanceChildren[id]
		if len(children) == 1 && strings.Contains(children[0], "#t") {
			preterminals++
		}
	}
	if preterminals != 3 {
		t.Errorf("pre-terminal structures = %d, want 3", preterminals)
	}

	// The root's coverage set is all three leaf tokens.
	var root string
	for _, id := range structs {
		if len(dominanceParents[id]) == 0 {
			root = id
		}
	}
	rootCoverage := make(map[string]bool)
	for _, target := range coverage[root] {
		rootCoverage[target] = true
	}
	if len(rootCoverage) != 3 {
		t.Errorf("root covers %d leaves, want 3", len(rootCoverage))
	}
	for _, tok := range tokens {
		if !rootCoverage[tok] {
			t.Errorf("root does not cover %s", tok)
		}
	}

	// Ordering chain over 3 tokens has 2 edges.
	orderings := 0
	for _, ev := range u.Events() {
		if ev.Kind == graph.EventAddEdge && ev.Component == graph.ComponentOrdering {
			orderings++
		}
	}
	if orderings != 2 {
		t.Errorf("ordering edges = %d, want 2", orderings)
	}
}

func TestBuildDocumentCategoryLabels(t *testing.T) {
	u := buildGraph(t, "(S (NP (DT The)))", Options{CategoryName: "phrase"})
	want := map[string]bool{"S": false, "NP": false, "DT": false}
	for _, ev := range u.Events() {
		if ev.Kind == graph.EventAddNodeLabel && ev.Name == "phrase" {
			if _, ok := want[ev.Value]; !ok {
				t.Errorf("unexpected category %q", ev.Value)
			}
			want[ev.Value] = true
		}
	}
	for cat, seen := range want {
		if !seen {
			t.Errorf("category %q not labeled", cat)
		}
	}
}

func TestBuildDocumentEscapes(t *testing.T) {
	u := buildGraph(t, "(S (X -LRB-) (Y -RRB-))", Options{})
	got := make(map[string]bool)
	for _, ev := range u.Events() {
		if ev.Kind == graph.EventAddNodeLabel && ev.Name == graph.LabelTok {
			got[ev.Value] = true
		}
	}
	if !got["("] || !got[")"] {
		t.Errorf("escape sequences not restored: %v", got)
	}
}

func TestBuildDocumentUnbalanced(t *testing.T) {
	for _, src := range []string{"(S (NP", "(S))", "(S (NP (DT The))"} {
		u := graph.NewUpdate()
		d := graph.NewDocument("corpus/doc1")
		if err := BuildDocument(u, d, src, Options{}); err == nil {
			t.Errorf("input %q should fail to parse", src)
		}
	}
}

func TestBuildDocumentMultipleTrees(t *testing.T) {
	u := buildGraph(t, "(S (X a)) (S (Y b))", Options{})
	roots := 0
	parents := make(map[string]bool)
	for _, ev := range u.Events() {
		if ev.Kind == graph.EventAddEdge && ev.Component == graph.ComponentDominance {
			parents[ev.Target] = true
		}
	}
	for _, ev := range u.Events() {
		if ev.Kind == graph.EventAddNode && strings.Contains(ev.Node, "#sStruct") && !parents[ev.Node] {
			roots++
		}
	}
	if roots != 2 {
		t.Errorf("top-level trees = %d, want 2", roots)
	}
	// One ordering chain spans both trees: 2 tokens, 1 edge.
	orderings := 0
	for _, ev := range u.Events() {
		if ev.Kind == graph.EventAddEdge && ev.Component == graph.ComponentOrdering {
			orderings++
		}
	}
	if orderings != 1 {
		t.Errorf("ordering edges = %d, want 1", orderings)
	}
}
