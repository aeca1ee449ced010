package dep

import (
	"testing"

	"github.com/annoweave/annoweave/core/graph"
)

func sentence(d *graph.Document, n int) []graph.NodeID {
	out := make([]graph.NodeID, n)
	for i := range out {
		out[i] = d.NextToken()
	}
	return out
}

func TestResolveSentence(t *testing.T) {
	u := graph.NewUpdate()
	d := graph.NewDocument("corpus/doc1")
	tokens := sentence(d, 3)
	deps := []Dependency{
		{Head: 2, Deprel: "nsubj"},
		{Head: HeadRoot, Deprel: "root"},
		{Head: 2, Deprel: "obj"},
	}
	if err := ResolveSentence(u, d, tokens, deps, "syntax"); err != nil {
		t.Fatalf("ResolveSentence: %v", err)
	}

	var edges []graph.Event
	for _, ev := range u.Events() {
		if ev.Kind == graph.EventAddEdge && ev.Component == graph.ComponentPointing {
			edges = append(edges, ev)
		}
	}
	// Heads [2,0,2]: two edges, both from token 2, none into it.
	if len(edges) != 2 {
		t.Fatalf("pointing edges = %d, want 2", len(edges))
	}
	head := tokens[1].String()
	for _, ev := range edges {
		if ev.Source != head {
			t.Errorf("edge source = %s, want %s", ev.Source, head)
		}
		if ev.Target == head {
			t.Errorf("root token %s must not receive an edge", head)
		}
		if ev.ComponentName != TypeDep {
			t.Errorf("edge type = %q, want %q", ev.ComponentName, TypeDep)
		}
	}

	deprels := make(map[string]string)
	for _, ev := range u.Events() {
		if ev.Kind == graph.EventAddEdgeLabel && ev.Name == LabelDeprel {
			deprels[ev.Target] = ev.Value
		}
	}
	if deprels[tokens[0].String()] != "nsubj" || deprels[tokens[2].String()] != "obj" {
		t.Errorf("deprel labels = %v", deprels)
	}
}

func TestResolveSentenceHeadNone(t *testing.T) {
	u := graph.NewUpdate()
	d := graph.NewDocument("corpus/doc1")
	tokens := sentence(d, 2)
	deps := []Dependency{{Head: HeadNone}, {Head: 1, Deprel: "obj"}}
	if err := ResolveSentence(u, d, tokens, deps, ""); err != nil {
		t.Fatalf("ResolveSentence: %v", err)
	}
	edges := 0
	for _, ev := range u.Events() {
		if ev.Kind == graph.EventAddEdge && ev.Component == graph.ComponentPointing {
			edges++
		}
	}
	if edges != 1 {
		t.Errorf("pointing edges = %d, want 1", edges)
	}
}

func TestResolveSentenceHeadOutOfRange(t *testing.T) {
	u := graph.NewUpdate()
	d := graph.NewDocument("corpus/doc1")
	tokens := sentence(d, 2)
	for _, head := range []int{3, -2} {
		deps := []Dependency{{Head: head}, {Head: HeadRoot}}
		if err := ResolveSentence(u, d, tokens, deps, ""); err == nil {
			t.Errorf("head %d should be rejected", head)
		}
	}
}

func TestResolveSentenceLengthMismatch(t *testing.T) {
	u := graph.NewUpdate()
	d := graph.NewDocument("corpus/doc1")
	tokens := sentence(d, 2)
	if err := ResolveSentence(u, d, tokens, []Dependency{{Head: HeadRoot}}, ""); err == nil {
		t.Error("token/head length mismatch should be rejected")
	}
}
