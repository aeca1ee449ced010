package mapper

import (
	"testing"

	"github.com/annoweave/annoweave/core/graph"
	"github.com/annoweave/annoweave/core/timeline"
)

func wordFrontier(t *testing.T, u *graph.Update, d *graph.Document) *TierTokens {
	t.Helper()
	frontier, err := MapTier(u, d, Tier{
		Name: "words",
		Intervals: []timeline.Interval{
			{Start: 0, End: 1, Value: "a"},
			{Start: 1, End: 2, Value: "b"},
			{Start: 2, End: 3, Value: "c"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("MapTier: %v", err)
	}
	return frontier
}

func TestSpanDeduplication(t *testing.T) {
	u := graph.NewUpdate()
	d := graph.NewDocument("corpus/doc1")
	dedup := NewSpanDeduplicator(wordFrontier(t, u, d))

	first, err := dedup.Add(u, d, "spk", "pos", "DET", 0, 2)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	// Slightly jittered coordinates snap to the same corrected extent and
	// must reuse the node.
	second, err := dedup.Add(u, d, "spk", "lemma", "the", 0.05, 1.95)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if first.String() != second.String() {
		t.Fatalf("duplicate extent produced two nodes: %s and %s", first, second)
	}

	spans := 0
	labels := 0
	for _, ev := range u.Events() {
		if ev.Kind == graph.EventAddNode && ev.Node == first.String() {
			spans++
		}
		if ev.Kind == graph.EventAddNodeLabel && ev.Node == first.String() {
			labels++
		}
	}
	if spans != 1 {
		t.Errorf("span node created %d times, want 1", spans)
	}
	if labels != 2 {
		t.Errorf("span carries %d labels, want 2", labels)
	}
}

func TestSpanDeduplicatorDistinctExtents(t *testing.T) {
	u := graph.NewUpdate()
	d := graph.NewDocument("corpus/doc1")
	dedup := NewSpanDeduplicator(wordFrontier(t, u, d))

	a, err := dedup.Add(u, d, "spk", "pos", "DET", 0, 1)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	b, err := dedup.Add(u, d, "spk", "pos", "NN", 1, 3)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a.String() == b.String() {
		t.Error("distinct extents must not share a node")
	}
}

func TestSpanDeduplicatorCorrectsBoundaries(t *testing.T) {
	u := graph.NewUpdate()
	d := graph.NewDocument("corpus/doc1")
	dedup := NewSpanDeduplicator(wordFrontier(t, u, d))

	id, err := dedup.Add(u, d, "spk", "phrase", "ab", 0.1, 2.1)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	covered := 0
	for _, ev := range u.Events() {
		if ev.Kind == graph.EventAddEdge && ev.Component == graph.ComponentCoverage && ev.Source == id.String() {
			covered++
		}
	}
	// Corrected to [0,2): the first two word tokens.
	if covered != 2 {
		t.Errorf("span covers %d tokens, want 2", covered)
	}
}

func TestSpanDeduplicatorUnrepairable(t *testing.T) {
	u := graph.NewUpdate()
	d := graph.NewDocument("corpus/doc1")
	// A frontier with no tokens has no governing boundaries.
	empty := &TierTokens{Name: "words"}
	dedup := NewSpanDeduplicator(empty)

	id, err := dedup.Add(u, d, "spk", "pos", "DET", 0, 1)
	if err != nil {
		t.Fatalf("unrepairable interval must not propagate: %v", err)
	}
	if !id.IsZero() {
		t.Error("skipped annotation should return the zero identifier")
	}
	if u.Len() != 0 {
		t.Errorf("skipped annotation emitted %d events", u.Len())
	}
}
