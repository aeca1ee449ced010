package mapper

import (
	"testing"

	"github.com/annoweave/annoweave/core/graph"
	"github.com/annoweave/annoweave/core/timeline"
)

func orderingEdges(u *graph.Update, name string) []graph.Event {
	var out []graph.Event
	for _, ev := range u.Events() {
		if ev.Kind == graph.EventAddEdge && ev.Component == graph.ComponentOrdering && ev.ComponentName == name {
			out = append(out, ev)
		}
	}
	return out
}

func TestMapTierSingle(t *testing.T) {
	u := graph.NewUpdate()
	d := graph.NewDocument("corpus/doc1")
	frontier, err := MapTier(u, d, Tier{
		Name: "dipl",
		Intervals: []timeline.Interval{
			{Start: 0, End: 1, Value: "a"},
			{Start: 1, End: 2, Value: "b"},
			{Start: 2, End: 3, Value: "c"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("MapTier: %v", err)
	}
	if frontier.Len() != 3 {
		t.Errorf("frontier = %d tokens, want 3", frontier.Len())
	}
	// N non-blank intervals form one chain of length N-1.
	if got := len(orderingEdges(u, "dipl")); got != 2 {
		t.Errorf("ordering edges = %d, want 2", got)
	}
}

func TestMapTierSkipsBlankValues(t *testing.T) {
	u := graph.NewUpdate()
	d := graph.NewDocument("corpus/doc1")
	frontier, err := MapTier(u, d, Tier{
		Name: "dipl",
		Intervals: []timeline.Interval{
			{Start: 0, End: 1, Value: "a"},
			{Start: 1, End: 2, Value: "   "},
			{Start: 2, End: 3, Value: "c"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("MapTier: %v", err)
	}
	if frontier.Len() != 2 {
		t.Errorf("frontier = %d tokens, want 2", frontier.Len())
	}
	// The blank interval is absent from the chain too.
	if got := len(orderingEdges(u, "dipl")); got != 1 {
		t.Errorf("ordering edges = %d, want 1", got)
	}
}

func TestMapTierSortsByStart(t *testing.T) {
	u := graph.NewUpdate()
	d := graph.NewDocument("corpus/doc1")
	_, err := MapTier(u, d, Tier{
		Name: "dipl",
		Intervals: []timeline.Interval{
			{Start: 2, End: 3, Value: "c"},
			{Start: 0, End: 1, Value: "a"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("MapTier: %v", err)
	}
	edges := orderingEdges(u, "dipl")
	if len(edges) != 1 {
		t.Fatalf("ordering edges = %d, want 1", len(edges))
	}
	// Units are minted and chained in ascending start order, so "a" is the
	// first token even though it came last in the input.
	if edges[0].Source != "corpus/doc1#t1" || edges[0].Target != "corpus/doc1#t2" {
		t.Errorf("chain edge %s->%s", edges[0].Source, edges[0].Target)
	}
}

func TestMapTierMultiTierCoverage(t *testing.T) {
	u := graph.NewUpdate()
	d := graph.NewDocument("corpus/doc1")
	dipl := []timeline.Interval{{Start: 0, End: 2, Value: "ab"}, {Start: 2, End: 3, Value: "c"}}
	norm := []timeline.Interval{{Start: 0, End: 1, Value: "a"}, {Start: 1, End: 3, Value: "bc"}}
	tl := timeline.Build(dipl, norm)
	tl.Emit(u, d)

	frontier, err := MapTier(u, d, Tier{Name: "dipl", Intervals: dipl}, tl)
	if err != nil {
		t.Fatalf("MapTier: %v", err)
	}
	if frontier.Len() != 2 {
		t.Fatalf("frontier = %d tokens, want 2", frontier.Len())
	}

	// Backbone segments are [0,1) [1,2) [2,3); "ab" covers the first two.
	backbone := make(map[string][2]float64)
	for _, seg := range tl.Segments() {
		backbone[seg.Token.String()] = [2]float64{seg.Start, seg.End}
	}
	covers := make(map[string]map[string]bool)
	for _, ev := range u.Events() {
		if ev.Kind == graph.EventAddEdge && ev.Component == graph.ComponentCoverage {
			if covers[ev.Source] == nil {
				covers[ev.Source] = make(map[string]bool)
			}
			if covers[ev.Source][ev.Target] {
				t.Errorf("segment %s covered twice by %s", ev.Target, ev.Source)
			}
			covers[ev.Source][ev.Target] = true
		}
	}
	first := frontier.tokens[0]
	got := covers[first.id.String()]
	if len(got) != 2 {
		t.Fatalf("first unit covers %d segments, want 2", len(got))
	}
	for target := range got {
		seg, ok := backbone[target]
		if !ok {
			t.Fatalf("coverage target %s is not a backbone token", target)
		}
		if seg[0] < first.start || seg[1] > first.end {
			t.Errorf("covered segment [%v,%v) outside unit [%v,%v)", seg[0], seg[1], first.start, first.end)
		}
	}
}

func TestMapTierSpeakerLayer(t *testing.T) {
	u := graph.NewUpdate()
	d := graph.NewDocument("corpus/doc1")
	_, err := MapTier(u, d, Tier{
		Name:      "words",
		Speaker:   "SPK0",
		Intervals: []timeline.Interval{{Start: 0, End: 1, Value: "hi"}},
	}, nil)
	if err != nil {
		t.Fatalf("MapTier: %v", err)
	}
	found := false
	for _, ev := range u.Events() {
		if ev.Kind == graph.EventAddNodeLabel &&
			ev.Namespace == graph.NamespaceAnnis && ev.Name == graph.LabelLayer && ev.Value == "SPK0" {
			found = true
		}
	}
	if !found {
		t.Error("annis:layer label missing")
	}
}

func TestMapTierInvertedInterval(t *testing.T) {
	u := graph.NewUpdate()
	d := graph.NewDocument("corpus/doc1")
	_, err := MapTier(u, d, Tier{
		Name:      "dipl",
		Intervals: []timeline.Interval{{Start: 2, End: 1, Value: "x"}},
	}, nil)
	if err == nil {
		t.Fatal("inverted interval should be rejected")
	}
}
