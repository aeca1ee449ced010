package mapper

import (
	"github.com/annoweave/annoweave/core/graph"
	"github.com/annoweave/annoweave/core/timeline"
	"github.com/annoweave/annoweave/internal/logging"
)

// SpanDeduplicator merges annotation values that target an identical
// covered-segment extent into one span node carrying multiple labels. Span
// identity is the corrected (start, end) pair scoped to the governing tier:
// two annotations that snap to the same corrected interval are the same
// span regardless of their raw coordinates.
type SpanDeduplicator struct {
	governing *TierTokens
	corrector *timeline.Corrector
	spans     map[[2]float64]graph.NodeID
}

// NewSpanDeduplicator returns a deduplicator for annotations governed by
// the given token frontier.
func NewSpanDeduplicator(governing *TierTokens) *SpanDeduplicator {
	return &SpanDeduplicator{
		governing: governing,
		corrector: timeline.NewCorrector(governing.Boundaries()),
		spans:     make(map[[2]float64]graph.NodeID),
	}
}

// Add records one annotation tuple. The first tuple for a corrected extent
// creates a span node covering the governing tokens of that extent; later
// tuples for the same extent only attach an additional label. Annotations
// whose interval cannot be repaired, or whose corrected extent covers no
// governing token, are recoverable anomalies: they are logged and skipped,
// and the returned identifier is zero.
func (sd *SpanDeduplicator) Add(u *graph.Update, d *graph.Document, ns, name, value string, start, end float64) (graph.NodeID, error) {
	cs, ce, err := sd.corrector.Correct(start, end)
	if err != nil {
		logging.Warn("dropping annotation with unrepairable interval",
			"doc", d.Path, "tier", sd.governing.Name, "name", name,
			"range", graph.FormatTimeRange(start, end))
		return graph.NodeID{}, nil
	}
	key := [2]float64{cs, ce}
	if id, ok := sd.spans[key]; ok {
		u.AddNodeLabel(id, ns, name, value)
		return id, nil
	}
	covered := sd.governing.Covered(cs, ce)
	if len(covered) == 0 {
		logging.Warn("annotation covers no tokens and will be skipped",
			"doc", d.Path, "tier", sd.governing.Name, "name", name,
			"range", graph.FormatTimeRange(cs, ce))
		return graph.NodeID{}, nil
	}
	id := graph.MapAnnotation(u, d, ns, name, value, covered)
	sd.spans[key] = id
	return id, nil
}
