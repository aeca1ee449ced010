// Package mapper maps independently segmented annotation tiers onto the
// graph schema: token or span nodes per tier interval, per-tier ordering
// chains, coverage over the common timeline, and span deduplication for
// annotations that share one corrected extent.
package mapper

import (
	"sort"
	"strings"

	"github.com/annoweave/annoweave/core/graph"
	"github.com/annoweave/annoweave/core/timeline"
	"github.com/annoweave/annoweave/internal/logging"
)

// Tier is one segmentation or annotation tier extracted from a document.
type Tier struct {
	// Name is the tier identifier; it names the tier's Ordering chain and
	// its token label.
	Name string
	// Speaker is an optional speaker or layer attribution.
	Speaker string
	// Intervals is the tier's content in document order.
	Intervals []timeline.Interval
}

type tokenExtent struct {
	start, end float64
	id         graph.NodeID
}

// TierTokens is the token frontier of one segmentation tier: every created
// token together with the interval it was created for. Dependent annotation
// tiers compute their coverage against this frontier.
type TierTokens struct {
	// Name is the governing tier's identifier.
	Name   string
	tokens []tokenExtent
}

// Boundaries returns the multiset of interval boundaries of the frontier.
func (t *TierTokens) Boundaries() []float64 {
	out := make([]float64, 0, 2*len(t.tokens))
	for _, tok := range t.tokens {
		out = append(out, tok.start, tok.end)
	}
	return out
}

// Covered returns the tokens whose intervals lie within [start,end), in
// ascending start order.
func (t *TierTokens) Covered(start, end float64) []graph.NodeID {
	var ids []graph.NodeID
	for _, tok := range t.tokens {
		if tok.start >= start && tok.end <= end {
			ids = append(ids, tok.id)
		}
	}
	return ids
}

// Len returns the number of tokens in the frontier.
func (t *TierTokens) Len() int {
	return len(t.tokens)
}

// MapTier maps one segmentation tier onto the graph. When tl is a non-empty
// common timeline the tier's units become span nodes covering the backbone
// tokens of their interval; otherwise they become direct token nodes. In
// both cases the created nodes are linked into an Ordering chain named
// after the tier.
//
// Blank values create no node and are absent from the ordering chain.
// Intervals are processed in ascending start order; ties keep input order.
func MapTier(u *graph.Update, d *graph.Document, tier Tier, tl *timeline.Timeline) (*TierTokens, error) {
	intervals := make([]timeline.Interval, len(tier.Intervals))
	copy(intervals, tier.Intervals)
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})

	frontier := &TierTokens{Name: tier.Name}
	var order []graph.NodeID
	for _, iv := range intervals {
		if strings.TrimSpace(iv.Value) == "" {
			logging.Debug("skipping blank interval",
				"tier", tier.Name, "doc", d.Path,
				"range", graph.FormatTimeRange(iv.Start, iv.End))
			continue
		}
		var (
			id  graph.NodeID
			err error
		)
		if tl != nil && !tl.Empty() {
			id, err = graph.MapTokenAsSpan(u, d, tier.Name, iv.Value, iv.Start, iv.End, tl.Covered(iv.Start, iv.End))
		} else {
			id, err = graph.MapTimedToken(u, d, tier.Name, iv.Value, iv.Start, iv.End)
		}
		if err != nil {
			return nil, err
		}
		if tier.Speaker != "" {
			u.AddNodeLabel(id, graph.NamespaceAnnis, graph.LabelLayer, tier.Speaker)
		}
		frontier.tokens = append(frontier.tokens, tokenExtent{start: iv.Start, end: iv.End, id: id})
		order = append(order, id)
	}
	graph.AddOrderRelations(u, order, tier.Name)
	return frontier, nil
}
