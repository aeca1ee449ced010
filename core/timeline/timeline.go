// Package timeline derives a minimal common timeline of atomic segments
// from one or more independently segmented annotation tiers, and repairs
// interval boundaries that miss the boundary set of their governing tier.
package timeline

import (
	"sort"

	"github.com/annoweave/annoweave/core/graph"
)

// Interval is one extracted annotation unit: a half-open [Start,End)
// interval carrying a raw text value.
type Interval struct {
	Start float64
	End   float64
	Value string
}

// Segment is one atomic segment of the common timeline. Segments are
// pairwise non-overlapping and totally ordered by Start; their union covers
// the full extent of all participating tiers.
type Segment struct {
	Start float64
	End   float64
	// Token is the empty backbone token minted for this segment, set by
	// Emit.
	Token graph.NodeID
}

// Timeline is the common timeline shared by all tiers of one multi-tier
// document. The zero value is not usable; call Build.
type Timeline struct {
	segments   []Segment
	boundaries []float64
	emitted    bool
}

// Build merges the interval boundaries of all participating tiers into a
// minimal set of atomic segments. With fewer than two distinct boundaries
// (no participating tier has content) the timeline is empty and the caller
// must fall back to direct single-tier tokenization.
func Build(tiers ...[]Interval) *Timeline {
	seen := make(map[float64]struct{})
	var boundaries []float64
	for _, tier := range tiers {
		for _, iv := range tier {
			for _, b := range [2]float64{iv.Start, iv.End} {
				if _, ok := seen[b]; !ok {
					seen[b] = struct{}{}
					boundaries = append(boundaries, b)
				}
			}
		}
	}
	sort.Float64s(boundaries)

	tl := &Timeline{boundaries: boundaries}
	for i := 1; i < len(boundaries); i++ {
		tl.segments = append(tl.segments, Segment{
			Start: boundaries[i-1],
			End:   boundaries[i],
		})
	}
	return tl
}

// Empty reports whether the timeline has no atomic segments.
func (tl *Timeline) Empty() bool {
	return len(tl.segments) == 0
}

// Segments returns the atomic segments in ascending Start order.
func (tl *Timeline) Segments() []Segment {
	return tl.segments
}

// Boundaries returns the distinct boundary values in ascending order.
func (tl *Timeline) Boundaries() []float64 {
	return tl.boundaries
}

// Emit creates one empty backbone token per atomic segment and links the
// tokens into the unnamed default Ordering chain. Emit is idempotent per
// timeline; further calls are no-ops.
func (tl *Timeline) Emit(u *graph.Update, d *graph.Document) {
	if tl.emitted {
		return
	}
	tl.emitted = true
	ids := make([]graph.NodeID, len(tl.segments))
	for i := range tl.segments {
		id := graph.MapEmptyToken(u, d)
		u.AddNodeLabel(id, graph.NamespaceAnnis, graph.LabelTime,
			graph.FormatTimeRange(tl.segments[i].Start, tl.segments[i].End))
		tl.segments[i].Token = id
		ids[i] = id
	}
	graph.AddOrderRelations(u, ids, "")
}

// Covered returns the backbone tokens of all atomic segments contained in
// [start,end). Each token appears at most once, in timeline order. Emit
// must have been called first.
func (tl *Timeline) Covered(start, end float64) []graph.NodeID {
	var ids []graph.NodeID
	for _, seg := range tl.segments {
		if seg.Start >= start && seg.End <= end {
			ids = append(ids, seg.Token)
		}
	}
	return ids
}
