package timeline

import (
	"sort"

	"github.com/annoweave/annoweave/core/errors"
	"github.com/annoweave/annoweave/core/graph"
)

// Corrector snaps interval boundaries of a dependent tier onto the boundary
// set of its governing tier. Cross-tier jitter (boundaries that almost, but
// not exactly, coincide) is repaired by nearest-value selection; if snapping
// collapses an interval to zero width, the interval is re-expanded to the
// adjacent governing boundary that displaces the original coordinates the
// least.
//
// This is a best-effort heuristic repair, not a correctness guarantee.
type Corrector struct {
	boundaries []float64
	cache      map[[2]float64][2]float64
}

// NewCorrector builds a corrector over the governing tier's boundary set.
// The input need not be sorted or distinct.
func NewCorrector(boundaries []float64) *Corrector {
	sorted := make([]float64, 0, len(boundaries))
	seen := make(map[float64]struct{}, len(boundaries))
	for _, b := range boundaries {
		if _, ok := seen[b]; !ok {
			seen[b] = struct{}{}
			sorted = append(sorted, b)
		}
	}
	sort.Float64s(sorted)
	return &Corrector{
		boundaries: sorted,
		cache:      make(map[[2]float64][2]float64),
	}
}

// Correct maps the original (start, end) pair onto governing-tier
// boundaries. Corrected coordinates are cached per original interval, so
// repeated lookups for the same interval are idempotent and cheap. An
// interval that cannot be repaired (fewer than two governing boundaries)
// is a recoverable anomaly reported as an error.
func (c *Corrector) Correct(start, end float64) (float64, float64, error) {
	if cached, ok := c.cache[[2]float64{start, end}]; ok {
		return cached[0], cached[1], nil
	}
	if len(c.boundaries) < 2 {
		return 0, 0, errors.NewParse("interval", "",
			"cannot correct interval "+graph.FormatTimeRange(start, end)+": governing tier has no segments")
	}

	snappedStart := c.nearest(start)
	snappedEnd := c.nearest(end)
	if snappedStart > snappedEnd {
		snappedStart, snappedEnd = snappedEnd, snappedStart
	}

	if snappedStart == snappedEnd {
		// Degenerate collapse. Compare extending left against extending
		// right and keep the alternative with the smaller total boundary
		// displacement from the original interval; ties extend left.
		prev, hasPrev := c.below(snappedStart)
		next, hasNext := c.above(snappedEnd)
		switch {
		case hasPrev && hasNext:
			leftCost := abs(prev-start) + abs(snappedEnd-end)
			rightCost := abs(snappedStart-start) + abs(next-end)
			if leftCost <= rightCost {
				snappedStart = prev
			} else {
				snappedEnd = next
			}
		case hasPrev:
			snappedStart = prev
		case hasNext:
			snappedEnd = next
		default:
			return 0, 0, errors.NewParse("interval", "",
				"cannot correct interval "+graph.FormatTimeRange(start, end)+": no adjacent governing boundary")
		}
	}

	c.cache[[2]float64{start, end}] = [2]float64{snappedStart, snappedEnd}
	return snappedStart, snappedEnd, nil
}

// nearest returns the governing boundary closest to v; exact midpoints
// resolve to the lower boundary.
func (c *Corrector) nearest(v float64) float64 {
	i := sort.SearchFloat64s(c.boundaries, v)
	if i == 0 {
		return c.boundaries[0]
	}
	if i == len(c.boundaries) {
		return c.boundaries[len(c.boundaries)-1]
	}
	lower, upper := c.boundaries[i-1], c.boundaries[i]
	if v-lower <= upper-v {
		return lower
	}
	return upper
}

// below returns the greatest boundary strictly less than v.
func (c *Corrector) below(v float64) (float64, bool) {
	i := sort.SearchFloat64s(c.boundaries, v)
	if i == 0 {
		return 0, false
	}
	return c.boundaries[i-1], true
}

// above returns the least boundary strictly greater than v.
func (c *Corrector) above(v float64) (float64, bool) {
	i := sort.SearchFloat64s(c.boundaries, v)
	for i < len(c.boundaries) && c.boundaries[i] <= v {
		i++
	}
	if i == len(c.boundaries) {
		return 0, false
	}
	return c.boundaries[i], true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
