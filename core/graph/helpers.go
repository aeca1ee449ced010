package graph

import (
	"strconv"

	"github.com/annoweave/annoweave/core/errors"
)

// helpers.go - schema helpers shared by all format handlers. Each helper
// emits the node plus the structural labels and edges the graph store
// expects for that node family.

// FormatTimeRange renders a [start,end) interval for the annis:time label.
func FormatTimeRange(start, end float64) string {
	return strconv.FormatFloat(start, 'g', -1, 64) + "-" + strconv.FormatFloat(end, 'g', -1, 64)
}

// MapToken creates a token node carrying value as its annis:tok label. If
// tierName is non-blank the value is additionally recorded as a tier-specific
// label. The token is attached to the document via PartOf.
func MapToken(u *Update, d *Document, tierName, value string) NodeID {
	id := d.NextToken()
	u.AddNode(id, NodeTypeNode)
	u.AddNodeLabel(id, NamespaceAnnis, LabelTok, value)
	if tierName != "" {
		u.AddNodeLabel(id, "", tierName, value)
	}
	u.AddNodeLabel(id, NamespaceAnnis, LabelTokWhitespaceAfter, " ")
	u.AddEdge(id, d.ID(), NamespaceAnnis, ComponentPartOf, "")
	return id
}

// MapTimedToken creates a token node like MapToken and additionally records
// its [start,end) interval as the annis:time label. A token whose start is
// not strictly before its end is a fatal format error.
func MapTimedToken(u *Update, d *Document, tierName, value string, start, end float64) (NodeID, error) {
	if start >= end {
		return NodeID{}, errors.NewImport(tierName, d.Path,
			"token "+strconv.Quote(value)+" has start >= end ("+FormatTimeRange(start, end)+")")
	}
	id := MapToken(u, d, tierName, value)
	u.AddNodeLabel(id, NamespaceAnnis, LabelTime, FormatTimeRange(start, end))
	return id, nil
}

// MapEmptyToken creates one empty backbone token for an atomic timeline
// segment. Empty tokens carry a single whitespace value and no tier label.
func MapEmptyToken(u *Update, d *Document) NodeID {
	id := d.NextToken()
	u.AddNode(id, NodeTypeNode)
	u.AddNodeLabel(id, NamespaceAnnis, LabelTok, " ")
	u.AddEdge(id, d.ID(), NamespaceAnnis, ComponentPartOf, "")
	return id
}

// MapTokenAsSpan creates a span node that acts as a segmentation token: it
// carries the annis:tok label but its extent is the covered set of backbone
// tokens rather than a direct interval.
func MapTokenAsSpan(u *Update, d *Document, tierName, value string, start, end float64, covered []NodeID) (NodeID, error) {
	if start >= end {
		return NodeID{}, errors.NewImport(tierName, d.Path,
			"token "+strconv.Quote(value)+" has start >= end ("+FormatTimeRange(start, end)+")")
	}
	id := MapAnnotation(u, d, "", tierName, value, covered)
	u.AddNodeLabel(id, NamespaceAnnis, LabelTok, value)
	u.AddNodeLabel(id, NamespaceAnnis, LabelTime, FormatTimeRange(start, end))
	return id, nil
}

// MapAnnotation creates a span node labeled ns:name=value with Coverage
// edges to every covered node.
func MapAnnotation(u *Update, d *Document, ns, name, value string, covered []NodeID) NodeID {
	id := d.NextSpan()
	u.AddNode(id, NodeTypeNode)
	if name != "" {
		u.AddNodeLabel(id, ns, name, value)
	}
	u.AddEdge(id, d.ID(), NamespaceAnnis, ComponentPartOf, "")
	for _, target := range covered {
		u.AddEdge(id, target, NamespaceAnnis, ComponentCoverage, "")
	}
	return id
}

// MapHierarchical creates a structure node labeled ns:name=value with
// Dominance edges to every child, on the given edge layer.
func MapHierarchical(u *Update, d *Document, ns, name, value, edgeLayer string, children []NodeID) NodeID {
	id := d.NextStruct()
	u.AddNode(id, NodeTypeNode)
	if name != "" {
		u.AddNodeLabel(id, ns, name, value)
	}
	u.AddEdge(id, d.ID(), NamespaceAnnis, ComponentPartOf, "")
	for _, child := range children {
		u.AddEdge(id, child, edgeLayer, ComponentDominance, "")
	}
	return id
}

// AddCoverage emits Coverage edges from source to every target.
func AddCoverage(u *Update, source NodeID, targets []NodeID) {
	for _, target := range targets {
		u.AddEdge(source, target, NamespaceAnnis, ComponentCoverage, "")
	}
}

// AddOrderRelations links the given nodes into one linear Ordering chain.
// An empty name produces the unnamed default chain.
func AddOrderRelations(u *Update, ids []NodeID, name string) {
	for i := 1; i < len(ids); i++ {
		u.AddEdge(ids[i-1], ids[i], NamespaceAnnis, ComponentOrdering, name)
	}
}

// AddPointingRelation emits one typed Pointing edge from source to target,
// optionally labeled ns:name=value.
func AddPointingRelation(u *Update, source, target NodeID, relType, layer, ns, name, value string) {
	u.AddEdge(source, target, layer, ComponentPointing, relType)
	if name != "" && value != "" {
		u.AddEdgeLabel(source, target, layer, ComponentPointing, relType, ns, name, value)
	}
}

// MapFileNode creates a node for a linked media or source file and attaches
// it to the owning document or corpus node.
func MapFileNode(u *Update, filePath string, parent NodeID) NodeID {
	id := RawID(filePath)
	u.AddNode(id, NodeTypeFile)
	u.AddNodeLabel(id, NamespaceAnnis, LabelNodeType, NodeTypeFile)
	u.AddNodeLabel(id, NamespaceAnnis, LabelFile, filePath)
	u.AddEdge(id, parent, NamespaceAnnis, ComponentPartOf, "")
	return id
}
