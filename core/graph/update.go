// Package graph defines the annotation-graph update log and the schema
// vocabulary shared by all format handlers.
//
// An Update is an append-only list of node/edge/label creation events. It is
// the only thing the conversion engine produces; applying the log to a graph
// store is the consumer's concern. The emitter performs no deduplication:
// callers must not re-emit an event they already appended.
package graph

// ComponentType is the fixed edge-component vocabulary.
type ComponentType string

// Edge component types.
const (
	ComponentPartOf    ComponentType = "PartOf"
	ComponentOrdering  ComponentType = "Ordering"
	ComponentCoverage  ComponentType = "Coverage"
	ComponentDominance ComponentType = "Dominance"
	ComponentPointing  ComponentType = "Pointing"
)

// Reserved namespace and label names for structural annotations.
const (
	NamespaceAnnis = "annis"

	LabelTok                = "tok"
	LabelTokWhitespaceAfter = "tok-whitespace-after"
	LabelTime               = "time"
	LabelNodeType           = "node_type"
	LabelFile               = "file"
	LabelLayer              = "layer"
)

// Node type values for the annis:node_type label.
const (
	NodeTypeCorpus = "corpus"
	NodeTypeNode   = "node"
	NodeTypeFile   = "file"
)

// EventKind identifies one of the four operation kinds in the log.
type EventKind uint8

// Operation kinds.
const (
	EventAddNode EventKind = iota
	EventAddNodeLabel
	EventAddEdge
	EventAddEdgeLabel
)

// String returns the wire name of the operation kind.
func (k EventKind) String() string {
	switch k {
	case EventAddNode:
		return "add_node"
	case EventAddNodeLabel:
		return "add_node_label"
	case EventAddEdge:
		return "add_edge"
	case EventAddEdgeLabel:
		return "add_edge_label"
	}
	return "unknown"
}

// Event is one operation in the update log. Unused fields are empty
// depending on Kind.
type Event struct {
	Kind EventKind `json:"kind"`

	// Node and NodeType are set for add_node; Node also addresses
	// add_node_label.
	Node     string `json:"node,omitempty"`
	NodeType string `json:"node_type,omitempty"`

	// Source, Target, Layer, Component and ComponentName address an edge
	// for add_edge and add_edge_label.
	Source        string        `json:"source,omitempty"`
	Target        string        `json:"target,omitempty"`
	Layer         string        `json:"layer,omitempty"`
	Component     ComponentType `json:"component,omitempty"`
	ComponentName string        `json:"component_name,omitempty"`

	// Namespace, Name and Value carry the label payload for
	// add_node_label and add_edge_label.
	Namespace string `json:"ns,omitempty"`
	Name      string `json:"name,omitempty"`
	Value     string `json:"value,omitempty"`
}

// Update is an append-only annotation-graph update log.
type Update struct {
	events []Event
}

// NewUpdate returns an empty update log.
func NewUpdate() *Update {
	return &Update{}
}

// Len returns the number of appended events.
func (u *Update) Len() int {
	return len(u.events)
}

// Events returns the appended events in order. The returned slice is the
// log's backing store; callers must not modify it.
func (u *Update) Events() []Event {
	return u.events
}

// AppendFrom splices a completed per-document log into this one. Handlers
// build each document into its own Update and splice only on success, so a
// document that fails mid-construction leaves no partial log behind.
func (u *Update) AppendFrom(other *Update) {
	u.events = append(u.events, other.events...)
}

// AddNode appends an add_node event.
func (u *Update) AddNode(id NodeID, nodeType string) {
	u.events = append(u.events, Event{
		Kind:     EventAddNode,
		Node:     id.String(),
		NodeType: nodeType,
	})
}

// AddNodeLabel appends an add_node_label event.
func (u *Update) AddNodeLabel(id NodeID, ns, name, value string) {
	u.events = append(u.events, Event{
		Kind:      EventAddNodeLabel,
		Node:      id.String(),
		Namespace: ns,
		Name:      name,
		Value:     value,
	})
}

// AddEdge appends an add_edge event.
func (u *Update) AddEdge(source, target NodeID, layer string, component ComponentType, componentName string) {
	u.events = append(u.events, Event{
		Kind:          EventAddEdge,
		Source:        source.String(),
		Target:        target.String(),
		Layer:         layer,
		Component:     component,
		ComponentName: componentName,
	})
}

// AddEdgeLabel appends an add_edge_label event for a previously added edge.
func (u *Update) AddEdgeLabel(source, target NodeID, layer string, component ComponentType, componentName, ns, name, value string) {
	u.events = append(u.events, Event{
		Kind:          EventAddEdgeLabel,
		Source:        source.String(),
		Target:        target.String(),
		Layer:         layer,
		Component:     component,
		ComponentName: componentName,
		Namespace:     ns,
		Name:          name,
		Value:         value,
	})
}
