package graph

import "fmt"

// NodeKind distinguishes the identifier families a document can mint.
type NodeKind uint8

// Node kind constants.
const (
	// KindRaw is an identifier used verbatim (corpus nodes, document
	// nodes, linked media files).
	KindRaw NodeKind = iota
	// KindToken renders as "<doc>#t<n>".
	KindToken
	// KindSpan renders as "<doc>#sSpan<n>".
	KindSpan
	// KindStruct renders as "<doc>#sStruct<n>".
	KindStruct
)

// NodeID is a typed node identifier. It carries the owning document path,
// the kind tag and an ordinal, and is rendered to the external string form
// only when an event is emitted. Raw identifiers (corpus and file nodes)
// carry the full path in Name instead.
type NodeID struct {
	Doc     string
	Kind    NodeKind
	Ordinal int
	Name    string
}

// RawID returns an identifier used verbatim.
func RawID(name string) NodeID {
	return NodeID{Kind: KindRaw, Name: name}
}

// IsZero reports whether the identifier is unset.
func (id NodeID) IsZero() bool {
	return id.Kind == KindRaw && id.Name == ""
}

// String renders the identifier in the external form consumed by the
// graph store.
func (id NodeID) String() string {
	switch id.Kind {
	case KindToken:
		return fmt.Sprintf("%s#t%d", id.Doc, id.Ordinal)
	case KindSpan:
		return fmt.Sprintf("%s#sSpan%d", id.Doc, id.Ordinal)
	case KindStruct:
		return fmt.Sprintf("%s#sStruct%d", id.Doc, id.Ordinal)
	default:
		return id.Name
	}
}

// Document is a handle for one document under construction. It owns the
// running token/span/struct counters so that documents can be processed in
// parallel without shared state.
type Document struct {
	// Path is the document node identifier (corpus-relative, no extension).
	Path string

	tokens  int
	spans   int
	structs int
}

// NewDocument returns a handle for the document at the given corpus path.
func NewDocument(path string) *Document {
	return &Document{Path: path}
}

// ID returns the identifier of the document node itself.
func (d *Document) ID() NodeID {
	return RawID(d.Path)
}

// NextToken mints the next token identifier.
func (d *Document) NextToken() NodeID {
	d.tokens++
	return NodeID{Doc: d.Path, Kind: KindToken, Ordinal: d.tokens}
}

// NextSpan mints the next span identifier.
func (d *Document) NextSpan() NodeID {
	d.spans++
	return NodeID{Doc: d.Path, Kind: KindSpan, Ordinal: d.spans}
}

// NextStruct mints the next structure identifier.
func (d *Document) NextStruct() NodeID {
	d.structs++
	return NodeID{Doc: d.Path, Kind: KindStruct, Ordinal: d.structs}
}
