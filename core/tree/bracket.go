// Package tree builds dominance trees from bracketed constituency input
// (Penn-Treebank style). Every structure node is emitted with Dominance
// edges to its direct children and, redundantly, with Coverage edges to all
// transitively dominated leaf tokens, so coverage-based queries in the
// consuming store need no tree traversal.
package tree

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/annoweave/annoweave/core/errors"
	"github.com/annoweave/annoweave/core/graph"
)

// DefaultCategoryName is the annotation name for constituent labels.
const DefaultCategoryName = "cat"

// fixedSequences are PTB escapes restored in leaf text.
var fixedSequences = map[string]string{
	"-LRB-": "(",
	"-RRB-": ")",
}

// bracketFile is the parsed form of one document: a sequence of top-level
// trees.
type bracketFile struct {
	Trees []bracketTree `parser:"@@*"`
}

type bracketTree struct {
	Label    string        `parser:"'(' @Atom"`
	Children []bracketNode `parser:"@@* ')'"`
}

type bracketNode struct {
	Leaf string       `parser:"  @Atom"`
	Tree *bracketTree `parser:"| @@"`
}

var bracketLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Atom", Pattern: `[^()\s]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var bracketParser = participle.MustBuild[bracketFile](
	participle.Lexer(bracketLexer),
	participle.Elide("Whitespace"),
)

// Options controls how the builder labels the emitted nodes.
type Options struct {
	// Layer optionally names the layer for dominance edges and the token
	// tier. Empty means the unnamed default layer.
	Layer string
	// CategoryName is the annotation name for constituent labels;
	// DefaultCategoryName when empty.
	CategoryName string
}

// BuildDocument parses bracketed constituency input and emits its tokens,
// structure nodes, dominance and coverage edges, and the token ordering
// chain. Unbalanced brackets are a fatal parse error.
func BuildDocument(u *graph.Update, d *graph.Document, src string, opts Options) error {
	if opts.CategoryName == "" {
		opts.CategoryName = DefaultCategoryName
	}
	parsed, err := bracketParser.ParseString(d.Path, src)
	if err != nil {
		return &errors.ParseError{Format: "bracket tree", Path: d.Path, Message: err.Error(), Err: err}
	}

	b := &builder{u: u, d: d, opts: opts}
	for i := range parsed.Trees {
		if _, _, err := b.walk(&parsed.Trees[i]); err != nil {
			return err
		}
	}
	graph.AddOrderRelations(u, b.tokens, "")
	if opts.Layer != "" {
		graph.AddOrderRelations(u, b.tokens, opts.Layer)
	}
	return nil
}

type builder struct {
	u      *graph.Update
	d      *graph.Document
	opts   Options
	tokens []graph.NodeID
}

// walk emits the structure node for t and returns it together with all leaf
// tokens it transitively dominates.
func (b *builder) walk(t *bracketTree) (graph.NodeID, []graph.NodeID, error) {
	var children []graph.NodeID
	var leaves []graph.NodeID
	for i := range t.Children {
		child := &t.Children[i]
		if child.Tree != nil {
			id, subLeaves, err := b.walk(child.Tree)
			if err != nil {
				return graph.NodeID{}, nil, err
			}
			children = append(children, id)
			leaves = append(leaves, subLeaves...)
			continue
		}
		tok := graph.MapToken(b.u, b.d, b.opts.Layer, cleanText(child.Leaf))
		b.tokens = append(b.tokens, tok)
		children = append(children, tok)
		leaves = append(leaves, tok)
	}
	id := graph.MapHierarchical(b.u, b.d, b.opts.Layer, b.opts.CategoryName, t.Label, b.opts.Layer, children)
	graph.AddCoverage(b.u, id, leaves)
	return id, leaves, nil
}

// cleanText restores PTB escape sequences in leaf text.
func cleanText(text string) string {
	for k, v := range fixedSequences {
		text = strings.ReplaceAll(text, k, v)
	}
	return text
}
