// Package ptb imports Penn-Treebank bracketed constituency files.
package ptb

import (
	"context"

	"github.com/annoweave/annoweave/core/graph"
	"github.com/annoweave/annoweave/core/tree"
	"github.com/annoweave/annoweave/internal/fileutil"
	"github.com/annoweave/annoweave/internal/formats"
	"github.com/annoweave/annoweave/internal/logging"
)

const formatName = "ptb"

func init() {
	formats.Register(&Importer{})
}

// Importer converts bracket-tree files into dominance trees.
type Importer struct{}

// Name implements formats.Importer.
func (*Importer) Name() string { return formatName }

// Extensions implements formats.Importer.
func (*Importer) Extensions() []string { return []string{".ptb", ".mrg"} }

// Detect implements formats.Importer.
func (*Importer) Detect(path string) (*formats.DetectResult, error) {
	return formats.DetectFile(path, formats.DetectConfig{
		Extensions:     []string{".ptb", ".mrg"},
		ContentMarkers: []string{"("},
		FormatName:     formatName,
	})
}

// Import implements formats.Importer.
func (imp *Importer) Import(ctx context.Context, root string, opts formats.Options, u *graph.Update) error {
	docs, err := fileutil.WalkCorpus(root, imp.Extensions())
	if err != nil {
		return err
	}
	fileutil.EmitCorpusStructure(u, root, docs)
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		logging.ImportStart(formatName, doc.Path)
		data, err := fileutil.ReadFile(doc.Path)
		if err != nil {
			return err
		}
		docUpdate := graph.NewUpdate()
		d := graph.NewDocument(doc.DocPath)
		fileutil.AttachChecksum(docUpdate, d, data)
		err = tree.BuildDocument(docUpdate, d, string(data), tree.Options{
			Layer:        opts.TextName,
			CategoryName: opts.CategoryName,
		})
		if err != nil {
			return err
		}
		u.AppendFrom(docUpdate)
	}
	return nil
}
