// Package conllu imports CoNLL-U dependency treebanks.
package conllu

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/annoweave/annoweave/core/dep"
	"github.com/annoweave/annoweave/core/errors"
	"github.com/annoweave/annoweave/core/graph"
	"github.com/annoweave/annoweave/internal/fileutil"
	"github.com/annoweave/annoweave/internal/formats"
	"github.com/annoweave/annoweave/internal/logging"
)

const (
	formatName = "conllu"
	noValue    = "_"
	featSep    = "|"
	labelFunc  = "func"
)

// fieldCount is the column count of a CoNLL-U token line.
const fieldCount = 10

func init() {
	formats.Register(&Importer{})
}

// Importer converts CoNLL-U files into dependency-annotated token chains.
type Importer struct{}

// Name implements formats.Importer.
func (*Importer) Name() string { return formatName }

// Extensions implements formats.Importer.
func (*Importer) Extensions() []string { return []string{".conllu", ".conll"} }

// Detect implements formats.Importer.
func (*Importer) Detect(path string) (*formats.DetectResult, error) {
	return formats.DetectFile(path, formats.DetectConfig{
		Extensions: []string{".conllu", ".conll"},
		FormatName: formatName,
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
		docUpdate := graph.NewUpdate()
		if err := imp.importDocument(docUpdate, doc, opts.TextName); err != nil {
			return err
		}
		u.AppendFrom(docUpdate)
	}
	return nil
}

// word is one parsed token line.
type word struct {
	form  string
	annos [][2]string // label name/value pairs
	dep   dep.Dependency
}

func (imp *Importer) importDocument(u *graph.Update, doc fileutil.DocFile, textName string) error {
	data, err := fileutil.ReadFile(doc.Path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", doc.Path)
	}
	d := graph.NewDocument(doc.DocPath)
	fileutil.AttachChecksum(u, d, data)

	sentences, err := parse(string(data), doc.Path)
	if err != nil {
		return err
	}

	var allTokens []graph.NodeID
	for _, sentence := range sentences {
		tokens := make([]graph.NodeID, 0, len(sentence))
		deps := make([]dep.Dependency, 0, len(sentence))
		for _, w := range sentence {
			id := graph.MapToken(u, d, textName, w.form)
			for _, anno := range w.annos {
				u.AddNodeLabel(id, textName, anno[0], anno[1])
			}
			tokens = append(tokens, id)
			deps = append(deps, w.dep)
		}
		if err := dep.ResolveSentence(u, d, tokens, deps, textName); err != nil {
			return err
		}
		allTokens = append(allTokens, tokens...)
	}
	graph.AddOrderRelations(u, allTokens, "")
	if textName != "" {
		graph.AddOrderRelations(u, allTokens, textName)
	}
	return nil
}

// parse splits the file into sentences of parsed token lines. Comment
// lines, multiword ranges and empty nodes are skipped.
func parse(data, path string) ([][]word, error) {
	var sentences [][]word
	var current []word
	flush := func() {
		if len(current) > 0 {
			sentences = append(sentences, current)
			current = nil
		}
	}
	for lineNo, line := range strings.Split(data, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != fieldCount {
			return nil, errors.NewParse(formatName, path,
				fmt.Sprintf("line %d has %d columns, want %d", lineNo+1, len(fields), fieldCount))
		}
		// Multiword ranges ("1-2") and empty nodes ("1.1") carry no
		// annotation of their own here.
		if strings.ContainsAny(fields[0], "-.") {
			continue
		}
		w := word{form: fields[1]}
		for i, name := range []string{"lemma", "upos", "xpos"} {
			if v := strings.TrimSpace(fields[2+i]); v != "" && v != noValue {
				w.annos = append(w.annos, [2]string{name, v})
			}
		}
		if feats := strings.TrimSpace(fields[5]); feats != "" && feats != noValue {
			for _, kv := range strings.Split(feats, featSep) {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return nil, errors.NewParse(formatName, path,
						fmt.Sprintf("line %d has malformed feature %q", lineNo+1, kv))
				}
				w.annos = append(w.annos, [2]string{strings.TrimSpace(k), strings.TrimSpace(v)})
			}
		}
		deprel := strings.TrimSpace(fields[7])
		if deprel != "" && deprel != noValue {
			w.annos = append(w.annos, [2]string{labelFunc, deprel})
			w.dep.Deprel = deprel
		}
		head := strings.TrimSpace(fields[6])
		if h, err := strconv.Atoi(head); err == nil {
			w.dep.Head = h
		} else {
			w.dep.Head = dep.HeadNone
		}
		current = append(current, w)
	}
	flush()
	return sentences, nil
}
