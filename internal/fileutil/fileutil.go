// Package fileutil provides corpus traversal and file reading for format
// handlers: locating document files under a corpus root, emitting the
// corpus containment hierarchy, transparent xz decompression, and source
// checksums.
package fileutil

import (
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/annoweave/annoweave/core/graph"
)

// ChecksumNamespace is the label namespace for import-audit metadata.
const ChecksumNamespace = "annoweave"

// ChecksumLabel is the label name carrying the source-file checksum.
const ChecksumLabel = "checksum"

// xzSuffix marks transparently compressed input files.
const xzSuffix = ".xz"

// DocFile pairs a document file on disk with its corpus-internal path.
type DocFile struct {
	// Path is the on-disk location.
	Path string
	// DocPath is the corpus-internal document path: the corpus root name
	// followed by the relative path, extension stripped, slash-separated.
	DocPath string
}

// WalkCorpus finds all document files under root whose extension matches
// one of the given extensions (case-insensitive, leading dot required). A
// trailing ".xz" suffix is ignored for matching. Results are sorted by
// corpus-internal path. A root that is itself a matching file yields a
// single entry.
func WalkCorpus(root string, extensions []string) ([]DocFile, error) {
	root = filepath.Clean(root)
	rootName := filepath.Base(root)

	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if !matchesExt(root, extensions) {
			return nil, nil
		}
		return []DocFile{{Path: root, DocPath: docPath(rootName, filepath.Base(root))}}, nil
	}

	var docs []DocFile
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !matchesExt(p, extensions) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		docs = append(docs, DocFile{Path: p, DocPath: docPath(rootName, rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].DocPath < docs[j].DocPath })
	return docs, nil
}

func matchesExt(p string, extensions []string) bool {
	p = strings.TrimSuffix(p, xzSuffix)
	ext := strings.ToLower(filepath.Ext(p))
	for _, want := range extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// docPath renders the corpus-internal path for a document file.
func docPath(rootName, rel string) string {
	rel = strings.TrimSuffix(filepath.ToSlash(rel), xzSuffix)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	return path.Join(rootName, rel)
}

// EmitCorpusStructure creates the corpus root node, one corpus node per
// intermediate directory level and per document, and the PartOf chain
// linking each node to its parent. Every path is created exactly once.
func EmitCorpusStructure(u *graph.Update, root string, docs []DocFile) {
	rootName := filepath.Base(filepath.Clean(root))
	u.AddNode(graph.RawID(rootName), graph.NodeTypeCorpus)
	created := map[string]struct{}{rootName: {}}

	for _, doc := range docs {
		segments := strings.Split(doc.DocPath, "/")
		for i := 2; i <= len(segments); i++ {
			sub := path.Join(segments[:i]...)
			if _, ok := created[sub]; ok {
				continue
			}
			created[sub] = struct{}{}
			parent := path.Join(segments[:i-1]...)
			u.AddNode(graph.RawID(sub), graph.NodeTypeCorpus)
			u.AddEdge(graph.RawID(sub), graph.RawID(parent), graph.NamespaceAnnis, graph.ComponentPartOf, "")
		}
	}
}

// ReadFile reads a document file, transparently decompressing a trailing
// ".xz" suffix.
func ReadFile(p string) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if !strings.HasSuffix(p, xzSuffix) {
		return io.ReadAll(f)
	}
	r, err := xz.NewReader(f)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// Checksum returns the BLAKE3 hex digest of data.
func Checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// AttachChecksum records the source checksum as a document label so
// re-imports can be audited against the original file.
func AttachChecksum(u *graph.Update, d *graph.Document, data []byte) {
	u.AddNodeLabel(d.ID(), ChecksumNamespace, ChecksumLabel, Checksum(data))
}
