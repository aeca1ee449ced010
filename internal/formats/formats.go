// Package formats defines the importer interface shared by all format
// handlers and the registry the CLI resolves them from. Handlers register
// themselves from their package init; importing a handler package for side
// effects makes it available.
package formats

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/annoweave/annoweave/core/config"
	"github.com/annoweave/annoweave/core/graph"
)

// Options carries the per-run conversion configuration. Handlers read the
// fields they recognize and ignore the rest; option validation happens in
// core/config and in each handler before any document is processed.
type Options struct {
	// TierGroups maps governing tiers to dependent tiers (textgrid) or
	// token columns to annotation columns (xlsx).
	TierGroups *config.TierGroups
	// TextName names the tokenization tier for formats with a single
	// implicit one (conllu, ptb).
	TextName string
	// CategoryName overrides the constituent annotation name (ptb).
	CategoryName string
	// ForceMultiTok builds the common timeline even for single-group
	// documents.
	ForceMultiTok bool
	// SkipAudio suppresses linked-media file nodes.
	SkipAudio bool
	// AudioExtension is the linked-audio extension probed next to each
	// document ("wav" when empty).
	AudioExtension string
}

// Importer converts all documents under a corpus root into graph updates.
type Importer interface {
	// Name is the registry key (e.g. "textgrid").
	Name() string
	// Extensions lists recognized file extensions, with leading dot.
	Extensions() []string
	// Detect probes whether the path looks like this importer's format.
	Detect(path string) (*DetectResult, error)
	// Import converts every matching document under root, appending to u.
	// A fatal format error aborts the offending document's construction;
	// no partial log for that document may have been appended.
	Import(ctx context.Context, root string, opts Options, u *graph.Update) error
}

// DetectResult describes the outcome of a format probe.
type DetectResult struct {
	Detected bool
	Format   string
	Reason   string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Importer)
)

// Register adds an importer to the registry. It panics if the name is
// already taken; registration happens at init time only.
func Register(imp Importer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[imp.Name()]; dup {
		panic("formats: duplicate importer " + imp.Name())
	}
	registry[imp.Name()] = imp
}

// Lookup returns the importer registered under name.
func Lookup(name string) (Importer, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	imp, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (known: %s)", name, strings.Join(names(), ", "))
	}
	return imp, nil
}

// All returns the registered importers sorted by name.
func All() []Importer {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Importer, 0, len(registry))
	for _, imp := range registry {
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Detect probes all registered importers against the path and returns the
// first positive result in name order.
func Detect(path string) (Importer, *DetectResult, error) {
	for _, imp := range All() {
		res, err := imp.Detect(path)
		if err != nil {
			return nil, nil, err
		}
		if res.Detected {
			return imp, res, nil
		}
	}
	return nil, &DetectResult{Detected: false, Reason: "no importer recognized the input"}, nil
}

// DetectConfig configures the shared extension/content probe.
type DetectConfig struct {
	// Extensions is a list of valid file extensions (e.g. ".exb", ".ptb").
	Extensions []string
	// ContentMarkers are strings that must all be present in the content.
	ContentMarkers []string
	// FormatName is the name reported in the DetectResult.
	FormatName string
}

// DetectFile probes a single file against extensions and content markers.
// Directories are probed by their first matching child handled by the
// caller; here a directory is simply not detected.
func DetectFile(path string, cfg DetectConfig) (*DetectResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return &DetectResult{Detected: false, Reason: fmt.Sprintf("cannot stat: %v", err)}, nil
	}
	if info.IsDir() {
		return &DetectResult{Detected: false, Reason: "path is a directory, not a file"}, nil
	}

	ext := strings.ToLower(strings.TrimSuffix(path, ".xz"))
	extensionMatch := false
	for _, validExt := range cfg.Extensions {
		if strings.HasSuffix(ext, strings.ToLower(validExt)) {
			extensionMatch = true
			break
		}
	}
	if !extensionMatch {
		return &DetectResult{Detected: false, Reason: fmt.Sprintf("not a %s file", cfg.FormatName)}, nil
	}

	if len(cfg.ContentMarkers) > 0 {
		data, err := os.ReadFile(path)
		if err != nil {
			return &DetectResult{Detected: false, Reason: fmt.Sprintf("cannot read: %v", err)}, nil
		}
		content := string(data)
		for _, marker := range cfg.ContentMarkers {
			if !strings.Contains(content, marker) {
				return &DetectResult{Detected: false, Reason: fmt.Sprintf("missing %s marker %q", cfg.FormatName, marker)}, nil
			}
		}
	}

	return &DetectResult{
		Detected: true,
		Format:   cfg.FormatName,
		Reason:   fmt.Sprintf("%s file detected", cfg.FormatName),
	}, nil
}
