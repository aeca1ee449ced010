// Package textgrid imports Praat TextGrid files, both the long and the
// short ooTextFile flavor.
//
// TextGrid carries no notion of which tier tokenizes and which tier
// annotates, so the importer requires an explicit tier grouping. Each
// group's owning tier becomes tokens, its dependents become spans over
// those tokens, with boundary correction where interval edges miss the
// owner's boundaries. Documents with more than one group share a common
// timeline of empty tokens.
package textgrid

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/annoweave/annoweave/core/errors"
	"github.com/annoweave/annoweave/core/graph"
	"github.com/annoweave/annoweave/core/mapper"
	"github.com/annoweave/annoweave/core/timeline"
	"github.com/annoweave/annoweave/internal/fileutil"
	"github.com/annoweave/annoweave/internal/formats"
	"github.com/annoweave/annoweave/internal/logging"
)

const (
	formatName = "textgrid"

	fileTypeShort = "ooTextFile short"

	classInterval = "IntervalTier"
	classPoint    = "PointTier"

	defaultAudioExtension = "wav"
)

func init() {
	formats.Register(&Importer{})
}

// Importer converts Praat TextGrid files.
type Importer struct{}

// Name implements formats.Importer.
func (*Importer) Name() string { return formatName }

// Extensions implements formats.Importer.
func (*Importer) Extensions() []string { return []string{".textgrid"} }

// Detect implements formats.Importer.
func (*Importer) Detect(path string) (*formats.DetectResult, error) {
	return formats.DetectFile(path, formats.DetectConfig{
		Extensions:     []string{".textgrid"},
		ContentMarkers: []string{"ooTextFile"},
		FormatName:     formatName,
	})
}

// Import implements formats.Importer.
func (imp *Importer) Import(ctx context.Context, root string, opts formats.Options, u *graph.Update) error {
	if opts.TierGroups == nil || len(opts.TierGroups.Groups) == 0 {
		return &errors.ConfigError{Option: "tier_groups", Message: "no tier mapping configured, cannot proceed"}
	}
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
		if err := importDocument(docUpdate, doc, opts); err != nil {
			return err
		}
		u.AppendFrom(docUpdate)
	}
	return nil
}

func importDocument(u *graph.Update, doc fileutil.DocFile, opts formats.Options) error {
	data, err := fileutil.ReadFile(doc.Path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", doc.Path)
	}
	tiers, err := parse(data, doc.Path)
	if err != nil {
		return err
	}
	groups := opts.TierGroups
	for _, owner := range groups.Owners() {
		if _, ok := tiers[owner]; !ok {
			return &errors.ConfigError{
				Option:  "tier_groups",
				Message: fmt.Sprintf("tier %q is configured as owning but missing from %s", owner, doc.Path),
			}
		}
	}

	d := graph.NewDocument(doc.DocPath)
	fileutil.AttachChecksum(u, d, data)
	if !opts.SkipAudio {
		mapAudio(u, d, doc, opts)
	}

	// Every configured tier contributes its boundaries to the shared
	// timeline; unconfigured tiers are ignored entirely.
	var tl *timeline.Timeline
	if groups.MultiTier() || opts.ForceMultiTok {
		var all [][]timeline.Interval
		for _, name := range groups.Names() {
			if ivs, ok := tiers[name]; ok {
				all = append(all, ivs)
			}
		}
		tl = timeline.Build(all...)
		if tl.Empty() {
			logging.Warn("degenerate timeline, falling back to direct tokenization", "doc", doc.Path)
			tl = nil
		} else {
			tl.Emit(u, d)
		}
	}

	for _, group := range groups.Groups {
		frontier, err := mapper.MapTier(u, d, mapper.Tier{
			Name:      group.Owner,
			Intervals: tiers[group.Owner],
		}, tl)
		if err != nil {
			return err
		}
		dedup := mapper.NewSpanDeduplicator(frontier)
		for _, name := range group.Dependents {
			ivs, ok := tiers[name]
			if !ok {
				logging.Warn("configured tier missing from document", "doc", doc.Path, "tier", name)
				continue
			}
			for _, iv := range ivs {
				if strings.TrimSpace(iv.Value) == "" {
					continue
				}
				if _, err := dedup.Add(u, d, group.Owner, name, iv.Value, iv.Start, iv.End); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// mapAudio links a recording that sits next to the TextGrid under the same
// base name.
func mapAudio(u *graph.Update, d *graph.Document, doc fileutil.DocFile, opts formats.Options) {
	ext := opts.AudioExtension
	if ext == "" {
		ext = defaultAudioExtension
	}
	base := strings.TrimSuffix(doc.Path, filepath.Ext(doc.Path))
	audio := base + "." + strings.TrimPrefix(ext, ".")
	if _, err := os.Stat(audio); err != nil {
		return
	}
	graph.MapFileNode(u, audio, d.ID())
}

// parse reads the tier inventory of a TextGrid file. Interval tiers map
// to their interval lists, point tiers are skipped with a warning.
func parse(data []byte, path string) (map[string][]timeline.Interval, error) {
	s, err := newScanner(data, path)
	if err != nil {
		return nil, err
	}
	// Global extent and the tier-list marker carry no information we use.
	if _, err := s.num(); err != nil {
		return nil, err
	}
	if _, err := s.num(); err != nil {
		return nil, err
	}
	if err := s.skipExists(); err != nil {
		return nil, err
	}
	count, err := s.num()
	if err != nil {
		return nil, err
	}

	tiers := make(map[string][]timeline.Interval)
	for i := 0; i < int(count); i++ {
		class, err := s.str()
		if err != nil {
			return nil, err
		}
		name, err := s.str()
		if err != nil {
			return nil, err
		}
		if _, err := s.num(); err != nil { // tier xmin
			return nil, err
		}
		if _, err := s.num(); err != nil { // tier xmax
			return nil, err
		}
		size, err := s.num()
		if err != nil {
			return nil, err
		}
		switch class {
		case classInterval:
			intervals := make([]timeline.Interval, 0, int(size))
			for j := 0; j < int(size); j++ {
				start, err := s.num()
				if err != nil {
					return nil, err
				}
				end, err := s.num()
				if err != nil {
					return nil, err
				}
				text, err := s.str()
				if err != nil {
					return nil, err
				}
				intervals = append(intervals, timeline.Interval{Start: start, End: end, Value: text})
			}
			tiers[name] = intervals
		case classPoint:
			logging.Warn("point tiers are not supported, skipping", "path", path, "tier", name)
			for j := 0; j < int(size); j++ {
				if _, err := s.num(); err != nil {
					return nil, err
				}
				if _, err := s.str(); err != nil {
					return nil, err
				}
			}
		default:
			return nil, parseErr(path, fmt.Sprintf("unknown tier class %q", class))
		}
	}
	return tiers, nil
}

// scanner walks the value stream of a TextGrid file. In the long flavor
// every value line reads `key = value` and structural lines such as
// `item [1]:` are interleaved; in the short flavor each line is a bare
// value.
type scanner struct {
	lines []string
	pos   int
	short bool
	path  string
}

func newScanner(data []byte, path string) (*scanner, error) {
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if l := strings.TrimSpace(line); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < 2 {
		return nil, parseErr(path, "file too short to be a TextGrid")
	}
	fileType := unquote(lines[0])
	if !strings.Contains(fileType, "ooTextFile") {
		return nil, parseErr(path, fmt.Sprintf("unexpected file type %q", fileType))
	}
	// lines[1] names the object class, which is always TextGrid here.
	return &scanner{lines: lines[2:], short: fileType == fileTypeShort, path: path}, nil
}

// next returns the next value line, skipping long-flavor structural lines.
func (s *scanner) next() (string, error) {
	for s.pos < len(s.lines) {
		l := s.lines[s.pos]
		s.pos++
		if !s.short && strings.HasSuffix(l, "]:") {
			continue
		}
		if !s.short {
			if idx := strings.Index(l, " = "); idx >= 0 {
				l = l[idx+3:]
			}
		}
		return l, nil
	}
	return "", parseErr(s.path, "unexpected end of file")
}

// skipExists consumes the `tiers? <exists>` marker line.
func (s *scanner) skipExists() error {
	if s.pos >= len(s.lines) {
		return parseErr(s.path, "unexpected end of file")
	}
	s.pos++
	return nil
}

func (s *scanner) str() (string, error) {
	l, err := s.next()
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(l, `"`) {
		return "", parseErr(s.path, fmt.Sprintf("expected a string value, got %q", l))
	}
	return unquote(l), nil
}

func (s *scanner) num() (float64, error) {
	l, err := s.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(l, 64)
	if err != nil {
		return 0, parseErr(s.path, fmt.Sprintf("expected a numeric value, got %q", l))
	}
	return v, nil
}

func unquote(l string) string {
	first := strings.Index(l, `"`)
	last := strings.LastIndex(l, `"`)
	if first < 0 || last <= first {
		return l
	}
	return l[first+1 : last]
}

func parseErr(path, msg string) error {
	return &errors.ParseError{Format: formatName, Path: path, Message: msg}
}
