// Package exmaralda imports EXMARaLDA partition-editor (.exb) files.
//
// An .exb document carries a shared timeline of named, time-stamped points
// and one or more tiers per speaker: tokenization tiers (type "t") whose
// events become timed tokens, and annotation tiers (type "a") whose events
// become spans over the speaker's tokens. Event boundaries that miss the
// speaker's token boundaries are repaired by the boundary corrector.
package exmaralda

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/annoweave/annoweave/core/errors"
	"github.com/annoweave/annoweave/core/graph"
	"github.com/annoweave/annoweave/core/mapper"
	"github.com/annoweave/annoweave/core/timeline"
	"github.com/annoweave/annoweave/internal/fileutil"
	"github.com/annoweave/annoweave/internal/formats"
	"github.com/annoweave/annoweave/internal/logging"
)

const (
	formatName = "exmaralda"

	tierTypeToken      = "t"
	tierTypeAnnotation = "a"
)

// speakerTableTags are the speaker metadata elements recorded as document
// labels, namespaced by speaker id.
var speakerTableTags = []string{"abbreviation", "l1", "l2", "comment"}

func init() {
	formats.Register(&Importer{})
}

// Importer converts EXMARaLDA .exb files.
type Importer struct{}

// Name implements formats.Importer.
func (*Importer) Name() string { return formatName }

// Extensions implements formats.Importer.
func (*Importer) Extensions() []string { return []string{".exb"} }

// Detect implements formats.Importer.
func (*Importer) Detect(path string) (*formats.DetectResult, error) {
	return formats.DetectFile(path, formats.DetectConfig{
		Extensions:     []string{".exb", ".xml"},
		ContentMarkers: []string{"<basic-transcription"},
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
	xml, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return &errors.ParseError{Format: formatName, Path: doc.Path, Message: err.Error(), Err: err}
	}

	d := graph.NewDocument(doc.DocPath)
	fileutil.AttachChecksum(u, d, data)

	if !opts.SkipAudio {
		if err := mapMedia(u, d, xml, doc); err != nil {
			return err
		}
	}

	points, err := readTimeline(xml, doc.Path)
	if err != nil {
		return err
	}
	speakerNames := mapSpeakerTable(u, d, xml)

	// Tokenization tiers first; annotation tiers cover their frontier.
	frontiers := make(map[string]*mapper.TierTokens)
	for _, tier := range xmlquery.Find(xml, "//tier[@type='"+tierTypeToken+"']") {
		speaker, category, err := tierAttrs(tier, doc.Path)
		if err != nil {
			return err
		}
		name, ok := speakerNames[speaker]
		if !ok {
			return errors.NewImport(formatName, doc.Path,
				fmt.Sprintf("speaker %q has not been defined in the speaker table", speaker))
		}
		if _, dup := frontiers[speaker]; dup {
			return errors.NewImport(formatName, doc.Path,
				fmt.Sprintf("speaker %q has more than one tokenization", speaker))
		}
		intervals, err := readEvents(tier, points, doc.Path)
		if err != nil {
			return err
		}
		frontier, err := mapper.MapTier(u, d, mapper.Tier{
			Name:      category,
			Speaker:   name,
			Intervals: intervals,
		}, nil)
		if err != nil {
			return err
		}
		frontiers[speaker] = frontier
	}

	for _, tier := range xmlquery.Find(xml, "//tier") {
		tierType := tier.SelectAttr("type")
		switch tierType {
		case tierTypeToken:
			continue
		case tierTypeAnnotation:
		default:
			logging.Warn("tier has no type attribute and is treated as an annotation tier",
				"doc", doc.Path, "tier", tier.SelectAttr("category"))
		}
		speaker, category, err := tierAttrs(tier, doc.Path)
		if err != nil {
			return err
		}
		name, ok := speakerNames[speaker]
		if !ok {
			return errors.NewImport(formatName, doc.Path,
				fmt.Sprintf("speaker %q has not been defined in the speaker table", speaker))
		}
		frontier, ok := frontiers[speaker]
		if !ok {
			return errors.NewImport(formatName, doc.Path,
				fmt.Sprintf("annotation tier %q refers to speaker %q who has no tokenization", category, speaker))
		}
		intervals, err := readEvents(tier, points, doc.Path)
		if err != nil {
			return err
		}
		dedup := mapper.NewSpanDeduplicator(frontier)
		for _, iv := range intervals {
			if strings.TrimSpace(iv.Value) == "" {
				continue
			}
			if _, err := dedup.Add(u, d, name, category, iv.Value, iv.Start, iv.End); err != nil {
				return err
			}
		}
	}
	return nil
}

// mapMedia emits a file node for the linked recording. More than one
// referenced file is a fatal format error; a missing file on disk is only
// a warning.
func mapMedia(u *graph.Update, d *graph.Document, xml *xmlquery.Node, doc fileutil.DocFile) error {
	refs := xmlquery.Find(xml, "//referenced-file[@url]")
	if len(refs) == 0 {
		return nil
	}
	if len(refs) > 1 {
		return errors.NewImport(formatName, doc.Path,
			fmt.Sprintf("%d referenced media files, at most one is supported", len(refs)))
	}
	url := refs[0].SelectAttr("url")
	mediaPath := url
	if !filepath.IsAbs(mediaPath) {
		mediaPath = filepath.Join(filepath.Dir(doc.Path), url)
	}
	if _, err := os.Stat(mediaPath); err != nil {
		logging.Warn("linked media file not found", "doc", doc.Path, "media", mediaPath)
		return nil
	}
	graph.MapFileNode(u, mediaPath, d.ID())
	return nil
}

// readTimeline maps timeline item ids to their time values. Items without
// a parsable time value are a fatal format error.
func readTimeline(xml *xmlquery.Node, path string) (map[string]float64, error) {
	points := make(map[string]float64)
	for _, tli := range xmlquery.Find(xml, "//common-timeline/tli") {
		id := tli.SelectAttr("id")
		raw := tli.SelectAttr("time")
		if raw == "" {
			return nil, errors.NewImport(formatName, path,
				fmt.Sprintf("timeline item %q does not have a time value", id))
		}
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.NewImport(formatName, path,
				fmt.Sprintf("failed to parse time value %q of timeline item %q", raw, id))
		}
		points[id] = t
	}
	return points, nil
}

// mapSpeakerTable records speaker metadata as document labels and returns
// the speaker-id to display-name map.
func mapSpeakerTable(u *graph.Update, d *graph.Document, xml *xmlquery.Node) map[string]string {
	names := make(map[string]string)
	for _, speaker := range xmlquery.Find(xml, "//speakertable/speaker[@id]") {
		id := speaker.SelectAttr("id")
		for _, tag := range speakerTableTags {
			node := xmlquery.FindOne(speaker, ".//"+tag)
			if node == nil {
				continue
			}
			value := strings.TrimSpace(node.InnerText())
			if value == "" {
				continue
			}
			if tag == "abbreviation" {
				names[id] = value
			}
			u.AddNodeLabel(d.ID(), id, tag, value)
		}
	}
	return names
}

// tierAttrs extracts the required speaker and category attributes.
func tierAttrs(tier *xmlquery.Node, path string) (speaker, category string, err error) {
	category = tier.SelectAttr("category")
	if category == "" {
		return "", "", errors.NewImport(formatName, path, "tier encountered with undefined category attribute")
	}
	speaker = tier.SelectAttr("speaker")
	if speaker == "" {
		return "", "", errors.NewImport(formatName, path,
			fmt.Sprintf("tier %q has no speaker assigned", category))
	}
	return speaker, category, nil
}

// readEvents resolves a tier's events against the shared timeline points,
// sorted by start time.
func readEvents(tier *xmlquery.Node, points map[string]float64, path string) ([]timeline.Interval, error) {
	var intervals []timeline.Interval
	for _, event := range xmlquery.Find(tier, "./event") {
		startID := event.SelectAttr("start")
		endID := event.SelectAttr("end")
		if startID == "" || endID == "" {
			return nil, errors.NewImport(formatName, path, "event without start or end id")
		}
		start, ok := points[startID]
		if !ok {
			return nil, errors.NewImport(formatName, path, fmt.Sprintf("unknown timeline item %q", startID))
		}
		end, ok := points[endID]
		if !ok {
			return nil, errors.NewImport(formatName, path, fmt.Sprintf("unknown timeline item %q", endID))
		}
		intervals = append(intervals, timeline.Interval{Start: start, End: end, Value: event.InnerText()})
	}
	sort.SliceStable(intervals, func(i, j int) bool { return intervals[i].Start < intervals[j].Start })
	return intervals, nil
}
