// Package xlsx imports spreadsheet corpora where each worksheet row is an
// atomic timeline position and each column is a tier. Vertically merged
// cells stretch a value over several rows; the column map declares which
// columns tokenize and which annotate.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/annoweave/annoweave/core/errors"
	"github.com/annoweave/annoweave/core/graph"
	"github.com/annoweave/annoweave/core/mapper"
	"github.com/annoweave/annoweave/core/timeline"
	"github.com/annoweave/annoweave/internal/fileutil"
	"github.com/annoweave/annoweave/internal/formats"
	"github.com/annoweave/annoweave/internal/logging"
)

const formatName = "xlsx"

func init() {
	formats.Register(&Importer{})
}

// Importer converts spreadsheet workbooks.
type Importer struct{}

// Name implements formats.Importer.
func (*Importer) Name() string { return formatName }

// Extensions implements formats.Importer.
func (*Importer) Extensions() []string { return []string{".xlsx"} }

// Detect implements formats.Importer.
func (*Importer) Detect(path string) (*formats.DetectResult, error) {
	// xlsx is a zip container, "PK" is its magic prefix.
	return formats.DetectFile(path, formats.DetectConfig{
		Extensions:     []string{".xlsx"},
		ContentMarkers: []string{"PK"},
		FormatName:     formatName,
	})
}

// Import implements formats.Importer.
func (imp *Importer) Import(ctx context.Context, root string, opts formats.Options, u *graph.Update) error {
	if opts.TierGroups == nil || len(opts.TierGroups.Groups) == 0 {
		return &errors.ConfigError{Option: "column_map", Message: "no column mapping configured, cannot proceed"}
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
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return &errors.ParseError{Format: formatName, Path: doc.Path, Message: err.Error(), Err: err}
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return errors.NewImport(formatName, doc.Path, "workbook has no worksheets")
	}
	tiers, err := readSheet(book, sheets[0], doc.Path)
	if err != nil {
		return err
	}
	groups := opts.TierGroups
	for _, owner := range groups.Owners() {
		if _, ok := tiers[owner]; !ok {
			return &errors.ConfigError{
				Option:  "column_map",
				Message: fmt.Sprintf("column %q is configured as token column but missing from %s", owner, doc.Path),
			}
		}
	}

	d := graph.NewDocument(doc.DocPath)
	fileutil.AttachChecksum(u, d, data)

	// Rows are the atomic positions, so every configured column yields one
	// empty base token per covered row.
	var all [][]timeline.Interval
	for _, name := range groups.Names() {
		if ivs, ok := tiers[name]; ok {
			all = append(all, ivs)
		}
	}
	tl := timeline.Build(all...)
	if tl.Empty() {
		logging.Warn("workbook has no annotated rows", "doc", doc.Path)
		return nil
	}
	tl.Emit(u, d)

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
				logging.Warn("configured column missing from worksheet", "doc", doc.Path, "column", name)
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

// readSheet extracts one interval list per header column. Row 1 carries
// the column names, every following row is one timeline position. A cell
// merged across columns has no tier interpretation and is fatal.
func readSheet(book *excelize.File, sheet, path string) (map[string][]timeline.Interval, error) {
	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, &errors.ParseError{Format: formatName, Path: path, Message: err.Error(), Err: err}
	}
	if len(rows) < 2 {
		return nil, errors.NewImport(formatName, path, "worksheet has no data rows")
	}
	headers := rows[0]

	merges, err := mergedExtents(book, sheet, path)
	if err != nil {
		return nil, err
	}

	tiers := make(map[string][]timeline.Interval)
	for col, name := range headers {
		if strings.TrimSpace(name) == "" {
			continue
		}
		var intervals []timeline.Interval
		for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
			row := rows[rowIdx]
			if col >= len(row) {
				continue
			}
			value := row[col]
			if strings.TrimSpace(value) == "" {
				continue
			}
			// Interval positions count data rows from zero; a merge
			// stretches the extent down to its last worksheet row.
			start := rowIdx - 1
			end := rowIdx
			if lastRow, ok := merges[cellKey{col: col + 1, row: rowIdx + 1}]; ok {
				end = lastRow - 1
			}
			intervals = append(intervals, timeline.Interval{
				Start: float64(start),
				End:   float64(end),
				Value: value,
			})
		}
		tiers[name] = intervals
	}
	return tiers, nil
}

type cellKey struct {
	col, row int
}

// mergedExtents maps each merge region's top cell to its bottom worksheet
// row. Regions spanning more than one column are fatal.
func mergedExtents(book *excelize.File, sheet, path string) (map[cellKey]int, error) {
	regions, err := book.GetMergeCells(sheet)
	if err != nil {
		return nil, &errors.ParseError{Format: formatName, Path: path, Message: err.Error(), Err: err}
	}
	merges := make(map[cellKey]int, len(regions))
	for _, region := range regions {
		startCol, startRow, err := excelize.CellNameToCoordinates(region.GetStartAxis())
		if err != nil {
			return nil, &errors.ParseError{Format: formatName, Path: path, Message: err.Error(), Err: err}
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(region.GetEndAxis())
		if err != nil {
			return nil, &errors.ParseError{Format: formatName, Path: path, Message: err.Error(), Err: err}
		}
		if startCol != endCol {
			return nil, errors.NewImport(formatName, path,
				fmt.Sprintf("merged region %s:%s spans more than one column", region.GetStartAxis(), region.GetEndAxis()))
		}
		merges[cellKey{col: startCol, row: startRow}] = endRow
	}
	return merges, nil
}
