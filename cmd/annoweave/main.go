// Command annoweave converts linguistic annotation corpora into an
// append-only graph operation log, emitted as JSON lines or persisted
// into a SQLite snapshot.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/annoweave/annoweave/core/config"
	"github.com/annoweave/annoweave/core/errors"
	"github.com/annoweave/annoweave/core/graph"
	"github.com/annoweave/annoweave/internal/formats"
	"github.com/annoweave/annoweave/internal/logging"
	"github.com/annoweave/annoweave/internal/sqlite"

	// Register all format handlers.
	_ "github.com/annoweave/annoweave/internal/formats/conllu"
	_ "github.com/annoweave/annoweave/internal/formats/exmaralda"
	_ "github.com/annoweave/annoweave/internal/formats/ptb"
	_ "github.com/annoweave/annoweave/internal/formats/textgrid"
	_ "github.com/annoweave/annoweave/internal/formats/xlsx"
)

const version = "0.1.0"

// CLI defines the command-line interface for annoweave.
var CLI struct {
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log output format"`

	Convert ConvertCmd `cmd:"" help:"Convert a corpus into a graph operation log"`
	Detect  DetectCmd  `cmd:"" help:"Probe which format a path belongs to"`
	Formats FormatsCmd `cmd:"" help:"List registered format handlers"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// ConvertCmd converts a corpus root (directory or single file).
type ConvertCmd struct {
	Path   string `arg:"" help:"Corpus root directory or single document" type:"path"`
	Format string `required:"" help:"Input format (see 'annoweave formats')"`

	TierGroups     string `name:"tier-groups" help:"Tier grouping, e.g. 'tok={pos,lemma};tok2={}' (textgrid)"`
	ColumnMap      string `name:"column-map" help:"Column grouping for spreadsheets, same syntax as --tier-groups"`
	TextName       string `name:"text-name" help:"Name of the implicit tokenization tier"`
	CategoryName   string `name:"category-name" default:"cat" help:"Annotation name for constituent categories"`
	ForceMultiTok  bool   `name:"force-multi-tok" help:"Build the empty-token timeline even for a single tier group"`
	SkipAudio      bool   `name:"skip-audio" help:"Do not link referenced media files"`
	AudioExtension string `name:"audio-extension" help:"Extension probed for linked audio (default wav)"`

	Events string `name:"events" type:"path" help:"Write the operation log as JSON lines ('-' for stdout)"`
	Out    string `name:"out" type:"path" help:"Persist the operation log into this SQLite database"`
}

func (c *ConvertCmd) Run() error {
	if c.Events == "" && c.Out == "" {
		c.Events = "-"
	}
	importer, err := formats.Lookup(c.Format)
	if err != nil {
		return &errors.ConfigError{Option: "format", Message: err.Error(), Err: err}
	}
	opts, err := c.options()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithRunID(ctx, runID)
	logging.InfoContext(ctx, "starting conversion", "format", c.Format, "path", c.Path)

	u := graph.NewUpdate()
	if err := importer.Import(ctx, c.Path, opts, u); err != nil {
		logging.ImportError(c.Format, c.Path, err)
		return err
	}
	logging.InfoContext(ctx, "conversion finished", "events", u.Len())

	if c.Events != "" {
		if err := writeEvents(c.Events, u); err != nil {
			return err
		}
	}
	if c.Out != "" {
		store, err := sqlite.Open(c.Out)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Apply(ctx, u); err != nil {
			return err
		}
		logging.InfoContext(ctx, "operation log persisted", "db", c.Out)
	}
	return nil
}

func (c *ConvertCmd) options() (formats.Options, error) {
	opts := formats.Options{
		TextName:       c.TextName,
		CategoryName:   c.CategoryName,
		ForceMultiTok:  c.ForceMultiTok,
		SkipAudio:      c.SkipAudio,
		AudioExtension: c.AudioExtension,
	}
	grouping := c.TierGroups
	option := "tier_groups"
	if grouping == "" && c.ColumnMap != "" {
		grouping = c.ColumnMap
		option = "column_map"
	}
	if grouping != "" {
		tg, err := config.ParseTierGroups(option, grouping)
		if err != nil {
			return opts, err
		}
		opts.TierGroups = tg
	}
	return opts, nil
}

func writeEvents(path string, u *graph.Update) error {
	w := os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrapf(err, "creating event log %s", path)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	for _, ev := range u.Events() {
		if err := enc.Encode(ev); err != nil {
			return errors.Wrap(err, "encoding event")
		}
	}
	return nil
}

// DetectCmd probes a path against every registered handler.
type DetectCmd struct {
	Path string `arg:"" help:"File to probe" type:"existingfile"`
}

func (c *DetectCmd) Run() error {
	_, result, err := formats.Detect(c.Path)
	if err != nil {
		return err
	}
	if !result.Detected {
		fmt.Printf("%s: %s\n", c.Path, result.Reason)
		return nil
	}
	fmt.Printf("%s: %s (%s)\n", c.Path, result.Format, result.Reason)
	return nil
}

// FormatsCmd lists the registered handlers.
type FormatsCmd struct{}

func (c *FormatsCmd) Run() error {
	for _, h := range formats.All() {
		fmt.Printf("%-12s %v\n", h.Name(), h.Extensions())
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("annoweave %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("annoweave"),
		kong.Description("annoweave - annotation corpus to graph converter"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
