// Command slidedeck parses a presentation and prints the result as JSON, or
// exports it as xlsx, docx, md or html.
//
//	slidedeck [flags] deck.pptx
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/brunobiangulo/slidedeck"
	"github.com/brunobiangulo/slidedeck/export"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("slidedeck", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath   = fs.String("config", "", "Path to config file (JSON)")
		format       = fs.String("export", "", "Export format: "+strings.Join(export.Formats(), ", ")+" (default JSON)")
		outPath      = fs.String("out", "", "Write output to this file instead of stdout")
		useCache     = fs.Bool("cache", false, "Use the result cache")
		dbPath       = fs.String("db", "", "Cache database path (implies -cache)")
		noImages     = fs.Bool("no-images", false, "Skip image extraction")
		noNotes      = fs.Bool("no-notes", false, "Skip speaker notes")
		noAnimations = fs.Bool("no-animations", false, "Skip animations (transitions are always reported)")
		noThumbnails = fs.Bool("no-thumbnails", false, "Skip slide thumbnails")
		plain        = fs.Bool("plain", false, "Report default text formatting instead of the deck's")
		concurrency  = fs.Int("concurrency", 0, "Slides processed in parallel (0 = default)")
		pretty       = fs.Bool("pretty", false, "Indent JSON output")
		progress     = fs.Bool("progress", false, "Print progress to stderr")
		verbose      = fs.Bool("v", false, "Verbose logging")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: slidedeck [flags] <file.pptx>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	path := fs.Arg(0)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg := slidedeck.DefaultConfig()
	if *configPath != "" {
		loaded, err := slidedeck.LoadConfig(*configPath)
		if err != nil {
			log.Error("loading config", "path", *configPath, "error", err)
			return 1
		}
		cfg = loaded
	} else {
		cfg.CacheEnabled = false
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
		*useCache = true
	}
	if *useCache {
		cfg.CacheEnabled = true
	}
	cfg.Logger = log

	opts := cfg.Processing
	opts.ExtractImages = opts.ExtractImages && !*noImages
	opts.ExtractNotes = opts.ExtractNotes && !*noNotes
	opts.ExtractAnimations = opts.ExtractAnimations && !*noAnimations
	opts.GenerateThumbnails = opts.GenerateThumbnails && !*noThumbnails
	opts.PreserveFormatting = opts.PreserveFormatting && !*plain
	if *concurrency > 0 {
		opts.Concurrency = *concurrency
	}

	var exporter export.Format
	if *format != "" {
		f, err := export.ForFormat(*format)
		if err != nil {
			log.Error("unknown export format", "format", *format, "available", export.Formats())
			return 2
		}
		exporter = f
	}

	engine, err := slidedeck.New(cfg)
	if err != nil {
		log.Error("creating engine", "error", err)
		return 1
	}
	defer engine.Close()

	parseOpts := []slidedeck.ParseOption{slidedeck.WithOptions(opts)}
	if *progress {
		parseOpts = append(parseOpts, slidedeck.WithProgress(func(p slidedeck.Progress) {
			fmt.Fprintf(stderr, "[%3d%%] %-12s %s\n", p.Percent, p.Stage, p.Message)
		}))
	}

	res, err := engine.ParseFile(ctx, path, parseOpts...)
	if err != nil {
		log.Error("parsing presentation", "path", path, "error", err)
		if errors.Is(err, slidedeck.ErrLegacyFormat) {
			fmt.Fprintln(stderr, "hint: re-save the file as .pptx")
		}
		return 1
	}
	for _, s := range res.Slides {
		if s.Error != "" {
			log.Warn("slide could not be read", "slide", s.SlideNumber, "error", s.Error)
		}
	}

	var out io.Writer = stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Error("creating output", "path", *outPath, "error", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	if exporter.Write != nil {
		err = engine.Export(out, res, exporter.Name)
	} else {
		enc := json.NewEncoder(out)
		if *pretty {
			enc.SetIndent("", "  ")
		}
		err = enc.Encode(res)
	}
	if err != nil {
		log.Error("writing output", "error", err)
		return 1
	}
	return 0
}
