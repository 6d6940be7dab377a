package parser

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/brunobiangulo/slidedeck/archive"
)

var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PPTXParser parses OOXML presentations (.pptx and its macro/show/template
// variants).
type PPTXParser struct {
	Logger *slog.Logger
}

func (p *PPTXParser) SupportedFormats() []string { return []string{"pptx", "pptm", "ppsx", "potx"} }

func (p *PPTXParser) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Parse decodes a presentation held in memory.
//
// It fails with ErrInvalidArchive (before any progress is reported) when data
// is not a ZIP container, and with a *FormatError wrapping ErrInvalidFormat
// when a required entry is missing. Slides that fail to extract are replaced
// by placeholders and never fail the call. If ctx is canceled between slides
// the slides finished so far are returned together with ctx.Err().
func (p *PPTXParser) Parse(ctx context.Context, data []byte, opts Options, onProgress ProgressFunc) (*Result, error) {
	log := p.logger()
	opts = opts.normalize()

	ar, err := archive.Open(data)
	if err != nil {
		return nil, err
	}

	prog := newProgressReporter(onProgress)
	prog.report(Progress{Stage: StageInitializing, Percent: 0, Message: "archive opened"})

	if !opts.SkipValidation {
		if err := validate(ar); err != nil {
			return nil, err
		}
	}

	files := discoverSlides(ar)
	total := len(files)

	prog.report(Progress{Stage: StageExtracting, Percent: 10, TotalSlides: total, Message: "resolving relationships"})
	rels := resolveRelationships(ar, log)

	prog.report(Progress{Stage: StageExtracting, Percent: 20, TotalSlides: total, Message: "reading metadata"})
	md := extractMetadata(ar, log)

	x := &slideExtractor{ar: ar, rels: rels, opts: opts, log: log}
	prog.report(Progress{Stage: StageProcessing, Percent: 20, TotalSlides: total, Message: fmt.Sprintf("processing %d slides", total)})
	slides, err := extractAll(ctx, x, files, opts.Concurrency, prog)

	prog.report(Progress{Stage: StageFinalizing, Percent: 100, CurrentSlide: len(slides), TotalSlides: total, Message: "done"})
	log.Debug("pptx: parsed presentation", "slides", len(slides), "declared", md.TotalSlides)

	return &Result{Slides: slides, Metadata: md}, err
}

// discoverSlides lists slide parts ordered by the index in their names.
func discoverSlides(ar *archive.Reader) []slideFile {
	var files []slideFile
	for _, name := range ar.Match(slidePattern) {
		n, err := strconv.Atoi(slidePattern.FindStringSubmatch(name)[1])
		if err != nil {
			continue
		}
		files = append(files, slideFile{Name: name, Index: n})
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Index < files[j].Index })
	return files
}

// extractAll runs slide extraction on a bounded pool. Ordinals follow the
// position in files, not the completion order. Progress is reported under
// the same lock that counts completions, so callers see slide counts rise
// one at a time.
func extractAll(ctx context.Context, x *slideExtractor, files []slideFile, workers int, prog *progressReporter) ([]Slide, error) {
	total := len(files)
	outcomes := make([]slideOutcome, total)
	done := make([]bool, total)

	var (
		mu        sync.Mutex
		completed int
		g         errgroup.Group
	)
	g.SetLimit(workers)

	for i, f := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out := x.extract(f, i+1)

			mu.Lock()
			defer mu.Unlock()
			outcomes[i] = out
			done[i] = true
			completed++
			prog.report(Progress{
				Stage:        StageProcessing,
				Percent:      20 + 70*completed/total,
				CurrentSlide: i + 1,
				TotalSlides:  total,
				Message:      fmt.Sprintf("processed slide %d of %d", completed, total),
			})
			return nil
		})
	}
	_ = g.Wait()

	slides := make([]Slide, 0, total)
	for i := range files {
		if !done[i] {
			// Canceled: keep only the contiguous run of finished slides.
			break
		}
		slides = append(slides, outcomes[i].collapse(x.log, i+1))
	}
	if err := ctx.Err(); err != nil && len(slides) < total {
		return slides, err
	}
	return slides, nil
}
