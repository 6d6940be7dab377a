// Package slidedeck extracts structured content from PowerPoint (.pptx)
// presentations: per-slide text with formatting, images, backgrounds,
// animations, transitions, speaker notes and deck metadata.
//
// Parse is the stateless entry point. New returns an Engine that adds a
// content-addressed result cache, file handling and document export.
package slidedeck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/brunobiangulo/slidedeck/export"
	"github.com/brunobiangulo/slidedeck/parser"
	"github.com/brunobiangulo/slidedeck/store"
)

type (
	Result        = parser.Result
	Slide         = parser.Slide
	TextElement   = parser.TextElement
	ImageElement  = parser.ImageElement
	Background    = parser.Background
	AnimationData = parser.AnimationData
	Metadata      = parser.Metadata
	Dimensions    = parser.Dimensions
	Options       = parser.Options
	Progress      = parser.Progress
	ProgressFunc  = parser.ProgressFunc
	Stage         = parser.Stage
)

const (
	StageInitializing = parser.StageInitializing
	StageExtracting   = parser.StageExtracting
	StageProcessing   = parser.StageProcessing
	StageFinalizing   = parser.StageFinalizing
)

// DefaultOptions enables every extraction.
func DefaultOptions() Options { return parser.DefaultOptions() }

// Parse decodes a presentation held in memory. See parser.PPTXParser.Parse
// for the error and cancellation contract.
func Parse(ctx context.Context, data []byte, opts Options, onProgress ProgressFunc) (*Result, error) {
	return parser.Parse(ctx, data, opts, onProgress)
}

// Engine parses presentations with caching and exports results.
type Engine interface {
	// Parse decodes a presentation held in memory.
	Parse(ctx context.Context, data []byte, opts ...ParseOption) (*Result, error)

	// ParseFile reads and parses a file, choosing the parser by extension.
	ParseFile(ctx context.Context, path string, opts ...ParseOption) (*Result, error)

	// Export renders a result in one of export.Formats().
	Export(w io.Writer, res *Result, format string) error

	// Cache returns the result cache, or nil when caching is disabled.
	Cache() *store.Store

	// Close waits for running parses and closes the cache.
	Close() error
}

// ParseOption configures a single Engine.Parse or ParseFile call.
type ParseOption func(*parseOptions)

type parseOptions struct {
	opts     Options
	progress ProgressFunc
	format   string
	noCache  bool
}

// WithOptions overrides the configured processing options.
func WithOptions(o Options) ParseOption {
	return func(p *parseOptions) { p.opts = o }
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) ParseOption {
	return func(p *parseOptions) { p.progress = fn }
}

// WithFormat selects the parser by extension for in-memory input
// ("pptx", "ppt", ...). The default is pptx.
func WithFormat(format string) ParseOption {
	return func(p *parseOptions) { p.format = format }
}

// WithoutCache bypasses the cache for both lookup and store.
func WithoutCache() ParseOption {
	return func(p *parseOptions) { p.noCache = true }
}

type engine struct {
	cfg     Config
	log     *slog.Logger
	parsers *parser.Registry
	cache   *store.Store

	mu     sync.RWMutex
	closed bool
}

// New creates an engine. The cache database is opened when cfg.CacheEnabled.
func New(cfg Config) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.logger()

	e := &engine{
		cfg:     cfg,
		log:     log,
		parsers: parser.NewRegistryWithLogger(log),
	}

	if cfg.CacheEnabled {
		dbPath := cfg.resolveDBPath()
		s, err := store.New(dbPath)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		e.cache = s
		log.Debug("slidedeck: cache opened", "path", dbPath)
	}
	return e, nil
}

func (e *engine) Parse(ctx context.Context, data []byte, opts ...ParseOption) (*Result, error) {
	o := e.parseOptions(opts)
	format := o.format
	if format == "" {
		format = "pptx"
	}
	p, err := e.parsers.Get(format)
	if err != nil {
		return nil, err
	}
	return e.parse(ctx, p, data, o)
}

func (e *engine) ParseFile(ctx context.Context, path string, opts ...ParseOption) (*Result, error) {
	o := e.parseOptions(opts)
	p, err := e.parsers.ForFile(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := e.checkSize(info.Size()); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return e.parse(ctx, p, data, o)
}

func (e *engine) parseOptions(opts []ParseOption) parseOptions {
	o := parseOptions{opts: e.cfg.Processing}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (e *engine) checkSize(n int64) error {
	if max := e.cfg.MaxUploadBytes; max > 0 && n > max {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, n, max)
	}
	return nil
}

// parse consults the cache, runs p on a miss and stores the result. Cache
// failures are logged and never fail the call.
func (e *engine) parse(ctx context.Context, p parser.Parser, data []byte, o parseOptions) (*Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrEngineClosed
	}
	if err := e.checkSize(int64(len(data))); err != nil {
		return nil, err
	}

	useCache := e.cache != nil && !o.noCache
	var key store.Key
	if useCache {
		key = store.KeyFor(data, o.opts)
		res, err := e.cache.Get(ctx, key)
		switch {
		case err == nil:
			e.log.Debug("slidedeck: cache hit", "key", key.String(), "slides", len(res.Slides))
			if o.progress != nil {
				o.progress(Progress{
					Stage:        StageFinalizing,
					Percent:      100,
					CurrentSlide: len(res.Slides),
					TotalSlides:  len(res.Slides),
					Message:      "cache hit",
				})
			}
			return res, nil
		case !errors.Is(err, store.ErrCacheMiss):
			e.log.Warn("slidedeck: cache lookup failed", "error", err)
		}
	}

	res, err := p.Parse(ctx, data, o.opts, o.progress)
	if err != nil {
		return res, err
	}

	if useCache {
		if err := e.cache.Put(ctx, key, res); err != nil {
			e.log.Warn("slidedeck: caching result failed", "error", err)
		}
	}
	return res, nil
}

func (e *engine) Export(w io.Writer, res *Result, format string) error {
	f, err := export.ForFormat(format)
	if err != nil {
		return err
	}
	if res == nil {
		return errors.New("slidedeck: nil result")
	}
	return f.Write(w, res)
}

func (e *engine) Cache() *store.Store { return e.cache }

func (e *engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.cache != nil {
		return e.cache.Close()
	}
	return nil
}
