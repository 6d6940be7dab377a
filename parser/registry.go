package parser

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Registry maps file extensions (without the dot) to parsers.
type Registry struct {
	parsers map[string]Parser
}

func NewRegistry() *Registry { return NewRegistryWithLogger(nil) }

// NewRegistryWithLogger registers the built-in parsers; they log to log, or
// to slog.Default() when log is nil.
func NewRegistryWithLogger(log *slog.Logger) *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	pptx := &PPTXParser{Logger: log}
	legacy := &LegacyParser{Fallback: pptx}

	for _, p := range []Parser{pptx, legacy} {
		for _, f := range p.SupportedFormats() {
			r.parsers[f] = p
		}
	}
	return r
}

func (r *Registry) Get(format string) (Parser, error) {
	p, ok := r.parsers[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return p, nil
}

// ForFile returns the parser for a file name by its extension.
func (r *Registry) ForFile(name string) (Parser, error) {
	return r.Get(strings.TrimPrefix(filepath.Ext(name), "."))
}

func (r *Registry) Register(format string, p Parser) {
	r.parsers[strings.ToLower(format)] = p
}
