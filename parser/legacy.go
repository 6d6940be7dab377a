package parser

import (
	"context"
	"fmt"

	"github.com/brunobiangulo/slidedeck/archive"
)

// LegacyParser rejects PowerPoint 97-2003 binary files with a clear error
// instead of the generic invalid-archive one.
type LegacyParser struct {
	// Fallback parses files that carry a legacy extension but are really
	// OOXML packages. Nil uses a default PPTXParser.
	Fallback *PPTXParser
}

func (p *LegacyParser) SupportedFormats() []string { return []string{"ppt", "pps", "pot"} }

func (p *LegacyParser) Parse(ctx context.Context, data []byte, opts Options, onProgress ProgressFunc) (*Result, error) {
	if archive.IsLegacyPresentation(data) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArchive, ErrLegacyFormat)
	}
	fb := p.Fallback
	if fb == nil {
		fb = &PPTXParser{}
	}
	return fb.Parse(ctx, data, opts, onProgress)
}
