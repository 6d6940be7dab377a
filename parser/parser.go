package parser

import (
	"context"

	"github.com/brunobiangulo/slidedeck/geometry"
)

const (
	// DefaultDurationMs is how long a slide is shown when it declares no advance time.
	DefaultDurationMs = 5000

	// DefaultTransition is used when a slide declares no transition effect.
	DefaultTransition = "fade"

	// DefaultWidth and DefaultHeight are the canvas size used when the
	// presentation does not declare one (16:9 at 96 DPI).
	DefaultWidth  = 960
	DefaultHeight = 540

	maxTitleRunes = 100
)

// Result is what a parser produces from a presentation archive.
type Result struct {
	Slides   []Slide  `json:"slides"`   // Ascending by SlideNumber, numbered 1..n
	Metadata Metadata `json:"metadata"`
}

// Slide is one parsed slide. Slides are never modified after Parse returns.
type Slide struct {
	SlideNumber   int             `json:"slideNumber"`
	Title         string          `json:"title"`
	Content       string          `json:"content"`
	TextElements  []TextElement   `json:"textElements"`
	ImageElements []ImageElement  `json:"imageElements"`
	Background    Background      `json:"background"`
	Animations    []AnimationData `json:"animations,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	DurationMs    int             `json:"duration"`
	Transition    string          `json:"transition"`
	Thumbnail     string          `json:"thumbnail,omitempty"` // base64 JPEG
	Error         string          `json:"error,omitempty"`     // set only on placeholder slides
}

// TextElement is the text of one shape with a single merged style.
type TextElement struct {
	Text       string        `json:"text"`
	FontSize   int           `json:"fontSize"` // pixels
	FontFamily string        `json:"fontFamily"`
	Color      string        `json:"color"` // #RRGGBB
	Bold       bool          `json:"bold"`
	Italic     bool          `json:"italic"`
	Underline  bool          `json:"underline"`
	Align      string        `json:"align"` // left, center, right, justify
	Position   geometry.Rect `json:"position"`
	ShapeName  string        `json:"shapeName,omitempty"`
}

// ImageElement is an embedded picture whose relationship resolved to a
// readable archive entry.
type ImageElement struct {
	RelID       string        `json:"id"`
	Path        string        `json:"src"`
	MIMEType    string        `json:"mimeType,omitempty"`
	Base64      string        `json:"base64,omitempty"`
	Position    geometry.Rect `json:"position"`
	PixelWidth  int           `json:"pixelWidth,omitempty"`  // intrinsic raster size after downscaling
	PixelHeight int           `json:"pixelHeight,omitempty"`
}

// Background kinds.
const (
	BackgroundSolid    = "solid"
	BackgroundGradient = "gradient"
	BackgroundImage    = "image"
	BackgroundNone     = "none"
)

// Background is a slide's resolved background fill.
type Background struct {
	Type      string `json:"type"`
	Color     string `json:"color,omitempty"`
	ImagePath string `json:"image,omitempty"`
	MIMEType  string `json:"mimeType,omitempty"`
	Base64    string `json:"base64,omitempty"`
}

// AnimationData is one preset animation effect from the slide timing tree.
type AnimationData struct {
	ShapeID    string `json:"shapeId"`
	Type       string `json:"type"` // entrance, exit, emphasis, path, other
	PresetID   int    `json:"presetId"`
	DelayMs    int    `json:"delay"`
	DurationMs int    `json:"duration"`
}

// Dimensions is the canvas size in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Metadata holds document-level properties. Dimensions are always set.
type Metadata struct {
	TotalSlides int        `json:"totalSlides"` // as declared, may differ from len(Slides)
	Dimensions  Dimensions `json:"dimensions"`
	Title       string     `json:"title,omitempty"`
	Author      string     `json:"author,omitempty"`
	Created     string     `json:"created,omitempty"`  // RFC 3339
	Modified    string     `json:"modified,omitempty"` // RFC 3339
	Application string     `json:"application,omitempty"`
}

// Options controls what a parse extracts. Use DefaultOptions and override;
// the zero value disables every extraction.
type Options struct {
	ExtractImages      bool `json:"extractImages"`
	ExtractNotes       bool `json:"extractNotes"`
	ExtractAnimations  bool `json:"extractAnimations"`
	GenerateThumbnails bool `json:"generateThumbnails"`
	PreserveFormatting bool `json:"preserveFormatting"`
	MaxImageSize       int  `json:"maxImageSize"` // pixels, longest side
	ImageQuality       int  `json:"imageQuality"` // JPEG quality 1-100

	Concurrency    int  `json:"concurrency,omitempty"`    // slide workers, default 4
	SkipValidation bool `json:"skipValidation,omitempty"` // skip the required-entry check
}

// DefaultOptions enables every extraction.
func DefaultOptions() Options {
	return Options{
		ExtractImages:      true,
		ExtractNotes:       true,
		ExtractAnimations:  true,
		GenerateThumbnails: true,
		PreserveFormatting: true,
		MaxImageSize:       1920,
		ImageQuality:       85,
		Concurrency:        4,
	}
}

// normalize fills out-of-range numeric options with defaults.
func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.MaxImageSize <= 0 {
		o.MaxImageSize = d.MaxImageSize
	}
	if o.ImageQuality < 1 || o.ImageQuality > 100 {
		o.ImageQuality = d.ImageQuality
	}
	if o.Concurrency <= 0 {
		o.Concurrency = d.Concurrency
	}
	return o
}

// Parser parses a presentation held in memory.
type Parser interface {
	Parse(ctx context.Context, data []byte, opts Options, onProgress ProgressFunc) (*Result, error)
	SupportedFormats() []string
}

// Parse runs the default PPTX parser over data.
func Parse(ctx context.Context, data []byte, opts Options, onProgress ProgressFunc) (*Result, error) {
	return (&PPTXParser{}).Parse(ctx, data, opts, onProgress)
}
