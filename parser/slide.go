package parser

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/brunobiangulo/slidedeck/archive"
	"github.com/brunobiangulo/slidedeck/geometry"
)

// slideFile is a discovered slide part and the index in its file name.
type slideFile struct {
	Name  string
	Index int
}

func (f slideFile) key() string { return strconv.Itoa(f.Index) }

// slideOutcome is the result of extracting one slide. A non-nil Err means
// Slide is not usable and the aggregator substitutes a placeholder.
type slideOutcome struct {
	Slide Slide
	Err   error
}

func (o slideOutcome) collapse(log *slog.Logger, ordinal int) Slide {
	if o.Err == nil {
		return o.Slide
	}
	log.Warn("pptx: slide extraction failed, using placeholder", "slide", ordinal, "error", o.Err)
	return PlaceholderSlide(ordinal, o.Err)
}

// PlaceholderSlide is substituted for a slide that could not be extracted.
func PlaceholderSlide(ordinal int, err error) Slide {
	s := newSlide(ordinal)
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

func newSlide(ordinal int) Slide {
	return Slide{
		SlideNumber:   ordinal,
		TextElements:  []TextElement{},
		ImageElements: []ImageElement{},
		Background:    Background{Type: BackgroundSolid, Color: geometry.White},
		DurationMs:    DefaultDurationMs,
		Transition:    DefaultTransition,
	}
}

// slideExtractor turns slide parts into Slides. It is shared by the workers
// of one parse call and only reads its fields.
type slideExtractor struct {
	ar   *archive.Reader
	rels RelationshipMap
	opts Options
	log  *slog.Logger
}

// extract never panics; any failure is reported in the outcome.
func (x *slideExtractor) extract(f slideFile, ordinal int) (out slideOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = slideOutcome{Err: fmt.Errorf("extracting %s: panic: %v", f.Name, r)}
		}
	}()
	s, err := x.extractSlide(f, ordinal)
	if err != nil {
		return slideOutcome{Err: err}
	}
	return slideOutcome{Slide: s}
}

func (x *slideExtractor) extractSlide(f slideFile, ordinal int) (Slide, error) {
	data, err := x.ar.ReadBytes(f.Name)
	if err != nil {
		return Slide{}, err
	}
	var doc xmlSlide
	if err := decodeXML(data, &doc); err != nil {
		return Slide{}, fmt.Errorf("decoding %s: %w", f.Name, err)
	}

	key := f.key()
	s := newSlide(ordinal)
	var thumbSource []byte

	bg, bgData := x.background(doc.CSld.Bg, key)
	s.Background = bg

	for _, shape := range doc.CSld.Tree.Shapes {
		switch sh := shape.(type) {
		case *TextShape:
			if te, ok := x.textElement(&sh.shapeFrame, sh.Body); ok {
				s.TextElements = append(s.TextElements, te)
			}
			if sh.BlipEmbed != "" {
				if img, raw, ok := x.image(key, sh.BlipEmbed, sh.rect()); ok {
					s.ImageElements = append(s.ImageElements, img)
					thumbSource = firstRaster(thumbSource, raw, img.MIMEType)
				}
			}
		case *PictureShape:
			if img, raw, ok := x.image(key, sh.BlipEmbed, sh.rect()); ok {
				s.ImageElements = append(s.ImageElements, img)
				thumbSource = firstRaster(thumbSource, raw, img.MIMEType)
			}
		case *GraphicFrameShape:
			if len(sh.Rows) == 0 {
				continue
			}
			body := &xmlTextBody{}
			for _, row := range sh.Rows {
				for _, cell := range row.Cells {
					if cell.TxBody != nil {
						body.Paras = append(body.Paras, cell.TxBody.Paras...)
					}
				}
			}
			if te, ok := x.textElement(&sh.shapeFrame, body); ok {
				s.TextElements = append(s.TextElements, te)
			}
		}
	}

	if len(s.TextElements) > 0 {
		s.Title = truncateRunes(s.TextElements[0].Text, maxTitleRunes)
		texts := make([]string, len(s.TextElements))
		for i, te := range s.TextElements {
			texts[i] = te.Text
		}
		s.Content = strings.Join(texts, "\n")
	}

	s.Transition, s.DurationMs = transitionOf(&doc)

	if x.opts.ExtractAnimations {
		anims, err := extractAnimations(data)
		if err != nil {
			return Slide{}, fmt.Errorf("reading timing of %s: %w", f.Name, err)
		}
		s.Animations = anims
	}

	if x.opts.ExtractNotes {
		s.Notes = x.notes(key, f.Index)
	}

	if x.opts.GenerateThumbnails {
		if thumbSource == nil {
			thumbSource = bgData
		}
		if thumbSource != nil {
			if thumb, ok := makeThumbnail(thumbSource, x.opts.ImageQuality); ok {
				s.Thumbnail = thumb
			}
		}
	}

	return s, nil
}

func (x *slideExtractor) textElement(f *shapeFrame, body *xmlTextBody) (TextElement, bool) {
	style := defaultRunStyle()
	text := bodyText(body, &style)
	if text == "" {
		return TextElement{}, false
	}
	if !x.opts.PreserveFormatting {
		style = defaultRunStyle()
	}
	return TextElement{
		Text:       text,
		FontSize:   style.SizePx,
		FontFamily: style.Family,
		Color:      style.Color,
		Bold:       style.Bold,
		Italic:     style.Italic,
		Underline:  style.Underline,
		Align:      style.Align,
		Position:   f.rect(),
		ShapeName:  f.Name,
	}, true
}

// image resolves an r:embed reference. ok is false when images are disabled,
// the relationship is unknown, or the target entry is missing or unreadable.
func (x *slideExtractor) image(key, relID string, pos geometry.Rect) (ImageElement, []byte, bool) {
	if !x.opts.ExtractImages || relID == "" {
		return ImageElement{}, nil, false
	}
	rel, ok := x.rels.Lookup(key, relID)
	if !ok {
		x.log.Debug("pptx: image relationship not found", "slide", key, "rId", relID)
		return ImageElement{}, nil, false
	}
	data, err := x.ar.ReadBytes(rel.Target)
	if err != nil {
		x.log.Debug("pptx: image entry unreadable", "slide", key, "path", rel.Target, "error", err)
		return ImageElement{}, nil, false
	}

	img := fitImage(data, mimeFromPath(rel.Target), x.opts.MaxImageSize, x.opts.ImageQuality)
	return ImageElement{
		RelID:       relID,
		Path:        rel.Target,
		MIMEType:    img.MIME,
		Base64:      base64.StdEncoding.EncodeToString(img.Data),
		Position:    pos,
		PixelWidth:  img.Width,
		PixelHeight: img.Height,
	}, img.Data, true
}

// background resolves the slide background and, for picture fills, returns
// the image bytes as well.
func (x *slideExtractor) background(bg *xmlBackground, key string) (Background, []byte) {
	def := Background{Type: BackgroundSolid, Color: geometry.White}
	if bg == nil {
		return def, nil
	}
	if bg.BgPr != nil {
		p := bg.BgPr
		switch {
		case p.SolidFill != nil:
			return Background{Type: BackgroundSolid, Color: geometry.ResolveColor(p.SolidFill.fill())}, nil
		case p.GradFill != nil:
			color := geometry.White
			if len(p.GradFill.Stops) > 0 {
				color = geometry.ResolveColor(p.GradFill.Stops[0].fill())
			}
			return Background{Type: BackgroundGradient, Color: color}, nil
		case p.BlipFill != nil:
			return x.imageBackground(key, p.BlipFill.embedID())
		case p.NoFill != nil:
			return Background{Type: BackgroundNone}, nil
		}
	}
	if bg.BgRef != nil && bg.BgRef.declared() {
		return Background{Type: BackgroundSolid, Color: geometry.ResolveColor(bg.BgRef.fill())}, nil
	}
	return def, nil
}

func (x *slideExtractor) imageBackground(key, relID string) (Background, []byte) {
	rel, ok := x.rels.Lookup(key, relID)
	if !ok {
		return Background{Type: BackgroundSolid, Color: geometry.White}, nil
	}
	bg := Background{Type: BackgroundImage, ImagePath: rel.Target, MIMEType: mimeFromPath(rel.Target)}
	if !x.opts.ExtractImages {
		return bg, nil
	}
	data, err := x.ar.ReadBytes(rel.Target)
	if err != nil {
		x.log.Debug("pptx: background image unreadable", "slide", key, "path", rel.Target, "error", err)
		return Background{Type: BackgroundSolid, Color: geometry.White}, nil
	}
	img := fitImage(data, bg.MIMEType, x.opts.MaxImageSize, x.opts.ImageQuality)
	bg.MIMEType = img.MIME
	bg.Base64 = base64.StdEncoding.EncodeToString(img.Data)
	if !isRaster(img.MIME) {
		return bg, nil
	}
	return bg, img.Data
}

// notes returns the speaker notes of a slide, or "" if it has none. Notes
// are optional, so read errors are logged and ignored.
func (x *slideExtractor) notes(key string, index int) string {
	name, ok := notesPath(x.rels, key, index)
	if !ok || !x.ar.Has(name) {
		return ""
	}
	data, err := x.ar.ReadBytes(name)
	if err != nil {
		x.log.Debug("pptx: notes unreadable", "path", name, "error", err)
		return ""
	}
	text, err := notesText(data)
	if err != nil {
		x.log.Debug("pptx: notes malformed", "path", name, "error", err)
		return ""
	}
	return text
}

func firstRaster(current, candidate []byte, mime string) []byte {
	if current != nil || !isRaster(mime) {
		return current
	}
	return candidate
}
