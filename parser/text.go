package parser

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/brunobiangulo/slidedeck/geometry"
)

const (
	defaultFontPoints = 18
	defaultFontFamily = "Calibri"
	defaultAlign      = "left"
)

// runStyle is the single style a TextElement carries.
//
// Merge rule: styles are folded over the runs of a shape in document order
// and every attribute a run declares overwrites the accumulated value, so the
// last run declaring an attribute decides it for the whole shape. Per-run
// styling is deliberately not kept.
type runStyle struct {
	SizePx    int
	Family    string
	Color     string
	Bold      bool
	Italic    bool
	Underline bool
	Align     string
}

func defaultRunStyle() runStyle {
	return runStyle{
		SizePx: geometry.PointsToPixels(defaultFontPoints),
		Family: defaultFontFamily,
		Color:  geometry.Black,
		Align:  defaultAlign,
	}
}

func (s *runStyle) mergeRun(p *xmlRunProps) {
	if p == nil {
		return
	}
	if p.Sz != nil && *p.Sz > 0 {
		// sz is in hundredths of a point.
		if px := geometry.PointsToPixels(float64(*p.Sz) / 100); px >= 1 {
			s.SizePx = px
		} else {
			s.SizePx = 1
		}
	}
	if p.Latin != nil && p.Latin.Typeface != "" {
		s.Family = resolveTypeface(p.Latin.Typeface)
	}
	if p.SolidFill.declared() {
		s.Color = geometry.ResolveColor(p.SolidFill.fill())
	}
	if p.B != nil {
		s.Bold = *p.B
	}
	if p.I != nil {
		s.Italic = *p.I
	}
	if p.U != nil {
		s.Underline = *p.U != "" && *p.U != "none"
	}
}

func (s *runStyle) mergePara(p *xmlParaProps) {
	if p == nil || p.Algn == "" {
		return
	}
	s.Align = alignment(p.Algn)
}

// resolveTypeface maps theme font references (+mj-lt, +mn-ea, ...) to the
// default family; the theme part itself is not read.
func resolveTypeface(face string) string {
	if strings.HasPrefix(face, "+") {
		return defaultFontFamily
	}
	return face
}

func alignment(algn string) string {
	switch algn {
	case "ctr":
		return "center"
	case "r":
		return "right"
	case "just", "dist", "justLow", "thaiDist":
		return "justify"
	default:
		return "left"
	}
}

// bodyText space-joins the trimmed, non-empty runs of every paragraph and
// folds their formatting.
func bodyText(body *xmlTextBody, style *runStyle) string {
	if body == nil {
		return ""
	}
	var parts []string
	for _, para := range body.Paras {
		style.mergePara(para.PPr)
		for _, run := range para.Runs {
			style.mergeRun(run.RPr)
			if t := strings.TrimSpace(run.Text); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return norm.NFC.String(strings.Join(parts, " "))
}

// paragraphText joins each paragraph's runs directly and the paragraphs with
// newlines. Used for speaker notes, where runs split mid-word.
func paragraphText(body *xmlTextBody) string {
	if body == nil {
		return ""
	}
	var lines []string
	for _, para := range body.Paras {
		var line strings.Builder
		for _, run := range para.Runs {
			line.WriteString(run.Text)
		}
		if t := strings.TrimSpace(line.String()); t != "" {
			lines = append(lines, t)
		}
	}
	return norm.NFC.String(strings.Join(lines, "\n"))
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
