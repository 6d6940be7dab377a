package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/brunobiangulo/slidedeck/parser"
)

// Run sizes are in half-points.
const (
	docTitleSize   = "48"
	slideTitleSize = "32"
	metaSize       = "18"
)

// WriteDOCX writes a narration script: one section per slide with its text
// and speaker notes.
func WriteDOCX(w io.Writer, res *parser.Result) error {
	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph().Justification("center").AddText(deckTitle(res)).Bold().Size(docTitleSize)
	if res.Metadata.Author != "" {
		doc.AddParagraph().Justification("center").AddText(res.Metadata.Author).Italic()
	}

	for _, s := range res.Slides {
		doc.AddParagraph().AddText(slideHeading(s)).Bold().Size(slideTitleSize)

		if s.Error != "" {
			doc.AddParagraph().AddText("This slide could not be read.").Italic().Color("C00000")
		}
		if lines := bodyLines(s); len(lines) > 0 {
			doc.AddParagraph().AddText(strings.Join(lines, "\n"))
		}
		if s.Notes != "" {
			p := doc.AddParagraph()
			p.AddText("Notes: ").Bold().Italic()
			p.AddText(s.Notes).Italic()
		}
		doc.AddParagraph().AddText(fmt.Sprintf("%s, %.1fs", s.Transition, float64(s.DurationMs)/1000)).
			Size(metaSize).Color("7F7F7F")
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("writing docx: %w", err)
	}
	return nil
}
