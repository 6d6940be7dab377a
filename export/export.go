// Package export renders parse results into office and web documents.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/brunobiangulo/slidedeck/parser"
)

// WriteFunc renders a result to w.
type WriteFunc func(w io.Writer, res *parser.Result) error

// Format describes one export target.
type Format struct {
	Name        string
	ContentType string
	Extension   string
	Write       WriteFunc
}

var formats = map[string]Format{
	"xlsx": {
		Name:        "xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Extension:   ".xlsx",
		Write:       WriteXLSX,
	},
	"docx": {
		Name:        "docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Extension:   ".docx",
		Write:       WriteDOCX,
	},
	"md": {
		Name:        "md",
		ContentType: "text/markdown; charset=utf-8",
		Extension:   ".md",
		Write:       WriteMarkdown,
	},
	"html": {
		Name:        "html",
		ContentType: "text/html; charset=utf-8",
		Extension:   ".html",
		Write:       WriteHTML,
	},
}

var aliases = map[string]string{
	"markdown": "md",
	"htm":      "html",
	"excel":    "xlsx",
	"word":     "docx",
}

// ForFormat looks up an export target by name (case-insensitive).
func ForFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	f, ok := formats[name]
	if !ok {
		return Format{}, fmt.Errorf("%w: export %q", parser.ErrUnsupportedFormat, name)
	}
	return f, nil
}

// Formats lists the canonical export names.
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// deckTitle picks a document title: the metadata title, then the first
// slide title, then a generic name.
func deckTitle(res *parser.Result) string {
	if t := strings.TrimSpace(res.Metadata.Title); t != "" {
		return t
	}
	for _, s := range res.Slides {
		if s.Title != "" {
			return s.Title
		}
	}
	return "Presentation"
}

// bodyLines returns the text of every element after the one used as title.
func bodyLines(s parser.Slide) []string {
	if len(s.TextElements) < 2 {
		return nil
	}
	lines := make([]string, 0, len(s.TextElements)-1)
	for _, te := range s.TextElements[1:] {
		lines = append(lines, te.Text)
	}
	return lines
}

func slideHeading(s parser.Slide) string {
	if s.Title == "" {
		return fmt.Sprintf("Slide %d", s.SlideNumber)
	}
	return fmt.Sprintf("Slide %d: %s", s.SlideNumber, s.Title)
}

// metadataRows is shared by the spreadsheet and markdown renderers.
func metadataRows(res *parser.Result) [][2]string {
	md := res.Metadata
	rows := [][2]string{
		{"Title", deckTitle(res)},
		{"Slides", fmt.Sprintf("%d", len(res.Slides))},
		{"Declared slides", fmt.Sprintf("%d", md.TotalSlides)},
		{"Dimensions", fmt.Sprintf("%dx%d", md.Dimensions.Width, md.Dimensions.Height)},
	}
	for _, kv := range [][2]string{
		{"Author", md.Author},
		{"Created", md.Created},
		{"Modified", md.Modified},
		{"Application", md.Application},
	} {
		if kv[1] != "" {
			rows = append(rows, kv)
		}
	}
	return rows
}
