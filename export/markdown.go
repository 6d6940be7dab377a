package export

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/brunobiangulo/slidedeck/parser"
)

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"#", `\#`,
	"<", `\<`,
	">", `\>`,
	"|", `\|`,
)

func escapeMarkdown(s string) string { return mdEscaper.Replace(s) }

// Markdown renders the deck as an outline: a metadata table followed by one
// section per slide.
func Markdown(res *parser.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(deckTitle(res)))

	b.WriteString("| Property | Value |\n|---|---|\n")
	for _, kv := range metadataRows(res) {
		fmt.Fprintf(&b, "| %s | %s |\n", kv[0], escapeMarkdown(kv[1]))
	}

	for _, s := range res.Slides {
		fmt.Fprintf(&b, "\n## %s\n\n", escapeMarkdown(slideHeading(s)))

		if s.Error != "" {
			fmt.Fprintf(&b, "_This slide could not be read: %s_\n\n", escapeMarkdown(s.Error))
		}
		if lines := bodyLines(s); len(lines) > 0 {
			for _, line := range lines {
				fmt.Fprintf(&b, "- %s\n", escapeMarkdown(line))
			}
			b.WriteString("\n")
		}

		if n := len(s.ImageElements); n > 0 {
			fmt.Fprintf(&b, "_%d image(s)_\n\n", n)
		}

		if s.Notes != "" {
			for _, line := range strings.Split(s.Notes, "\n") {
				fmt.Fprintf(&b, "> %s\n", escapeMarkdown(line))
			}
			b.WriteString("\n")
		}

		fmt.Fprintf(&b, "Transition: %s, %.1fs\n", escapeMarkdown(s.Transition), float64(s.DurationMs)/1000)
	}
	return b.String()
}

// WriteMarkdown writes Markdown(res) to w.
func WriteMarkdown(w io.Writer, res *parser.Result) error {
	_, err := io.WriteString(w, Markdown(res))
	return err
}

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithXHTML()),
)

// WriteHTML renders the Markdown outline to a standalone HTML page.
func WriteHTML(w io.Writer, res *parser.Result) error {
	var body bytes.Buffer
	if err := markdownRenderer.Convert([]byte(Markdown(res)), &body); err != nil {
		return fmt.Errorf("rendering html: %w", err)
	}

	title := html.EscapeString(deckTitle(res))
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n%s</body>\n</html>\n",
		title, body.String())
	return err
}
