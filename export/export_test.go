package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/slidedeck/geometry"
	"github.com/brunobiangulo/slidedeck/parser"
)

func sampleResult() *parser.Result {
	s1 := parser.PlaceholderSlide(1, nil)
	s1.Title = "Q3 Review"
	s1.Content = "Q3 Review\nRevenue up 12%\nChurn | flat"
	s1.TextElements = []parser.TextElement{{Text: "Q3 Review"}, {Text: "Revenue up 12%"}, {Text: "Churn | flat"}}
	s1.ImageElements = []parser.ImageElement{{
		RelID: "rId2", Path: "ppt/media/image1.png", MIMEType: "image/png",
		Position: geometry.Rect{X: 10, Y: 20, Width: 300, Height: 200}, PixelWidth: 640, PixelHeight: 480,
	}}
	s1.Notes = "Mention the *new* region"
	s1.Transition = "push"
	s1.DurationMs = 3000

	s2 := parser.PlaceholderSlide(2, errors.New("decoding ppt/slides/slide2.xml: unexpected EOF"))

	return &parser.Result{
		Slides: []parser.Slide{s1, s2},
		Metadata: parser.Metadata{
			TotalSlides: 2,
			Dimensions:  parser.Dimensions{Width: 960, Height: 540},
			Title:       "Board <Update>",
			Author:      "Finance",
		},
	}
}

func TestForFormat(t *testing.T) {
	tests := map[string]string{
		"xlsx":     "xlsx",
		".DOCX":    "docx",
		"markdown": "md",
		"htm":      "html",
		" html ":   "html",
	}
	for in, want := range tests {
		f, err := ForFormat(in)
		if err != nil {
			t.Errorf("ForFormat(%q): %v", in, err)
			continue
		}
		if f.Name != want || f.Write == nil || f.ContentType == "" {
			t.Errorf("ForFormat(%q) = %+v", in, f)
		}
	}

	if _, err := ForFormat("pdf"); !errors.Is(err, parser.ErrUnsupportedFormat) {
		t.Errorf("ForFormat(pdf) = %v, want ErrUnsupportedFormat", err)
	}
	if got := strings.Join(Formats(), ","); got != "docx,html,md,xlsx" {
		t.Errorf("Formats() = %s", got)
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleResult())

	for _, want := range []string{
		"# Board \\<Update\\>\n",
		"| Author | Finance |",
		"| Slides | 2 |",
		"## Slide 1: Q3 Review\n",
		"- Revenue up 12%\n",
		"- Churn \\| flat\n",
		"_1 image(s)_",
		"> Mention the \\*new\\* region",
		"Transition: push, 3.0s",
		"## Slide 2\n",
		"_This slide could not be read: ",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
	if strings.Contains(md, "- Q3 Review") {
		t.Error("slide title repeated as a bullet")
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<title>Board &lt;Update&gt;</title>",
		"<table>",
		"<h2>Slide 1: Q3 Review</h2>",
		"<li>Churn | flat</li>",
		"<blockquote>",
		"<em>1 image(s)</em>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "<Update>") {
		t.Error("title was not escaped")
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if got := strings.Join(f.GetSheetList(), ","); got != "Slides,Images,Metadata" {
		t.Errorf("sheets = %s", got)
	}

	slides, err := f.GetRows(sheetSlides)
	if err != nil {
		t.Fatalf("GetRows(Slides): %v", err)
	}
	if len(slides) != 3 {
		t.Fatalf("Slides has %d rows, want 3", len(slides))
	}
	if slides[0][0] != "Slide" || slides[1][1] != "Q3 Review" || slides[1][7] != "3000" || slides[1][8] != "push" {
		t.Errorf("slide rows = %v", slides[:2])
	}
	if last := slides[2]; last[len(last)-1] == "" {
		t.Error("placeholder row should carry its error")
	}

	images, _ := f.GetRows(sheetImages)
	if len(images) != 2 || images[1][2] != "ppt/media/image1.png" || images[1][8] != "640" {
		t.Errorf("image rows = %v", images)
	}

	meta, _ := f.GetRows(sheetMetadata)
	found := false
	for _, row := range meta {
		if len(row) == 2 && row[0] == "Author" && row[1] == "Finance" {
			found = true
		}
	}
	if !found {
		t.Errorf("metadata rows = %v", meta)
	}
}

func TestWriteDOCX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDOCX(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteDOCX: %v", err)
	}

	doc, err := docx.Parse(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("docx.Parse: %v", err)
	}

	var text strings.Builder
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			for _, rc := range run.Children {
				if txt, ok := rc.(*docx.Text); ok {
					text.WriteString(txt.Text)
				}
			}
		}
		text.WriteString("\n")
	}

	out := text.String()
	for _, want := range []string{
		"Board <Update>",
		"Slide 1: Q3 Review",
		"Revenue up 12%",
		"Notes: Mention the *new* region",
		"Slide 2",
		"This slide could not be read.",
		"push, 3.0s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("docx text missing %q\n%s", want, out)
		}
	}
}
